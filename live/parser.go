// Package live implements the stub market-data Parser and trade-channel
// Trader adapters (spec §6, "Trader / Parser adapter interfaces"). Both
// connect over a WebSocket transport and decode frames into wtdata
// types, but neither speaks a real exchange wire protocol — live order
// routing is out of scope (spec §1 Non-goals). Neither is wired into
// cmd/btrunner, which only replays historical data.
//
// Grounded on the teacher's strategies.MarketDataStream (dial, welcome
// frame, read loop dispatching by message type, callback fan-out).
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"quantreplay/wtdata"
)

// QuoteHandler receives a decoded best-price snapshot.
type QuoteHandler func(tick wtdata.Tick)

// OrderQueueHandler, OrderDetailHandler and TransactionHandler receive
// the corresponding Level-2 event kinds (spec §6 Parser callbacks).
type OrderQueueHandler func(wtdata.OrderQueue)
type OrderDetailHandler func(wtdata.OrderDetail)
type TransactionHandler func(wtdata.Transaction)

// frame is the envelope every inbound message is decoded into before
// being dispatched by Type.
type frame struct {
	Type string `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Parser is a stub market-data adapter: it speaks just enough of a
// generic quote-push WebSocket protocol to exercise the engine's live
// path, decoding frames into wtdata.Tick/OrderQueue/OrderDetail/
// Transaction. It does not implement any particular exchange's framing.
type Parser struct {
	endpoint string
	logger   *log.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	cancel  context.CancelFunc
	codes   map[string]bool

	onQuote       QuoteHandler
	onOrderQueue  OrderQueueHandler
	onOrderDetail OrderDetailHandler
	onTransaction TransactionHandler
}

// NewParser builds a Parser that will dial endpoint on Connect.
func NewParser(endpoint string, logger *log.Logger) *Parser {
	return &Parser{endpoint: endpoint, logger: logger, codes: make(map[string]bool)}
}

// Init registers the callback set (spec "init"). Safe to call once
// before Connect.
func (p *Parser) Init(onQuote QuoteHandler, onOrderQueue OrderQueueHandler, onOrderDetail OrderDetailHandler, onTransaction TransactionHandler) {
	p.onQuote = onQuote
	p.onOrderQueue = onOrderQueue
	p.onOrderDetail = onOrderDetail
	p.onTransaction = onTransaction
}

// Connect dials the WebSocket endpoint and starts the read loop.
func (p *Parser) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.Dial(p.endpoint, nil)
	if err != nil {
		return fmt.Errorf("live: connect %s: %w", p.endpoint, err)
	}
	runCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.conn = conn
	p.cancel = cancel
	p.mu.Unlock()

	go p.readLoop(runCtx)
	return nil
}

// Subscribe requests quote/L2 updates for codes (spec
// "subscribe(code_set)"). Idempotent: codes already subscribed are
// re-sent but not duplicated in the local set.
func (p *Parser) Subscribe(codes []string) error {
	p.mu.Lock()
	conn := p.conn
	for _, c := range codes {
		p.codes[c] = true
	}
	p.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("live: subscribe before connect")
	}
	msg := struct {
		Action string   `json:"action"`
		Codes  []string `json:"codes"`
	}{Action: "subscribe", Codes: codes}
	return conn.WriteJSON(msg)
}

func (p *Parser) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		var f frame
		if err := p.conn.ReadJSON(&f); err != nil {
			p.logger.Printf("live: parser read: %v", err)
			return
		}
		p.dispatch(f)
	}
}

func (p *Parser) dispatch(f frame) {
	switch f.Type {
	case "quote":
		var t wtdata.Tick
		if err := json.Unmarshal(f.Data, &t); err != nil {
			p.logger.Printf("live: decode quote: %v", err)
			return
		}
		if p.onQuote != nil {
			p.onQuote(t)
		}
	case "order_queue":
		var q wtdata.OrderQueue
		if err := json.Unmarshal(f.Data, &q); err != nil {
			p.logger.Printf("live: decode order_queue: %v", err)
			return
		}
		if p.onOrderQueue != nil {
			p.onOrderQueue(q)
		}
	case "order_detail":
		var d wtdata.OrderDetail
		if err := json.Unmarshal(f.Data, &d); err != nil {
			p.logger.Printf("live: decode order_detail: %v", err)
			return
		}
		if p.onOrderDetail != nil {
			p.onOrderDetail(d)
		}
	case "transaction":
		var tx wtdata.Transaction
		if err := json.Unmarshal(f.Data, &tx); err != nil {
			p.logger.Printf("live: decode transaction: %v", err)
			return
		}
		if p.onTransaction != nil {
			p.onTransaction(tx)
		}
	default:
		p.logger.Printf("live: parser unknown frame type %q", f.Type)
	}
}

// Disconnect stops the read loop and closes the socket.
func (p *Parser) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// Release drops all subscription state. Called after Disconnect when the
// Parser is being retired for good.
func (p *Parser) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codes = make(map[string]bool)
}
