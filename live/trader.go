package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"quantreplay/wtdata"
)

// ChannelHandler, EntrustHandler, OrderHandler, TradeHandler,
// PositionHandler and AccountHandler are the Trader callback set (spec
// §6: "on_channel_ready/lost, on_entrust, on_order, on_trade,
// on_position, on_account").
type ChannelHandler func()
type EntrustHandler func(localID uint64, success bool, message string)
type OrderHandler func(localID uint64, code string, isBuy bool, leftover, price float64, canceled bool)
type TradeHandler func(localID uint64, code string, isBuy bool, vol, price float64)
type PositionHandler func(pos wtdata.PosInfo)
type AccountHandler func(fund wtdata.FundInfo)

// Trader is a stub trade-channel adapter. It models the
// connect/login/channel-ready handshake and order_insert/order_action
// request shapes a real broker gateway would use, over the same
// WebSocket transport Parser uses, without implementing any particular
// broker's wire protocol (live order routing is out of scope).
type Trader struct {
	endpoint string
	logger   *log.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	nextID uint64

	onChannelReady ChannelHandler
	onChannelLost  ChannelHandler
	onEntrust      EntrustHandler
	onOrder        OrderHandler
	onTrade        TradeHandler
	onPosition     PositionHandler
	onAccount      AccountHandler
}

// NewTrader builds a Trader that will dial endpoint on Connect.
func NewTrader(endpoint string, logger *log.Logger) *Trader {
	return &Trader{endpoint: endpoint, logger: logger}
}

// Init registers the callback set.
func (t *Trader) Init(onReady, onLost ChannelHandler, onEntrust EntrustHandler, onOrder OrderHandler, onTrade TradeHandler, onPosition PositionHandler, onAccount AccountHandler) {
	t.onChannelReady = onReady
	t.onChannelLost = onLost
	t.onEntrust = onEntrust
	t.onOrder = onOrder
	t.onTrade = onTrade
	t.onPosition = onPosition
	t.onAccount = onAccount
}

// Connect dials the trade channel and starts the read loop.
func (t *Trader) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.Dial(t.endpoint, nil)
	if err != nil {
		return fmt.Errorf("live: trader connect %s: %w", t.endpoint, err)
	}
	runCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	t.conn = conn
	t.cancel = cancel
	t.mu.Unlock()

	go t.readLoop(runCtx)
	return nil
}

// Login authenticates the channel. On success the adapter fires
// on_channel_ready (spec callback); a read-loop disconnect fires
// on_channel_lost.
func (t *Trader) Login(account, credential string) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("live: login before connect")
	}
	msg := struct {
		Action     string `json:"action"`
		Account    string `json:"account"`
		Credential string `json:"credential"`
	}{Action: "login", Account: account, Credential: credential}
	return conn.WriteJSON(msg)
}

func (t *Trader) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		var f frame
		if err := t.conn.ReadJSON(&f); err != nil {
			t.logger.Printf("live: trader read: %v", err)
			if t.onChannelLost != nil {
				t.onChannelLost()
			}
			return
		}
		t.dispatch(f)
	}
}

func (t *Trader) dispatch(f frame) {
	switch f.Type {
	case "channel_ready":
		if t.onChannelReady != nil {
			t.onChannelReady()
		}
	case "entrust":
		var e struct {
			LocalID uint64 `json:"local_id"`
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(f.Data, &e); err != nil {
			t.logger.Printf("live: decode entrust: %v", err)
			return
		}
		if t.onEntrust != nil {
			t.onEntrust(e.LocalID, e.Success, e.Message)
		}
	case "order":
		var o struct {
			LocalID  uint64  `json:"local_id"`
			Code     string  `json:"code"`
			Buy      bool    `json:"buy"`
			Leftover float64 `json:"leftover"`
			Price    float64 `json:"price"`
			Canceled bool    `json:"canceled"`
		}
		if err := json.Unmarshal(f.Data, &o); err != nil {
			t.logger.Printf("live: decode order: %v", err)
			return
		}
		if t.onOrder != nil {
			t.onOrder(o.LocalID, o.Code, o.Buy, o.Leftover, o.Price, o.Canceled)
		}
	case "trade":
		var tr struct {
			LocalID uint64  `json:"local_id"`
			Code    string  `json:"code"`
			Buy     bool    `json:"buy"`
			Volume  float64 `json:"volume"`
			Price   float64 `json:"price"`
		}
		if err := json.Unmarshal(f.Data, &tr); err != nil {
			t.logger.Printf("live: decode trade: %v", err)
			return
		}
		if t.onTrade != nil {
			t.onTrade(tr.LocalID, tr.Code, tr.Buy, tr.Volume, tr.Price)
		}
	case "position":
		var pos wtdata.PosInfo
		if err := json.Unmarshal(f.Data, &pos); err != nil {
			t.logger.Printf("live: decode position: %v", err)
			return
		}
		if t.onPosition != nil {
			t.onPosition(pos)
		}
	case "account":
		var fund wtdata.FundInfo
		if err := json.Unmarshal(f.Data, &fund); err != nil {
			t.logger.Printf("live: decode account: %v", err)
			return
		}
		if t.onAccount != nil {
			t.onAccount(fund)
		}
	default:
		t.logger.Printf("live: trader unknown frame type %q", f.Type)
	}
}

// QryAccount, QryPositions, QryOrders and QryTrades send query requests;
// results arrive asynchronously via on_account/on_position/on_order/
// on_trade, matching the teacher's fire-and-callback style rather than a
// synchronous request/response round trip.
func (t *Trader) QryAccount() error   { return t.sendQuery("qry_account") }
func (t *Trader) QryPositions() error { return t.sendQuery("qry_positions") }
func (t *Trader) QryOrders() error    { return t.sendQuery("qry_orders") }
func (t *Trader) QryTrades() error    { return t.sendQuery("qry_trades") }

func (t *Trader) sendQuery(action string) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("live: %s before connect", action)
	}
	return conn.WriteJSON(struct {
		Action string `json:"action"`
	}{Action: action})
}

// OrderInsert submits a new order, returning the local ID the caller
// should track entrust/order/trade callbacks against.
func (t *Trader) OrderInsert(code string, isBuy bool, price, qty float64) (uint64, error) {
	t.mu.Lock()
	conn := t.conn
	id := atomic.AddUint64(&t.nextID, 1)
	t.mu.Unlock()
	if conn == nil {
		return 0, fmt.Errorf("live: order_insert before connect")
	}
	msg := struct {
		Action  string  `json:"action"`
		LocalID uint64  `json:"local_id"`
		Code    string  `json:"code"`
		Buy     bool    `json:"buy"`
		Price   float64 `json:"price"`
		Qty     float64 `json:"qty"`
	}{Action: "order_insert", LocalID: id, Code: code, Buy: isBuy, Price: price, Qty: qty}
	if err := conn.WriteJSON(msg); err != nil {
		return 0, err
	}
	return id, nil
}

// OrderAction cancels (or otherwise acts on) a resting order by local ID.
func (t *Trader) OrderAction(localID uint64) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("live: order_action before connect")
	}
	msg := struct {
		Action  string `json:"action"`
		LocalID uint64 `json:"local_id"`
	}{Action: "order_action", LocalID: localID}
	return conn.WriteJSON(msg)
}

// Disconnect closes the trade channel.
func (t *Trader) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
