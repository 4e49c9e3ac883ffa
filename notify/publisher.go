// Package notify implements a best-effort ZeroMQ PUB event broadcaster
// (spec §3 DOMAIN STACK, EventNotifier-equivalent), grounded on the
// teacher's pebbe/zmq4 socket lifecycle in
// cmd/trade-executor/main.go (create socket, bind endpoint, JSON
// payloads), adapted from its PULL/PUSH order pipe to a PUB topic feed
// for live dashboards. Publish failures are logged and never fatal —
// this feed is never required for replay correctness.
package notify

import (
	"encoding/json"
	"log"

	"github.com/pebbe/zmq4"
)

// Event is one envelope published on the bus; Topic lets subscribers
// filter (e.g. "trade", "order", "entrust", "fund").
type Event struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

// Publisher wraps a ZMQ PUB socket. A nil *Publisher is valid and every
// method becomes a no-op, so callers can wire notify in only when
// configured (spec "never required, always best-effort").
type Publisher struct {
	socket *zmq4.Socket
	logger *log.Logger
}

// NewPublisher binds a PUB socket at endpoint (e.g. "tcp://*:5556").
func NewPublisher(endpoint string, logger *log.Logger) (*Publisher, error) {
	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, err
	}
	if err := socket.Bind(endpoint); err != nil {
		socket.Close()
		return nil, err
	}
	return &Publisher{socket: socket, logger: logger}, nil
}

// Publish sends one event under topic, best-effort: marshal or send
// errors are logged, never returned, so a notify outage can never stall
// or fail a replay.
func (p *Publisher) Publish(topic string, data interface{}) {
	if p == nil || p.socket == nil {
		return
	}
	payload, err := json.Marshal(Event{Topic: topic, Data: data})
	if err != nil {
		p.logger.Printf("notify: marshal %s event: %v", topic, err)
		return
	}
	if _, err := p.socket.SendMessage(topic, payload); err != nil {
		p.logger.Printf("notify: publish %s event: %v", topic, err)
	}
}

// Close releases the underlying socket.
func (p *Publisher) Close() error {
	if p == nil || p.socket == nil {
		return nil
	}
	return p.socket.Close()
}
