package actuate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"brigade/internal/kitchen"

	"github.com/gorilla/websocket"
)

// Gateway forwards action records to a robot bridge over a websocket and
// waits for an acknowledgement per command. One command is in flight at a
// time; the kitchen core is step-synchronous so this is not a bottleneck.
type Gateway struct {
	url  string
	mu   sync.Mutex
	conn *websocket.Conn
}

// command is the wire format sent to the robot bridge
type command struct {
	Type   string               `json:"type"`
	Record kitchen.ActionRecord `json:"record"`
}

// ack is the bridge's reply to a command
type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewGateway dials the robot bridge
func NewGateway(url string) (*Gateway, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial robot bridge %s: %w", url, err)
	}
	return &Gateway{url: url, conn: conn}, nil
}

// Perform implements the kitchen Actuator contract. The command is
// retried once on transport failure; the bridge treats commands as
// idempotent per (step, agent) pair.
func (g *Gateway) Perform(ctx context.Context, record kitchen.ActionRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	reply, err := g.send(ctx, record)
	if err != nil {
		log.Printf("robot bridge transport error, reconnecting once: %v", err)
		if err := g.reconnect(); err != nil {
			return err
		}
		reply, err = g.send(ctx, record)
		if err != nil {
			return err
		}
	}
	if !reply.OK {
		return fmt.Errorf("robot bridge rejected action: %s", reply.Error)
	}
	return nil
}

// send writes one command and reads its acknowledgement, bounded by the
// context deadline
func (g *Gateway) send(ctx context.Context, record kitchen.ActionRecord) (*ack, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}

	payload, err := json.Marshal(command{Type: "action", Record: record})
	if err != nil {
		return nil, err
	}

	g.conn.SetWriteDeadline(deadline)
	if err := g.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return nil, err
	}

	g.conn.SetReadDeadline(deadline)
	_, message, err := g.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var reply ack
	if err := json.Unmarshal(message, &reply); err != nil {
		return nil, fmt.Errorf("malformed ack from robot bridge: %w", err)
	}
	return &reply, nil
}

// reconnect re-dials the bridge after a transport failure
func (g *Gateway) reconnect() error {
	g.conn.Close()
	conn, _, err := websocket.DefaultDialer.Dial(g.url, nil)
	if err != nil {
		return fmt.Errorf("redial robot bridge %s: %w", g.url, err)
	}
	g.conn = conn
	return nil
}

// Close shuts the bridge connection down
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conn.WriteMessage(websocket.CloseMessage, []byte{})
	return g.conn.Close()
}
