package clients

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const ledgerHandshakeTimeout = 15 * time.Second

// LedgerConn is the single long-lived connection to the destination ledger
// network. The protocol is request/response JSON messages correlated by id
// over a persistent websocket. One request is in flight at a time; that is
// all the strictly sequential settlement flow needs.
type LedgerConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	nextID int64
}

// DialLedger opens the connection. The caller owns it and must Close it
// once both legs complete or any later stage fails.
func DialLedger(ctx context.Context, url string) (*LedgerConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: ledgerHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial ledger %s", url)
	}
	return &LedgerConn{conn: conn}, nil
}

type ledgerEnvelope struct {
	ID           int64           `json:"id"`
	Status       string          `json:"status"`
	Type         string          `json:"type"`
	Result       json.RawMessage `json:"result"`
	ErrorMessage string          `json:"error_message"`
	ErrorCode    string          `json:"error"`
}

// Call sends one command and blocks until its response arrives. Unsolicited
// ledger stream messages received in between are discarded.
func (c *LedgerConn) Call(ctx context.Context, command string, params map[string]any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	req := make(map[string]any, len(params)+2)
	for k, v := range params {
		req[k] = v
	}
	req["id"] = id
	req["command"] = command

	if err := c.conn.WriteJSON(req); err != nil {
		return nil, errors.Wrapf(err, "send %s", command)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, errors.Wrapf(err, "read %s response", command)
		}

		var envelope ledgerEnvelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, errors.Wrapf(err, "malformed %s response", command)
		}
		if envelope.Type != "" && envelope.Type != "response" {
			continue
		}
		if envelope.ID != id {
			continue
		}
		if envelope.Status != "success" {
			msg := envelope.ErrorMessage
			if msg == "" {
				msg = envelope.ErrorCode
			}
			return nil, errors.Errorf("%s failed: %s", command, msg)
		}
		return envelope.Result, nil
	}
}

// Close terminates the websocket connection.
func (c *LedgerConn) Close() error {
	return c.conn.Close()
}
