package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSProvider implements Provider for JSON-RPC over a websocket connection.
// Requests are serialized over the single connection; ids match responses to
// callers.
type WSProvider struct {
	name     string
	endpoint string
	timeout  time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID uint64
	closed bool
}

// DialWS opens a websocket JSON-RPC connection. Dial failure is returned
// immediately so the caller can move on to the next endpoint.
func DialWS(ctx context.Context, name, endpoint string, timeout time.Duration) (*WSProvider, error) {
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	return &WSProvider{
		name:     name,
		endpoint: endpoint,
		timeout:  timeout,
		conn:     conn,
		nextID:   1,
	}, nil
}

// Call makes a single JSON-RPC call over the websocket.
func (p *WSProvider) Call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("websocket provider closed")
	}

	id := p.nextID
	p.nextID++

	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      id,
	}

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := p.conn.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set write deadline: %w", err)
	}
	if err := p.conn.WriteJSON(reqBody); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	if err := p.conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	// Drain frames until the response with our id shows up. Subscription
	// pushes and stale responses are skipped.
	for {
		var resp struct {
			ID     uint64          `json:"id"`
			Result json.RawMessage `json:"result"`
			Error  *rpcError       `json:"error"`
		}
		if err := p.conn.ReadJSON(&resp); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.ID != id {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}

// Name returns the provider's name.
func (p *WSProvider) Name() string {
	return p.name
}

// Endpoint returns the endpoint URL.
func (p *WSProvider) Endpoint() string {
	return p.endpoint
}

// Close shuts the websocket connection down.
func (p *WSProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Close()
}
