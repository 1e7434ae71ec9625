// Package provider implements JSON-RPC transports for chain endpoints.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Provider is a single JSON-RPC endpoint connection. A monitor holds exactly
// one provider between start and stop.
type Provider interface {
	// Call makes a JSON-RPC request and returns the raw result. A JSON null
	// result is returned as the literal "null" message, not an error.
	Call(ctx context.Context, method string, params []any) (json.RawMessage, error)
	Name() string
	Endpoint() string
	Close() error
}

// HealthStatus tracks recent call outcomes for a provider.
type HealthStatus struct {
	Available     bool
	ErrorRate     float64
	Latency       time.Duration
	LastSuccessAt time.Time
	LastFailureAt time.Time
}

// rpcError is a JSON-RPC error object returned by the node.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Dial connects to a raw endpoint URL, choosing the transport from the URL
// scheme. Websocket endpoints are dialed eagerly so a dead endpoint fails
// here rather than on first call.
func Dial(ctx context.Context, name, rawurl string, timeout time.Duration) (Provider, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewHTTPProvider(name, rawurl, timeout), nil
	case "ws", "wss":
		return DialWS(ctx, name, rawurl, timeout)
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
}
