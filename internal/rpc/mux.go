package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Method describes one RPC: its name, the field contract its parameters
// must satisfy, and the fallback result a caller resolves to when the
// call times out.
type Method[P, R any] struct {
	Name     string
	Params   ObjectValidator
	Fallback R
}

// Session is the handler's view of the connection a call arrived on.
type Session interface {
	ID() string
	Join(room string)
	InRoom(room string) bool
	// Deliver pushes an action to this connection only.
	Deliver(action Action)
}

type handlerFunc func(ctx context.Context, sess Session, params json.RawMessage) (any, error)

// Mux dispatches incoming requests to registered method handlers.
type Mux struct {
	logger   *slog.Logger
	handlers map[string]handlerFunc
}

func NewMux(logger *slog.Logger) *Mux {
	return &Mux{
		logger:   logger,
		handlers: make(map[string]handlerFunc),
	}
}

func (m *Mux) handle(name string, h handlerFunc) {
	if _, dup := m.handlers[name]; dup {
		panic(fmt.Sprintf("rpc: multiple handlers registered for method %s", name))
	}
	m.handlers[name] = h
}

// Register binds a typed handler to a method. Registering the same method
// twice is a configuration error and panics.
func Register[P, R any](m *Mux, method Method[P, R], h func(ctx context.Context, sess Session, params P) (R, error)) {
	m.handle(method.Name, func(ctx context.Context, sess Session, raw json.RawMessage) (any, error) {
		if err := method.Params.Check(raw); err != nil {
			return nil, err
		}
		var params P
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &FieldError{Field: "params", Reason: "malformed"}
		}
		return h(ctx, sess, params)
	})
}

// Dispatch validates and executes one request, always producing a response
// tagged with the request token. Handler and validation errors become the
// response error string; they never terminate the connection.
func (m *Mux) Dispatch(ctx context.Context, sess Session, req Request) Response {
	h, ok := m.handlers[req.Method]
	if !ok {
		return Response{Token: req.Token, Error: "no handler registered for method"}
	}

	result, err := h(ctx, sess, req.Params)
	if err != nil {
		if fe, ok := err.(*FieldError); ok {
			m.logger.Warn("rpc validation failed", "method", req.Method, "field", fe.Field, "reason", fe.Reason)
		}
		return Response{Token: req.Token, Error: err.Error()}
	}

	data, err := json.Marshal(result)
	if err != nil {
		m.logger.Error("rpc result marshal failed", "method", req.Method, "error", err)
		return Response{Token: req.Token, Error: "internal error"}
	}
	return Response{Token: req.Token, Result: data}
}
