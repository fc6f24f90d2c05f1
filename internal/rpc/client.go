package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCallTimeout bounds how long a caller waits for a response before
// resolving to the method fallback.
const DefaultCallTimeout = 5 * time.Second

// Client is the calling side of the channel: it correlates requests with
// responses through a pending table keyed by token. Concurrent calls are
// independent and may resolve out of order.
type Client struct {
	send    func(Request) error
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan Response
}

// NewClient builds a client that submits requests through send. The send
// function must be safe for concurrent use.
func NewClient(send func(Request) error) *Client {
	return &Client{
		send:    send,
		timeout: DefaultCallTimeout,
		pending: make(map[string]chan Response),
	}
}

// SetTimeout overrides the per-call timeout. Intended for tests.
func (c *Client) SetTimeout(d time.Duration) { c.timeout = d }

// Resolve feeds an incoming response to the waiting call, if any.
// Responses for unknown tokens are dropped.
func (c *Client) Resolve(resp Response) {
	c.mu.Lock()
	ch, ok := c.pending[resp.Token]
	if ok {
		delete(c.pending, resp.Token)
	}
	c.mu.Unlock()
	if ok {
		ch <- resp
	}
}

// HasPending reports whether a call with the given token is still waiting.
func (c *Client) HasPending(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[token]
	return ok
}

func (c *Client) register(token string) chan Response {
	ch := make(chan Response, 1)
	c.mu.Lock()
	c.pending[token] = ch
	c.mu.Unlock()
	return ch
}

func (c *Client) forget(token string) {
	c.mu.Lock()
	delete(c.pending, token)
	c.mu.Unlock()
}

// Call performs one request and waits for its response. A timeout is not
// an error: the call resolves to the method's fallback value and the
// pending entry is cleared.
func Call[P, R any](ctx context.Context, c *Client, method Method[P, R], params P) (R, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return method.Fallback, err
	}

	token := uuid.NewString()
	ch := c.register(token)

	if err := c.send(Request{Method: method.Name, Token: token, Params: data}); err != nil {
		c.forget(token)
		return method.Fallback, err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return method.Fallback, errors.New(resp.Error)
		}
		var result R
		if err := json.Unmarshal(resp.Result, &result); err != nil {
			return method.Fallback, err
		}
		return result, nil
	case <-timer.C:
		c.forget(token)
		return method.Fallback, nil
	case <-ctx.Done():
		c.forget(token)
		return method.Fallback, ctx.Err()
	}
}
