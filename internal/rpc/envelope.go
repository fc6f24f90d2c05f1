// Package rpc implements the request/response channel used on top of a
// persistent connection: correlated calls, parameter validation, method
// dispatch on the receiving side and a pending-call table with timeout
// fallback on the calling side.
package rpc

import "encoding/json"

// Request is the wire shape of a call. Token is a connection-unique
// correlation value chosen by the caller.
type Request struct {
	Method string          `json:"method"`
	Token  string          `json:"token"`
	Params json.RawMessage `json:"params"`
}

// Response carries either a result or an error back to the caller,
// tagged with the request token.
type Response struct {
	Token  string          `json:"token"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Action is a server-initiated broadcast message, independent of any call.
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
