package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/triviaworks/livequiz/internal/rpc"
)

const (
	// Uploads travel inline as base64 data URLs, so the read limit is
	// well above the default 32KB.
	wsReadLimit = 16 << 20

	wsWriteTimeout = 5 * time.Second
	wsOutboxSize   = 64
)

// session is one websocket connection. All outgoing traffic, RPC
// responses and room broadcasts alike, funnels through the outbox so a
// single writer goroutine owns the connection.
type session struct {
	id     string
	app    *app
	outbox chan []byte
	done   chan struct{}
}

func (s *session) ID() string { return s.id }

// Enqueue hands data to the writer goroutine. It never blocks: a full
// outbox means the client is too slow to keep, and the room router
// evicts members whose Enqueue fails.
func (s *session) Enqueue(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.outbox <- data:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

func (s *session) Join(room string) {
	s.app.rooms.Join(s, room)
}

func (s *session) InRoom(room string) bool {
	return s.app.rooms.InRoom(s.id, room)
}

func (s *session) Deliver(action rpc.Action) {
	data, err := json.Marshal(action)
	if err != nil {
		s.app.logger.Error("encoding action failed", "type", action.Type, "error", err)
		return
	}
	s.Enqueue(data)
}

func handleWS(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			a.logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(wsReadLimit)

		ctx := r.Context()
		callCtx := context.WithoutCancel(ctx)
		sess := &session{
			id:     uuid.NewString(),
			app:    a,
			outbox: make(chan []byte, wsOutboxSize),
			done:   make(chan struct{}),
		}
		defer a.rooms.LeaveAll(sess.id)

		go writeLoop(ctx, conn, sess)

		a.logger.Debug("session connected", "session_id", sess.id)
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				a.logger.Debug("session closed", "session_id", sess.id, "error", err)
				return
			}

			var req rpc.Request
			if err := json.Unmarshal(data, &req); err != nil || req.Method == "" {
				a.logger.Warn("discarding malformed frame", "session_id", sess.id)
				continue
			}

			// Each call runs in its own goroutine so a slow handler
			// does not stall the read loop or other calls on the same
			// connection. The call context is detached from the
			// connection: a disconnect must not cancel a handler
			// between its writes and leave partial state behind. The
			// response enqueue just goes nowhere.
			go func() {
				resp := a.mux.Dispatch(callCtx, sess, req)
				data, err := json.Marshal(resp)
				if err != nil {
					a.logger.Error("encoding response failed", "method", req.Method, "error", err)
					return
				}
				sess.Enqueue(data)
			}()
		}
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, sess *session) {
	defer close(sess.done)
	for {
		select {
		case data := <-sess.outbox:
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
