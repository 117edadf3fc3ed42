package transport

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ptyglass/ptyglass/internal/diag"
	"github.com/ptyglass/ptyglass/internal/tuilog"
)

const (
	baseReconnectDelay = 1 * time.Second
	maxReconnectDelay  = 30 * time.Second
)

// WebSocketConn streams terminal output from a WebSocket endpoint and
// writes input back over the same socket. On disconnect it redials with
// exponential backoff until Disconnect or context cancellation.
type WebSocketConn struct {
	statusTracker

	url     string
	token   string
	handler Handler

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Connection = (*WebSocketConn)(nil)

// NewWebSocket creates a connection to url. token, when non-empty, is
// sent as a Bearer Authorization header.
func NewWebSocket(url, token string, handler Handler) *WebSocketConn {
	return &WebSocketConn{url: url, token: token, handler: handler}
}

// Connect starts the read/reconnect loop.
func (w *WebSocketConn) Connect(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return errors.New("transport: already connected")
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop(ctx)
	return nil
}

// Disconnect stops the loop and closes the socket.
func (w *WebSocketConn) Disconnect() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	w.emit(w.set(func(s *Status) { *s = Status{} }))
	return nil
}

// SendInput writes input bytes to the remote terminal.
func (w *WebSocketConn) SendInput(data []byte) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return errors.New("transport: not connected")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageBinary, data)
}

// resizeMessage is the control frame announcing a new terminal size.
type resizeMessage struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

// SendResize announces the new terminal size to the remote side.
func (w *WebSocketConn) SendResize(cols, rows int) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return errors.New("transport: not connected")
	}
	msg, err := json.Marshal(resizeMessage{Type: "resize", Cols: cols, Rows: rows})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}

func (w *WebSocketConn) loop(ctx context.Context) {
	defer close(w.done)

	consecutiveFails := 0
	for {
		if ctx.Err() != nil {
			return
		}

		err := w.streamOnce(ctx, &consecutiveFails)
		if ctx.Err() != nil {
			return
		}

		consecutiveFails++
		if err != nil {
			tuilog.Log.Warn("terminal stream disconnected", "error", err, "failures", consecutiveFails)
			if w.handler.Error != nil {
				w.handler.Error(err)
			}
		}
		diag.ObserveReconnect()
		w.emit(w.set(func(s *Status) {
			s.Connected = false
			s.Reconnecting = true
			s.RetryCount = consecutiveFails
			s.Err = err
		}))

		select {
		case <-time.After(backoffDelay(consecutiveFails)):
		case <-ctx.Done():
			return
		}
	}
}

// streamOnce dials, then reads until the socket fails. A successful dial
// resets the failure counter so backoff starts fresh after a stable
// stretch.
func (w *WebSocketConn) streamOnce(ctx context.Context, consecutiveFails *int) error {
	opts := &websocket.DialOptions{}
	if w.token != "" {
		opts.HTTPHeader = http.Header{
			"Authorization": []string{"Bearer " + w.token},
		}
	}

	conn, _, err := websocket.Dial(ctx, w.url, opts)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.conn = nil
		w.mu.Unlock()
	}()

	*consecutiveFails = 0
	w.emit(w.set(func(s *Status) { *s = Status{Connected: true} }))
	tuilog.Log.Info("terminal stream connected", "url", w.url)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "client closing")
				return ctx.Err()
			}
			return err
		}
		diag.ObserveOutput(len(data))
		if w.handler.Output != nil {
			w.handler.Output(data)
		}
	}
}

func (w *WebSocketConn) emit(s Status) {
	if w.handler.StatusChanged != nil {
		w.handler.StatusChanged(s)
	}
}

// backoffDelay returns the reconnect delay after the given number of
// consecutive failures: base doubling per failure, capped.
func backoffDelay(consecutiveFails int) time.Duration {
	delay := time.Duration(float64(baseReconnectDelay) * math.Pow(2, float64(min(consecutiveFails-1, 5))))
	if delay > maxReconnectDelay {
		delay = maxReconnectDelay
	}
	return delay
}
