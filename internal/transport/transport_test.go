package transport

import (
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		fails int
		want  time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second}, // 32s capped
		{7, 30 * time.Second},
		{100, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffDelay(tt.fails); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.fails, got, tt.want)
		}
	}
}

func TestStatusTracker(t *testing.T) {
	var tr statusTracker

	if s := tr.Status(); s.Connected || s.Reconnecting {
		t.Errorf("zero status = %+v, want disconnected", s)
	}

	got := tr.set(func(s *Status) {
		s.Connected = false
		s.Reconnecting = true
		s.RetryCount = 3
	})
	if !got.Reconnecting || got.RetryCount != 3 {
		t.Errorf("set returned %+v", got)
	}
	if s := tr.Status(); s != got {
		t.Errorf("Status() = %+v, want %+v", s, got)
	}
}

func TestWebSocketConn_SendInputWhileDisconnected(t *testing.T) {
	w := NewWebSocket("ws://localhost:0/stream", "", Handler{})
	if err := w.SendInput([]byte("ls\n")); err == nil {
		t.Error("SendInput succeeded without a connection")
	}
}

func TestWebSocketConn_SendResizeWhileDisconnected(t *testing.T) {
	w := NewWebSocket("ws://localhost:0/stream", "", Handler{})
	if err := w.SendResize(80, 24); err == nil {
		t.Error("SendResize succeeded without a connection")
	}
}

func TestWebSocketConn_DisconnectWithoutConnect(t *testing.T) {
	w := NewWebSocket("ws://localhost:0/stream", "", Handler{})
	if err := w.Disconnect(); err != nil {
		t.Errorf("Disconnect before Connect returned %v", err)
	}
}
