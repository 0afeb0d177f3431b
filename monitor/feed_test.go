package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/milk9111/scenechanger/transition"
	"golang.org/x/time/rate"
)

func dial(t *testing.T, ctx context.Context, f *Feed, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for f.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %q: %v", data, err)
	}
	return msg
}

func TestFeedBroadcastsEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := transition.NewBus()
	f := NewFeed(bus,
		WithRate(rate.Every(time.Hour), 1),
		WithTransitionID(func() string { return "t-1" }),
	)
	srv := httptest.NewServer(f)
	defer srv.Close()
	defer f.Close()

	conn := dial(t, ctx, f, srv)
	defer conn.Close(websocket.StatusNormalClosure, "")

	bus.EmitStartLoading()
	bus.EmitProgress(0.1)
	bus.EmitProgress(0.2)
	bus.EmitProgress(0.3)
	bus.EmitFinishedLoading()

	want := []Message{
		{Type: "start", ID: "t-1"},
		{Type: "progress", Value: 0.1, ID: "t-1"},
		{Type: "finish", Value: 1, ID: "t-1"},
	}
	for i, w := range want {
		if got := read(t, ctx, conn); got != w {
			t.Fatalf("message %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestFeedDropsClients(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bus := transition.NewBus()
	f := NewFeed(bus)
	srv := httptest.NewServer(f)
	defer srv.Close()

	conn := dial(t, ctx, f, srv)
	conn.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for f.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("closed client was not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.Close()
	for _, kind := range []transition.EventKind{transition.StartLoading, transition.FinishedLoading, transition.ProgressUpdated} {
		if n := bus.Subscribers(kind); n != 0 {
			t.Fatalf("%s still has %d subscribers after Close", kind, n)
		}
	}
	bus.EmitStartLoading()
}

func TestFeedOriginPatterns(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		wantOK   bool
	}{
		{name: "same_origin_only", wantOK: false},
		{name: "allowed_pattern", patterns: []string{"*.example.com"}, wantOK: true},
		{name: "other_pattern", patterns: []string{"localhost:*"}, wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			f := NewFeed(transition.NewBus(), WithOriginPatterns(tc.patterns...))
			srv := httptest.NewServer(f)
			defer srv.Close()
			defer f.Close()

			opts := &websocket.DialOptions{HTTPHeader: http.Header{"Origin": {"https://tools.example.com"}}}
			conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), opts)
			if tc.wantOK {
				if err != nil {
					t.Fatalf("dial: %v", err)
				}
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err == nil {
				conn.Close(websocket.StatusNormalClosure, "")
				t.Fatalf("cross-origin client accepted with patterns %v", tc.patterns)
			}
		})
	}
}
