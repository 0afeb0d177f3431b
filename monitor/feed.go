// Package monitor streams transition events to websocket clients.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/milk9111/scenechanger/transition"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Message is the JSON structure sent to clients.
type Message struct {
	Type  string  `json:"t"` // start, progress, finish
	Value float64 `json:"v"`
	ID    string  `json:"id,omitempty"`
}

const (
	DefaultRate  = rate.Limit(20)
	DefaultBurst = 1
	sendBuffer   = 16
)

type Option func(*Feed)

// WithRate throttles progress messages. Start and finish are never
// throttled.
func WithRate(limit rate.Limit, burst int) Option {
	return func(f *Feed) {
		f.limiter = rate.NewLimiter(limit, burst)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *Feed) {
		f.log = l
	}
}

// WithTransitionID sets the source of the id attached to each message,
// usually Changer.TransitionID.
func WithTransitionID(fn func() string) Option {
	return func(f *Feed) {
		f.transitionID = fn
	}
}

// WithOriginPatterns allows cross-origin browser clients matching patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(f *Feed) {
		f.origins = patterns
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Feed is an http.Handler that upgrades requests to websockets and
// broadcasts every transition event published on its bus.
type Feed struct {
	mu      sync.RWMutex
	clients map[*client]struct{}

	limiter      *rate.Limiter
	transitionID func() string
	origins      []string
	log          zerolog.Logger
	subs         []*transition.Subscription
}

func NewFeed(bus *transition.Bus, opts ...Option) *Feed {
	f := &Feed{
		clients: make(map[*client]struct{}),
		limiter: rate.NewLimiter(DefaultRate, DefaultBurst),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.subs = []*transition.Subscription{
		bus.OnStartLoading(func() { f.broadcast(Message{Type: "start"}) }),
		bus.OnProgress(func(v float64) {
			if f.limiter.Allow() {
				f.broadcast(Message{Type: "progress", Value: v})
			}
		}),
		bus.OnFinishedLoading(func() { f.broadcast(Message{Type: "finish", Value: 1}) }),
	}
	return f
}

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: f.origins})
	if err != nil {
		f.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket accept failed")
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	f.register(c)
	defer f.unregister(c)

	f.log.Debug().Str("remote", r.RemoteAddr).Msg("monitor client connected")
	ctx := conn.CloseRead(r.Context())
	c.writePump(ctx)
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// Clients returns the number of connected clients.
func (f *Feed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Close unsubscribes from the bus and disconnects every client.
func (f *Feed) Close() {
	for _, sub := range f.subs {
		sub.Unsubscribe()
	}
	f.subs = nil

	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		close(c.send)
		delete(f.clients, c)
	}
}

func (f *Feed) register(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[c] = struct{}{}
}

func (f *Feed) unregister(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; ok {
		close(c.send)
		delete(f.clients, c)
	}
}

// broadcast is non-blocking: a client whose buffer is full misses msg.
func (f *Feed) broadcast(msg Message) {
	if f.transitionID != nil {
		msg.ID = f.transitionID()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		f.log.Error().Err(err).Msg("marshal monitor message")
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// Serve runs an HTTP server for h on addr until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("monitor listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
