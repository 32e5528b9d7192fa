// Package http pushes topic events to websocket clients. Each connection owns one subscription;
// a slow client loses its oldest events and sees the running drop count on every message.
package http

import (
	stdhttp "net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"satyanetra/internal/core/pubsub"
	"satyanetra/internal/platform/logger"

	"github.com/gorilla/websocket"
)

const (
	defaultWriteWait = 10 * time.Second
	defaultPongWait  = 60 * time.Second
	// clients only send control frames
	maxReadBytes = 512
)

// Options tunes the streams
type Options struct {
	WriteWait time.Duration
	PongWait  time.Duration
	// AllowedOrigins lists browser origins; "*" allows any, empty keeps the same-host check
	AllowedOrigins []string
}

// Message is one pushed frame
type Message[T any] struct {
	Type    string `json:"type"`
	Data    T      `json:"data"`
	Dropped uint64 `json:"dropped,omitempty"`
}

// Streamer holds the upgrader and the shutdown signal shared by every stream
type Streamer struct {
	o      Options
	up     websocket.Upgrader
	quit   chan struct{}
	once   sync.Once
	active atomic.Int64
}

// NewStreamer builds a Streamer
func NewStreamer(o Options) *Streamer {
	if o.WriteWait <= 0 {
		o.WriteWait = defaultWriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = defaultPongWait
	}
	s := &Streamer{o: o, quit: make(chan struct{})}
	s.up = websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096}
	if len(o.AllowedOrigins) > 0 {
		s.up.CheckOrigin = func(r *stdhttp.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(o.AllowedOrigins, "*") || slices.Contains(o.AllowedOrigins, origin)
		}
	}
	return s
}

// Active is the number of open connections
func (s *Streamer) Active() int64 { return s.active.Load() }

// Close sends going-away to every connection. Safe to call more than once
func (s *Streamer) Close() { s.once.Do(func() { close(s.quit) }) }

// Handler serves one topic. subscribe is called once per connection after the upgrade
func Handler[T any](s *Streamer, kind string, subscribe func() *pubsub.Subscription[T]) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		log := logger.C(r.Context()).With().Str("stream", kind).Logger()
		conn, err := s.up.Upgrade(w, r, nil)
		if err != nil {
			// the upgrader has already replied
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}
		sub := subscribe()
		s.active.Add(1)
		defer func() {
			s.active.Add(-1)
			sub.Unsubscribe()
			_ = conn.Close()
		}()
		log.Info().Msg("stream opened")

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			conn.SetReadLimit(maxReadBytes)
			_ = conn.SetReadDeadline(time.Now().Add(s.o.PongWait))
			conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(s.o.PongWait)) })
			for {
				if _, _, err := conn.NextReader(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
						log.Warn().Err(err).Msg("stream closed unexpectedly")
					}
					return
				}
			}
		}()

		closeWith := func(code int, text string) {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(s.o.WriteWait))
		}
		ping := time.NewTicker(s.o.PongWait * 9 / 10)
		defer ping.Stop()
		for {
			select {
			case <-gone:
				log.Info().Uint64("dropped", sub.Dropped()).Msg("stream closed by client")
				return
			case <-s.quit:
				closeWith(websocket.CloseGoingAway, "server shutting down")
				return
			case ev, ok := <-sub.C():
				if !ok {
					closeWith(websocket.CloseNormalClosure, "stream ended")
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(s.o.WriteWait))
				if err := conn.WriteJSON(Message[T]{Type: kind, Data: ev, Dropped: sub.Dropped()}); err != nil {
					log.Debug().Err(err).Msg("stream write failed")
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.o.WriteWait)); err != nil {
					return
				}
			}
		}
	}
}
