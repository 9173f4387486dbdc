// Package feed consumes the upstream trade stream, one websocket connection
// per symbol, and normalizes trade frames into ticks.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pairwatch-go/internal/ingest"
	"pairwatch-go/internal/market"
	"pairwatch-go/internal/metrics"
)

// State tracks where a consumer is in its connection lifecycle.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	Closed
	Errored
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

const (
	defaultReconnectDelay = 5 * time.Second
	readTimeout           = 30 * time.Second
	pingInterval          = 15 * time.Second
)

// tradeFrame is the subset of the upstream trade payload we consume. The
// ingest time and trade id fields are decoded only because encoding/json
// falls back to case-insensitive tag matching: without exact "E" and "t"
// tags those keys would collide with "e" and "T" and corrupt the frame.
type tradeFrame struct {
	Event      string `json:"e"`
	IngestTime int64  `json:"E"`
	EventTime  int64  `json:"T"`
	TradeID    int64  `json:"t"`
	Symbol     string `json:"s"`
	Price      string `json:"p"`
	Quantity   string `json:"q"`
}

// Consumer owns one symbol's stream: it dials, reads, normalizes, and
// retries forever with a fixed delay until its context is cancelled.
type Consumer struct {
	symbol         string
	baseURL        string
	queue          *ingest.Queue
	log            zerolog.Logger
	reconnectDelay time.Duration
	dial           func(ctx context.Context, url string) (*websocket.Conn, error)
	state          atomic.Int32
}

// Option configures Consumer construction parameters.
type Option func(*Consumer)

// WithReconnectDelay overrides the fixed delay between connection attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.reconnectDelay = d
		}
	}
}

// WithDialer overrides the websocket dial function (used in tests).
func WithDialer(dial func(ctx context.Context, url string) (*websocket.Conn, error)) Option {
	return func(c *Consumer) {
		if dial != nil {
			c.dial = dial
		}
	}
}

// NewConsumer builds a consumer for one symbol pushing into the ingest queue.
func NewConsumer(symbol, baseURL string, q *ingest.Queue, log zerolog.Logger, opts ...Option) *Consumer {
	c := &Consumer{
		symbol:         strings.ToLower(strings.TrimSpace(symbol)),
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		queue:          q,
		log:            log.With().Str("symbol", strings.ToUpper(symbol)).Logger(),
		reconnectDelay: defaultReconnectDelay,
	}
	c.dial = func(ctx context.Context, url string) (*websocket.Conn, error) {
		dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		return conn, err
	}
	c.state.Store(int32(Disconnected))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the consumer's current lifecycle state.
func (c *Consumer) State() State {
	return State(c.state.Load())
}

func (c *Consumer) setState(s State) {
	c.state.Store(int32(s))
}

// URL returns the stream endpoint for this consumer's symbol.
func (c *Consumer) URL() string {
	return fmt.Sprintf("%s/%s@trade", c.baseURL, c.symbol)
}

// Run drives the connection loop until ctx is cancelled. Every disconnect,
// clean or not, leads back to Connecting after the fixed delay: no backoff
// growth, no retry cap.
func (c *Consumer) Run(ctx context.Context) error {
	url := c.URL()
	for {
		if ctx.Err() != nil {
			c.setState(Disconnected)
			return ctx.Err()
		}
		c.setState(Connecting)
		err := c.consume(ctx, url)
		if ctx.Err() != nil {
			c.setState(Disconnected)
			return ctx.Err()
		}
		if err != nil {
			c.setState(Errored)
			c.log.Warn().Err(err).Msg("stream disconnected")
		} else {
			c.setState(Closed)
			c.log.Info().Msg("stream closed by peer")
		}

		c.setState(Reconnecting)
		metrics.Reconnects.WithLabelValues(strings.ToUpper(c.symbol)).Inc()
		c.log.Info().Dur("delay", c.reconnectDelay).Msg("reconnecting")
		select {
		case <-time.After(c.reconnectDelay):
		case <-ctx.Done():
			c.setState(Disconnected)
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, url string) error {
	conn, err := c.dial(ctx, url)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when the context is cancelled.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c.setState(Connected)
	c.log.Info().Str("url", url).Msg("connected trade stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		c.handleFrame(message)
	}
}

// handleFrame normalizes one inbound frame. Parse failures drop the frame
// and never stop the consumer; the queue push is the only side effect.
func (c *Consumer) handleFrame(message []byte) {
	tick, ok, err := parseTrade(message)
	if err != nil {
		metrics.FramesDropped.WithLabelValues(strings.ToUpper(c.symbol), "parse").Inc()
		c.log.Warn().Err(err).Msg("dropping malformed frame")
		return
	}
	if !ok {
		// Non-trade event: discard without side effect.
		return
	}
	c.queue.Push(tick)
	metrics.TicksTotal.WithLabelValues(tick.Symbol).Inc()
}

// parseTrade decodes a frame into a tick. ok is false for frames whose event
// type is not "trade"; err reports malformed or incomplete trade frames.
func parseTrade(message []byte) (market.Tick, bool, error) {
	var frame tradeFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return market.Tick{}, false, fmt.Errorf("decode frame: %w", err)
	}
	if frame.Event != "trade" {
		return market.Tick{}, false, nil
	}
	if frame.Symbol == "" {
		return market.Tick{}, false, fmt.Errorf("trade frame missing symbol")
	}
	if frame.EventTime <= 0 {
		return market.Tick{}, false, fmt.Errorf("trade frame missing event time")
	}
	price, err := strconv.ParseFloat(frame.Price, 64)
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("parse price %q: %w", frame.Price, err)
	}
	size, err := strconv.ParseFloat(frame.Quantity, 64)
	if err != nil {
		return market.Tick{}, false, fmt.Errorf("parse quantity %q: %w", frame.Quantity, err)
	}
	if price <= 0 {
		return market.Tick{}, false, fmt.Errorf("non-positive price %v", price)
	}
	if size < 0 {
		return market.Tick{}, false, fmt.Errorf("negative size %v", size)
	}
	return market.Tick{
		Symbol: frame.Symbol,
		Price:  price,
		Size:   size,
		Ts:     time.UnixMilli(frame.EventTime),
	}, true, nil
}
