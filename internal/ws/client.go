// Package ws is the push-channel transport: a websocket client speaking
// the exchange's publish/subscribe framing, with automatic reconnect and
// resubscription. Owners listen for the recover signal to re-seed state
// that may have been missed while the connection was down.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/evedex/exchange-sdk-go/pkg/retrier"
	"github.com/evedex/exchange-sdk-go/pkg/signal"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("ws: client closed")

// Handler consumes one publication payload from a channel.
type Handler func(data json.RawMessage)

type frame struct {
	ID      int64           `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Pub     *publication    `json:"pub,omitempty"`
}

type publication struct {
	Data json.RawMessage `json:"data"`
}

type subscribeData struct {
	AccessToken string `json:"accessToken,omitempty"`
}

// Subscription is one live channel subscription.
type Subscription struct {
	client  *Client
	channel string

	mu      sync.Mutex
	handler Handler
}

// Channel returns the fully prefixed channel name.
func (s *Subscription) Channel() string { return s.channel }

// OnPublication replaces the publication handler.
func (s *Subscription) OnPublication(h Handler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

func (s *Subscription) publish(data json.RawMessage) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(data)
	}
}

// Unsubscribe removes the subscription and tells the server to stop
// delivering the channel. Safe to call on a disconnected client.
func (s *Subscription) Unsubscribe() error {
	return s.client.unsubscribe(s)
}

// Client is the websocket connection owner.
type Client struct {
	url      string
	prefix   string
	dialer   *websocket.Dialer
	log      *zap.Logger
	backoff  *retrier.Retrier
	getToken func() string

	// OnRecover fires per subscription after a reconnect, meaning
	// publications may have been lost and state must be re-seeded.
	OnRecover signal.Signal[*Subscription]

	OnConnected    signal.Signal[struct{}]
	OnDisconnected signal.Signal[struct{}]

	mu      sync.Mutex
	conn    *websocket.Conn
	subs    map[string]*Subscription
	nextID  int64
	closed  bool
	started bool

	writeMu sync.Mutex
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithBackoff replaces the reconnect backoff policy.
func WithBackoff(r *retrier.Retrier) Option {
	return func(c *Client) { c.backoff = r }
}

// WithTokenSource sets the access-token source attached to channel
// subscriptions of private channels.
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.getToken = fn }
}

// New creates a client for the given websocket endpoint. Channel names
// are namespaced with prefix on the wire.
func New(url, prefix string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		prefix: prefix,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		log:    zap.NewNop(),
		backoff: retrier.New(
			retrier.WithInitialInterval(time.Second),
			retrier.WithMaxInterval(30*time.Second),
		),
		subs: make(map[string]*Subscription),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the endpoint and starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		return errors.Wrapf(err, "dial %s", c.url)
	}

	c.mu.Lock()
	c.conn = conn
	subs := make([]*Subscription, 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.mu.Unlock()

	c.OnConnected.Emit(struct{}{})

	// subscriptions registered before the dial have no frame on the wire
	// yet, send one for each now
	for _, sub := range subs {
		if err := c.sendSubscribe(sub.channel); err != nil {
			c.log.Warn("subscribe failed", zap.String("channel", sub.channel), zap.Error(err))
		}
	}

	go c.readLoop(conn)
	return nil
}

// Disconnect closes the connection and stops reconnecting. The client
// cannot be reused afterwards.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	c.OnDisconnected.Emit(struct{}{})
	return nil
}

// Subscribe attaches a handler to a channel. Subscribing to the same
// channel twice returns the existing subscription untouched.
func (c *Client) Subscribe(name string, h Handler) (*Subscription, error) {
	channel := c.prefix + ":" + name

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if sub, ok := c.subs[channel]; ok {
		c.mu.Unlock()
		return sub, nil
	}
	sub := &Subscription{client: c, channel: channel, handler: h}
	c.subs[channel] = sub
	connected := c.conn != nil
	c.mu.Unlock()

	if connected {
		if err := c.sendSubscribe(channel); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func (c *Client) unsubscribe(sub *Subscription) error {
	c.mu.Lock()
	if _, ok := c.subs[sub.channel]; !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.subs, sub.channel)
	connected := c.conn != nil && !c.closed
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.send(frame{ID: c.id(), Method: "unsubscribe", Channel: sub.channel})
}

func (c *Client) sendSubscribe(channel string) error {
	f := frame{ID: c.id(), Method: "subscribe", Channel: channel}
	if c.getToken != nil {
		if token := c.getToken(); token != "" {
			data, err := json.Marshal(subscribeData{AccessToken: token})
			if err != nil {
				return errors.Wrap(err, "encode subscribe data")
			}
			f.Data = data
		}
	}
	return c.send(f)
}

func (c *Client) id() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

func (c *Client) send(f frame) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(f)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			c.mu.Lock()
			closed := c.closed || c.conn != conn
			c.mu.Unlock()
			if closed {
				return
			}

			c.log.Warn("connection lost", zap.Error(err))
			c.OnDisconnected.Emit(struct{}{})
			c.reconnect()
			return
		}

		if f.Channel == "" || f.Pub == nil {
			continue
		}

		c.mu.Lock()
		sub := c.subs[f.Channel]
		c.mu.Unlock()
		if sub != nil {
			sub.publish(f.Pub.Data)
		}
	}
}

// reconnect redials until it succeeds or the client is closed, then
// resubscribes every channel and fires the recover signal for each.
func (c *Client) reconnect() {
	for attempt := 0; ; attempt++ {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.conn = nil
		c.mu.Unlock()

		time.Sleep(c.backoff.Next(attempt))

		conn, _, err := c.dialer.DialContext(context.Background(), c.url, nil)
		if err != nil {
			c.log.Warn("reconnect failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		subs := make([]*Subscription, 0, len(c.subs))
		for _, sub := range c.subs {
			subs = append(subs, sub)
		}
		c.mu.Unlock()

		c.OnConnected.Emit(struct{}{})
		for _, sub := range subs {
			if err := c.sendSubscribe(sub.channel); err != nil {
				c.log.Warn("resubscribe failed", zap.String("channel", sub.channel), zap.Error(err))
				continue
			}
			c.OnRecover.Emit(sub)
		}

		go c.readLoop(conn)
		return
	}
}
