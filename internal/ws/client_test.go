package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/evedex/exchange-sdk-go/pkg/retrier"
)

// testServer is a minimal publish/subscribe peer: it records subscribe
// frames and lets the test push publications into subscribed channels.
type testServer struct {
	t        *testing.T
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	channels map[string]bool
	subbed   chan string
	unsubbed chan string
}

func newTestServer(t *testing.T) (*testServer, *httptest.Server) {
	ts := &testServer{
		t:        t,
		channels: make(map[string]bool),
		subbed:   make(chan string, 16),
		unsubbed: make(chan string, 16),
	}
	srv := httptest.NewServer(http.HandlerFunc(ts.handle))
	t.Cleanup(srv.Close)
	return ts, srv
}

func (ts *testServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := ts.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	ts.mu.Lock()
	ts.conn = conn
	ts.mu.Unlock()

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Method {
		case "subscribe":
			ts.mu.Lock()
			ts.channels[f.Channel] = true
			ts.mu.Unlock()
			ts.subbed <- f.Channel
		case "unsubscribe":
			ts.mu.Lock()
			delete(ts.channels, f.Channel)
			ts.mu.Unlock()
			ts.unsubbed <- f.Channel
		}
	}
}

func (ts *testServer) publish(channel string, payload any) {
	data, err := json.Marshal(payload)
	require.NoError(ts.t, err)

	ts.mu.Lock()
	conn := ts.conn
	ts.mu.Unlock()
	require.NotNil(ts.t, conn)
	require.NoError(ts.t, conn.WriteJSON(frame{Channel: channel, Pub: &publication{Data: data}}))
}

func (ts *testServer) drop() {
	ts.mu.Lock()
	conn := ts.conn
	ts.conn = nil
	ts.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, ch chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func TestSubscribePublishDispatch(t *testing.T) {
	ts, srv := newTestServer(t)

	c := New(wsURL(srv), "futures-perp")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	payloads := make(chan string, 1)
	sub, err := c.Subscribe("funding#u1", func(data json.RawMessage) {
		payloads <- string(data)
	})
	require.NoError(t, err)
	require.Equal(t, "futures-perp:funding#u1", sub.Channel())
	waitFor(t, ts.subbed, "futures-perp:funding#u1")

	ts.publish("futures-perp:funding#u1", map[string]string{"coin": "usdt"})

	select {
	case got := <-payloads:
		require.JSONEq(t, `{"coin":"usdt"}`, got)
	case <-time.After(2 * time.Second):
		t.Fatal("publication was not dispatched")
	}
}

func TestSubscribeBeforeConnectIsSentOnConnect(t *testing.T) {
	ts, srv := newTestServer(t)

	c := New(wsURL(srv), "p")

	payloads := make(chan string, 1)
	_, err := c.Subscribe("orders#u1", func(data json.RawMessage) {
		payloads <- string(data)
	})
	require.NoError(t, err)

	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	waitFor(t, ts.subbed, "p:orders#u1")

	ts.publish("p:orders#u1", map[string]string{"id": "o1"})
	select {
	case got := <-payloads:
		require.Contains(t, got, "o1")
	case <-time.After(2 * time.Second):
		t.Fatal("publication was not dispatched")
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	ts, srv := newTestServer(t)

	c := New(wsURL(srv), "p")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	first, err := c.Subscribe("orders#u1", func(json.RawMessage) {})
	require.NoError(t, err)
	waitFor(t, ts.subbed, "p:orders#u1")

	second, err := c.Subscribe("orders#u1", func(json.RawMessage) {})
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ts, srv := newTestServer(t)

	c := New(wsURL(srv), "p")
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	var calls int
	var mu sync.Mutex
	sub, err := c.Subscribe("tpsl#u1", func(json.RawMessage) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)
	waitFor(t, ts.subbed, "p:tpsl#u1")

	require.NoError(t, sub.Unsubscribe())
	waitFor(t, ts.unsubbed, "p:tpsl#u1")

	ts.publish("p:tpsl#u1", map[string]int{"x": 1})
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Zero(t, calls)
}

func TestReconnectResubscribesAndFiresRecover(t *testing.T) {
	ts, srv := newTestServer(t)

	c := New(wsURL(srv), "p", WithBackoff(retrier.New(
		retrier.WithInitialInterval(10*time.Millisecond),
		retrier.WithMaxRetries(50),
	)))
	require.NoError(t, c.Connect(context.Background()))
	defer c.Disconnect()

	recovered := make(chan string, 1)
	c.OnRecover.Listen(func(sub *Subscription) { recovered <- sub.Channel() })

	payloads := make(chan string, 1)
	_, err := c.Subscribe("positions#u1", func(data json.RawMessage) {
		payloads <- string(data)
	})
	require.NoError(t, err)
	waitFor(t, ts.subbed, "p:positions#u1")

	ts.drop()

	// the client must come back and resubscribe on its own
	waitFor(t, ts.subbed, "p:positions#u1")
	select {
	case ch := <-recovered:
		require.Equal(t, "p:positions#u1", ch)
	case <-time.After(2 * time.Second):
		t.Fatal("recover signal not fired")
	}

	ts.publish("p:positions#u1", map[string]string{"instrument": "BTCUSDT"})
	select {
	case got := <-payloads:
		require.Contains(t, got, "BTCUSDT")
	case <-time.After(2 * time.Second):
		t.Fatal("publication after reconnect was not dispatched")
	}
}
