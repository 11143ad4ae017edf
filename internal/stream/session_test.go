package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"futures_bot/internal/gateway"
	"futures_bot/internal/gateway/sim"
	"futures_bot/internal/models"
	"futures_bot/internal/trading"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = models.ContractSpec{Symbol: "MBT", SecType: "FUT", Exchange: "CME", Currency: "USD"}

func testVerify(token string) (string, error) {
	if token == "good" {
		return "admin", nil
	}
	return "", errors.New("bad token")
}

// feedGW отдаёт бары только когда тест сам их пушит.
type feedGW struct {
	*sim.Gateway

	mu           sync.Mutex
	onBar        func(models.PriceBar)
	unsubscribed int
}

func (g *feedGW) SubscribeBars(_ context.Context, _ *models.Contract, onBar func(models.PriceBar)) (gateway.Subscription, error) {
	g.mu.Lock()
	g.onBar = onBar
	g.mu.Unlock()
	return subFunc(func() {
		g.mu.Lock()
		g.unsubscribed++
		g.mu.Unlock()
	}), nil
}

// push доставляет бар под тем же локом, что и отписка: после Unsubscribe
// колбэк не зовётся, как и обещает контракт Subscription.
func (g *feedGW) push(bar models.PriceBar) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsubscribed > 0 || g.onBar == nil {
		return
	}
	g.onBar(bar)
}

type subFunc func()

func (f subFunc) Unsubscribe() { f() }

func startSessionServer(t *testing.T, gw gateway.Gateway, idle time.Duration) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		resolver := trading.NewResolver(gw, testSpec)
		sess := NewSession(conn, gw, resolver, NewAggregator(60), idle)
		sess.Run(r.Context(), r.URL.Query().Get("token"), testVerify)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newFeedGW(t *testing.T) *feedGW {
	gw := sim.New(sim.Config{})
	require.NoError(t, gw.Connect(context.Background()))
	return &feedGW{Gateway: gw}
}

func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code)
}

func TestSessionMissingToken(t *testing.T) {
	srv := startSessionServer(t, newFeedGW(t), time.Minute)
	conn := dial(t, srv, "")
	expectClose(t, conn, CloseMissingToken)
}

func TestSessionInvalidToken(t *testing.T) {
	srv := startSessionServer(t, newFeedGW(t), time.Minute)
	conn := dial(t, srv, "token=garbage")
	expectClose(t, conn, CloseInvalidToken)
}

func TestSessionPingPong(t *testing.T) {
	srv := startSessionServer(t, newFeedGW(t), time.Minute)
	conn := dial(t, srv, "token=good")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(msg))
}

func TestSessionHeartbeatOnIdle(t *testing.T) {
	srv := startSessionServer(t, newFeedGW(t), 50*time.Millisecond)
	conn := dial(t, srv, "token=good")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "heartbeat", string(msg))

	// сессия живёт дальше и продолжает отвечать
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	for {
		_, msg, err = conn.ReadMessage()
		require.NoError(t, err)
		if string(msg) == "pong" {
			break
		}
		require.Equal(t, "heartbeat", string(msg))
	}
}

func TestSessionStreamsCompletedCandles(t *testing.T) {
	gw := newFeedGW(t)
	srv := startSessionServer(t, gw, time.Minute)
	conn := dial(t, srv, "token=good")

	// ждём, пока сессия подпишется
	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.onBar != nil
	}, 2*time.Second, 5*time.Millisecond)

	gw.push(models.PriceBar{Time: 0, Open: 10, High: 11, Low: 9, Close: 10, Volume: 5})
	gw.push(models.PriceBar{Time: 30, Open: 10, High: 12, Low: 9, Close: 11, Volume: 3})
	gw.push(models.PriceBar{Time: 61, Open: 11, High: 11, Low: 10, Close: 10, Volume: 2})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var c models.Candle
	require.NoError(t, sonic.Unmarshal(msg, &c))
	assert.Equal(t, models.Candle{Time: 0, Open: 10, High: 12, Low: 9, Close: 11, Volume: 8}, c)
}

func TestSessionUnsubscribesOnClose(t *testing.T) {
	gw := newFeedGW(t)
	srv := startSessionServer(t, gw, time.Minute)
	conn := dial(t, srv, "token=good")

	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.onBar != nil
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.unsubscribed == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionBarAfterCloseIsNotDelivered(t *testing.T) {
	gw := newFeedGW(t)
	srv := startSessionServer(t, gw, time.Minute)
	conn := dial(t, srv, "token=good")

	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.onBar != nil
	}, 2*time.Second, 5*time.Millisecond)

	gw.push(models.PriceBar{Time: 0, Open: 10, High: 11, Low: 9, Close: 10, Volume: 5})
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.unsubscribed == 1
	}, 2*time.Second, 5*time.Millisecond)

	// бар после отписки гасится фидом и не трогает агрегатор,
	// который teardown-путь сессии уже разобрал через Flush
	gw.push(models.PriceBar{Time: 30, Open: 10, High: 12, Low: 9, Close: 11, Volume: 3})
}
