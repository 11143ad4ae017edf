package service

import (
	"context"
	"log"
	"net/http"
	"time"

	"futures_bot/internal/gateway"
	healthsvc "futures_bot/internal/modules/health/service"
	"futures_bot/internal/models"
	"futures_bot/internal/stream"
	"futures_bot/internal/trading"

	"github.com/gorilla/websocket"
)

// WSHandler апгрейдит соединение и отдаёт его стрим-сессии.
type WSHandler struct {
	gw          gateway.Gateway
	resolver    *trading.Resolver
	tokens      *TokenManager
	state       *healthsvc.State
	intervalSec int64
	idleTimeout time.Duration

	upgrader websocket.Upgrader
}

func NewWSHandler(gw gateway.Gateway, r *trading.Resolver, tokens *TokenManager, state *healthsvc.State, intervalSec int64, idleTimeout time.Duration) *WSHandler {
	return &WSHandler{
		gw:          &observedGateway{Gateway: gw, state: state},
		resolver:    r,
		tokens:      tokens,
		state:       state,
		intervalSec: intervalSec,
		idleTimeout: idleTimeout,
		upgrader: websocket.Upgrader{
			// origin режет CORS на REST; ws проверяет токен сам
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade error: %v", err)
		return
	}

	token := r.URL.Query().Get("token")
	agg := stream.NewAggregator(h.intervalSec)
	session := stream.NewSession(conn, h.gw, h.resolver, agg, h.idleTimeout)
	session.Run(r.Context(), token, h.tokens.Verify)
}

// observedGateway помечает в health-стейте каждый live-бар.
type observedGateway struct {
	gateway.Gateway
	state *healthsvc.State
}

func (g *observedGateway) SubscribeBars(ctx context.Context, c *models.Contract, onBar func(models.PriceBar)) (gateway.Subscription, error) {
	return g.Gateway.SubscribeBars(ctx, c, func(bar models.PriceBar) {
		g.state.TouchBar(time.Unix(bar.Time, 0))
		onBar(bar)
	})
}
