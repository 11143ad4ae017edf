package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"futures_bot/internal/gateway"
	"futures_bot/internal/modules/api/service"
	"futures_bot/internal/modules/config"
	healthsvc "futures_bot/internal/modules/health/service"
	"futures_bot/internal/notify"
	"futures_bot/internal/trading"
	"futures_bot/pkg/logger"

	"go.uber.org/fx"
)

func NewTokenManager(cfg *config.Config) *service.TokenManager {
	return service.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
}

func NewHandler(cfg *config.Config, trade *trading.Service, tokens *service.TokenManager, n notify.Notifier) *service.Handler {
	return service.NewHandler(trade, tokens, n, cfg.Auth.Username, cfg.Auth.Password)
}

func NewWSHandler(cfg *config.Config, gw gateway.Gateway, r *trading.Resolver, tokens *service.TokenManager, state *healthsvc.State) *service.WSHandler {
	return service.NewWSHandler(gw, r, tokens, state, cfg.CandleIntervalSec, cfg.WSIdleTimeout)
}

func NewMux(cfg *config.Config, h *service.Handler, ws *service.WSHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/positions", h.Protected(h.Positions))
	mux.HandleFunc("POST /api/order", h.Protected(h.PlaceOrder))
	mux.HandleFunc("POST /api/close-position", h.Protected(h.ClosePosition))
	mux.HandleFunc("GET /api/account", h.Protected(h.Account))
	mux.HandleFunc("GET /api/candles/history", h.Protected(h.CandleHistory))
	mux.Handle("GET /api/ws/candles", ws)

	// прод: собранный фронт лежит рядом в static/
	if st, err := os.Stat(cfg.StaticDir); err == nil && st.IsDir() {
		mux.HandleFunc("/", service.SPA(cfg.StaticDir))
	}
	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.Port),
		Handler:           service.CORS(cfg.CORSOrigins, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("api listening on %s", srv.Addr)
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("api",
		fx.Provide(
			NewTokenManager,
			NewHandler,
			NewWSHandler,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
