package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"futures_bot/internal/gateway"
	"futures_bot/internal/modules/config"
	"futures_bot/internal/modules/health/service"
	"futures_bot/internal/trading"
)

func NewMux(state *service.State, gw gateway.Gateway, resolver *trading.Resolver) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: мост на связи
		if !gw.IsConnected() {
			http.Error(w, "bridge not connected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// полезный JSON для отладки
		resp := map[string]any{
			"bridgeConnected":  gw.IsConnected(),
			"contractResolved": resolver.Resolved(),
			"uptimeSec":        int64(state.Uptime().Seconds()),
			"lastBarUnix": func() int64 {
				t := state.LastBar()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, state *service.State, gw gateway.Gateway, resolver *trading.Resolver) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Service.AdminPort),
		Handler:           NewMux(state, gw, resolver),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
		),
		fx.Invoke(RunHTTP),
	)
}
