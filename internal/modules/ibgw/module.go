package ibgw

import (
	"context"

	"futures_bot/internal/gateway"
	"futures_bot/internal/modules/config"
	"futures_bot/internal/modules/ibgw/service"
	"futures_bot/pkg/logger"

	"go.uber.org/fx"
)

func NewGateway(cfg *config.Config) gateway.Gateway {
	return service.NewClient(service.Config{
		Host:     cfg.Bridge.Host,
		Port:     cfg.Bridge.Port,
		ClientID: cfg.Bridge.ClientID,
	})
}

func Module() fx.Option {
	return fx.Module("ibgw",
		fx.Provide(
			NewGateway,
		),
		fx.Invoke(func(lc fx.Lifecycle, gw gateway.Gateway) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					// коннект на старте — best effort: если мост ещё не
					// поднят, подцепимся на первом запросе
					if err := gw.Connect(ctx); err != nil {
						logger.Error("bridge connect on startup failed: %v (will retry on first use)", err)
					}
					return nil
				},
				OnStop: func(context.Context) error {
					return gw.Disconnect()
				},
			})
		}),
	)
}
