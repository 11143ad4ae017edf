package trading

import (
	"context"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"
	"futures_bot/internal/modules/config"
	"futures_bot/pkg/logger"

	"go.uber.org/fx"
)

func NewResolverFromConfig(cfg *config.Config, gw gateway.Gateway) *Resolver {
	return NewResolver(gw, models.ContractSpec{
		Symbol:   cfg.Contract.Symbol,
		SecType:  cfg.Contract.SecType,
		Exchange: cfg.Contract.Exchange,
		Currency: cfg.Contract.Currency,
	})
}

func NewSizerFromConfig(cfg *config.Config, gw gateway.Gateway, r *Resolver) *Sizer {
	return NewSizer(gw, r, cfg.PollInterval, cfg.PollAttempts)
}

func NewExecutorFromConfig(cfg *config.Config, gw gateway.Gateway, r *Resolver, s *Sizer) *Executor {
	return NewExecutor(gw, r, s, cfg.PollInterval, cfg.PollAttempts)
}

func Module() fx.Option {
	return fx.Module("trading",
		fx.Provide(
			NewResolverFromConfig,
			NewSizerFromConfig,
			NewExecutorFromConfig,
			NewService,
		),
		fx.Invoke(func(lc fx.Lifecycle, r *Resolver, gw gateway.Gateway) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					// прогрев: квалифицируем контракт заранее, чтобы первый
					// ордер не платил за резолв. Неуспех не фатален.
					go func() {
						if !gw.IsConnected() {
							return
						}
						if _, err := r.Resolve(context.Background()); err != nil {
							logger.Error("contract warmup failed: %v", err)
						}
					}()
					return nil
				},
			})
		}),
	)
}
