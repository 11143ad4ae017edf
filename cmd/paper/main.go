package main

import (
	"context"
	"time"

	"futures_bot/internal/gateway"
	"futures_bot/internal/gateway/sim"
	"futures_bot/internal/models"
	"futures_bot/internal/modules/api"
	"futures_bot/internal/modules/config"
	"futures_bot/internal/modules/health"
	"futures_bot/internal/notify"
	"futures_bot/internal/trading"
	"futures_bot/pkg/logger"

	"go.uber.org/fx"
)

// Бумажная торговля: тот же сервис, но вместо брокерского моста —
// in-memory симулятор. Удобно гонять фронт и стратегии без гейтвея.
func main() {
	logger.SetServiceName("futures-bot-paper")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			func() notify.Notifier { return notify.NewStdout() },
			newSimGateway,
		),
		config.Module(),
		trading.Module(),
		health.Module(),
		api.Module(),
	)
	app.Run()
}

func newSimGateway(lc fx.Lifecycle, cfg *config.Config) gateway.Gateway {
	gw := sim.New(sim.Config{
		Spec: models.ContractSpec{
			Symbol:   cfg.Contract.Symbol,
			SecType:  cfg.Contract.SecType,
			Exchange: cfg.Contract.Exchange,
			Currency: cfg.Contract.Currency,
		},
		StartPrice:       65000,
		MarginPerUnit:    2400,
		AvailableFunds:   25000,
		BarInterval:      5 * time.Second,
		MarginDelayPolls: 2,
		FillAfterPolls:   2,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return gw.Connect(ctx) },
		OnStop:  func(context.Context) error { return gw.Disconnect() },
	})
	return gw
}
