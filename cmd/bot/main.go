package main

import (
	"context"

	"futures_bot/internal/modules/api"
	"futures_bot/internal/modules/config"
	"futures_bot/internal/modules/health"
	"futures_bot/internal/modules/ibgw"
	"futures_bot/internal/notify"
	"futures_bot/internal/trading"
	"futures_bot/pkg/logger"
	"futures_bot/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	logger.SetServiceName("futures-bot")
	tracing.SetServiceName("futures-bot")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			newNotifier,
		),
		config.Module(),
		ibgw.Module(),
		trading.Module(),
		health.Module(),
		api.Module(),
		fx.Invoke(initTracing),
	)
	app.Run()
}

// Notifier: если TELEGRAM_* нет — пишем в stdout
func newNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		if tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID); err == nil {
			return tg
		}
	}
	return notify.NewStdout()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) {
	if cfg.Jaeger.Host == "" {
		return
	}
	_, closer, err := tracing.InitTracer(tracing.Config{Host: cfg.Jaeger.Host, Port: cfg.Jaeger.Port})
	if err != nil {
		logger.Error("jaeger init failed: %v", err)
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
}
