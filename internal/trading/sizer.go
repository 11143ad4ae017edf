package trading

import (
	"context"
	"math"
	"time"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"
	"futures_bot/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// Sizer считает максимальный размер ордера из доступных средств и what-if
// маржи под один контракт.
type Sizer struct {
	gw       gateway.Gateway
	resolver *Resolver

	pollInterval time.Duration
	pollAttempts int
}

func NewSizer(gw gateway.Gateway, r *Resolver, pollInterval time.Duration, pollAttempts int) *Sizer {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	if pollAttempts <= 0 {
		pollAttempts = 50
	}
	return &Sizer{gw: gw, resolver: r, pollInterval: pollInterval, pollAttempts: pollAttempts}
}

// MaxQuantity — всегда >= 1. Деградация сайзинга (маржа не пришла или
// мусорная) гасится локально: лот 1 всё ещё торгуем, предупреждаем и едем
// дальше. Ошибкой наверх уходят только резолв и потеря гейтвея.
func (s *Sizer) MaxQuantity(ctx context.Context, side string) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "sizer.max_quantity")
	defer span.Finish()

	contract, err := s.resolver.Resolve(ctx)
	if err != nil {
		return 0, err
	}
	side = models.NormalizeSide(side)

	// ждём, пока гейтвей заполнит initMarginChange по what-if запросу
	var quote models.MarginQuote
	perr := pollUntil(ctx, s.pollInterval, s.pollAttempts, func() (bool, error) {
		q, qerr := s.gw.QuoteMargin(ctx, contract, side, 1)
		if qerr != nil {
			return false, qerr
		}
		quote = q
		return quote.Populated(), nil
	})
	if perr != nil {
		return 0, perr
	}

	marginPer := quote.InitMarginChange
	if marginPer <= 0 {
		logger.Warn("sizing degraded: margin-per-contract unavailable (initMarginChange=%.2f), falling back to qty 1", marginPer)
		return 1, nil
	}

	// Свежий ПРЕ-трейдовый снапшот счёта. EquityWithLoanAfter из what-if —
	// это уже гипотетическое состояние, его не используем.
	summary, err := s.gw.Account(ctx)
	if err != nil {
		return 0, err
	}

	qty := int(math.Floor(summary.AvailableFunds / marginPer))
	if qty < 1 {
		// маржа на контракт больше свободных средств — всё равно пробуем 1
		qty = 1
	}
	logger.Info("max quantity: %d (available=%.2f margin_per=%.2f side=%s)", qty, summary.AvailableFunds, marginPer, side)
	return qty, nil
}
