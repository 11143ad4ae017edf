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

// Executor отправляет маркет-ордера и закрывает позиции.
type Executor struct {
	gw       gateway.Gateway
	resolver *Resolver
	sizer    *Sizer

	pollInterval time.Duration
	pollAttempts int
}

func NewExecutor(gw gateway.Gateway, r *Resolver, s *Sizer, pollInterval time.Duration, pollAttempts int) *Executor {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	if pollAttempts <= 0 {
		pollAttempts = 50
	}
	return &Executor{gw: gw, resolver: r, sizer: s, pollInterval: pollInterval, pollAttempts: pollAttempts}
}

// Submit выставляет маркет-ордер и ждёт терминальный статус. Если попытки
// кончились, а ордер всё ещё висит — возвращаем последний наблюдённый статус
// как есть: неподтверждённый фил это результат, а не ошибка.
func (e *Executor) Submit(ctx context.Context, side string, quantity int) (models.OrderResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "executor.submit")
	defer span.Finish()

	contract, err := e.resolver.Resolve(ctx)
	if err != nil {
		return models.OrderResult{}, err
	}
	side = models.NormalizeSide(side)
	span.SetTag("side", side)
	span.SetTag("qty", quantity)

	h, err := e.gw.SubmitOrder(ctx, contract, side, quantity)
	if err != nil {
		return models.OrderResult{}, err
	}
	logger.Info("order submitted: id=%d %s x%d", h.OrderID, side, quantity)

	result := models.OrderResult{OrderID: h.OrderID, Side: side, Quantity: quantity, Status: "Submitted"}
	perr := pollUntil(ctx, e.pollInterval, e.pollAttempts, func() (bool, error) {
		r, rerr := e.gw.PollOrder(ctx, h)
		if rerr != nil {
			return false, rerr
		}
		result = r
		return r.Terminal(), nil
	})
	if perr != nil {
		return result, perr
	}
	if !result.Terminal() {
		logger.Info("order %d still %s after poll window, returning as-is", result.OrderID, result.Status)
	}
	return result, nil
}

// PlaceMax — стандартная точка входа: полный размер по марже, потом Submit.
func (e *Executor) PlaceMax(ctx context.Context, side string) (models.OrderResult, error) {
	qty, err := e.sizer.MaxQuantity(ctx, side)
	if err != nil {
		return models.OrderResult{}, err
	}
	return e.Submit(ctx, side, qty)
}

// ClosePosition закрывает первую ненулевую позицию противоположной стороной.
// Пустой список — сентинел NO_POSITION, ордерный тракт гейтвея не трогаем.
func (e *Executor) ClosePosition(ctx context.Context) (models.OrderResult, error) {
	positions, err := e.ListPositions(ctx)
	if err != nil {
		return models.OrderResult{}, err
	}

	var open *models.Position
	for i := range positions {
		if positions[i].Size != 0 {
			open = &positions[i]
			break
		}
	}
	if open == nil {
		return models.OrderResult{OrderID: 0, Side: "NONE", Quantity: 0, Status: models.StatusNoPosition}, nil
	}

	side := "SELL"
	if open.Size < 0 {
		side = "BUY"
	}
	qty := int(math.Abs(open.Size))
	return e.Submit(ctx, side, qty)
}

// ListPositions фильтрует позиции по нашему символу; если основной источник
// пуст — добираем из портфеля (там есть PnL даже когда positions молчит).
func (e *Executor) ListPositions(ctx context.Context) ([]models.Position, error) {
	symbol := e.resolver.spec.Symbol

	all, err := e.gw.Positions(ctx)
	if err != nil {
		return nil, err
	}
	out := filterSymbol(all, symbol)
	if len(out) > 0 {
		return out, nil
	}

	portfolio, err := e.gw.Portfolio(ctx)
	if err != nil {
		return nil, err
	}
	return filterSymbol(portfolio, symbol), nil
}

func filterSymbol(in []models.Position, symbol string) []models.Position {
	out := make([]models.Position, 0, len(in))
	for _, p := range in {
		if p.Symbol == symbol {
			out = append(out, p)
		}
	}
	return out
}
