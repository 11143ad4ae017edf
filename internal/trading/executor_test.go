package trading

import (
	"context"
	"testing"
	"time"

	"futures_bot/internal/gateway/sim"
	"futures_bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(gw *sim.Gateway) *Executor {
	r := NewResolver(gw, testSpec)
	s := NewSizer(gw, r, time.Millisecond, 50)
	return NewExecutor(gw, r, s, time.Millisecond, 50)
}

func TestExecutorSubmitFills(t *testing.T) {
	gw := connectedSim(t, sim.Config{MarginPerUnit: 2400, AvailableFunds: 25000, FillAfterPolls: 2})
	e := newExecutor(gw)

	res, err := e.Submit(context.Background(), "buy", 3)
	require.NoError(t, err)

	assert.Equal(t, "BUY", res.Side) // нормализация регистра
	assert.Equal(t, 3, res.Quantity)
	assert.Equal(t, models.StatusFilled, res.Status)
	require.NotNil(t, res.AvgFillPrice)
}

func TestExecutorNormalizesUnknownSideToSell(t *testing.T) {
	gw := connectedSim(t, sim.Config{FillAfterPolls: 1})
	e := newExecutor(gw)

	res, err := e.Submit(context.Background(), "hold", 1)
	require.NoError(t, err)
	assert.Equal(t, "SELL", res.Side)
}

func TestExecutorUnconfirmedReturnsLastStatus(t *testing.T) {
	// фил никогда не приходит: возвращаем последний наблюдённый статус,
	// без ошибки
	gw := connectedSim(t, sim.Config{FillAfterPolls: 10_000})
	r := NewResolver(gw, testSpec)
	s := NewSizer(gw, r, time.Millisecond, 5)
	e := NewExecutor(gw, r, s, time.Millisecond, 5)

	res, err := e.Submit(context.Background(), "BUY", 1)
	require.NoError(t, err)
	assert.Equal(t, "Submitted", res.Status)
	assert.False(t, res.Terminal())
}

func TestClosePositionNoPosition(t *testing.T) {
	gw := connectedSim(t, sim.Config{FillAfterPolls: 1})
	e := newExecutor(gw)

	res, err := e.ClosePosition(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StatusNoPosition, res.Status)
	assert.Equal(t, int64(0), res.OrderID)
	assert.Equal(t, 0, res.Quantity)
	assert.Equal(t, 0, gw.SubmitCalls) // ордерный тракт не трогали
}

func TestClosePositionReversesOpen(t *testing.T) {
	gw := connectedSim(t, sim.Config{MarginPerUnit: 2400, AvailableFunds: 25000, FillAfterPolls: 1})
	e := newExecutor(gw)

	_, err := e.Submit(context.Background(), "BUY", 2)
	require.NoError(t, err)

	res, err := e.ClosePosition(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SELL", res.Side) // противоположная сторона
	assert.Equal(t, 2, res.Quantity)  // абсолютный размер
	assert.Equal(t, models.StatusFilled, res.Status)

	// после закрытия позиций не осталось
	positions, err := e.ListPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestPlaceMaxUsesSizer(t *testing.T) {
	gw := connectedSim(t, sim.Config{MarginPerUnit: 5000, AvailableFunds: 25000, FillAfterPolls: 1})
	e := newExecutor(gw)

	res, err := e.PlaceMax(context.Background(), "BUY")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Quantity)
}

func TestSubmitCancelledByContext(t *testing.T) {
	gw := connectedSim(t, sim.Config{FillAfterPolls: 10_000})
	e := newExecutor(gw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Submit(ctx, "BUY", 1)
	assert.ErrorIs(t, err, context.Canceled)
}
