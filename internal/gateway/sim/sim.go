// Package sim — детерминированный in-memory гейтвей для бумажной торговли
// и тестов. Повторяет контракт боевого шлюза: асинхронная маржа (заполняется
// не с первого опроса), фил ордера через пару поллов, синтетический live-фид.
package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"
)

type Config struct {
	Spec           models.ContractSpec
	Expiries       []string // кандидаты для ContractDetails, любой порядок
	StartPrice     float64
	MarginPerUnit  float64
	AvailableFunds float64
	BarInterval    time.Duration // период live-баров, по умолчанию 5s

	// QualifyFails заставляет прямую квалификацию вернуть "не нашли",
	// чтобы прогнать фолбэк через детали.
	QualifyFails bool
	// MarginDelayPolls — сколько опросов QuoteMargin вернут пустую маржу.
	MarginDelayPolls int
	// FillAfterPolls — после скольких PollOrder ордер считается Filled.
	FillAfterPolls int
}

type Gateway struct {
	cfg Config

	mu          sync.Mutex
	connected   bool
	price       float64
	funds       float64
	position    float64
	avgCost     float64
	nextOrderID int64

	marginPolls int
	orderPolls  map[int64]int
	orders      map[int64]models.OrderResult

	// счётчики для ассертов в тестах
	QualifyCalls int
	SubmitCalls  int
}

func New(cfg Config) *Gateway {
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 65000
	}
	if cfg.BarInterval <= 0 {
		cfg.BarInterval = 5 * time.Second
	}
	if cfg.AvailableFunds == 0 {
		cfg.AvailableFunds = 25000
	}
	if cfg.Spec.Symbol == "" {
		cfg.Spec = models.ContractSpec{Symbol: "MBT", SecType: "FUT", Exchange: "CME", Currency: "USD"}
	}
	if len(cfg.Expiries) == 0 {
		cfg.Expiries = []string{"20261127", "20260925", "20261225"}
	}
	return &Gateway{
		cfg:         cfg,
		price:       cfg.StartPrice,
		funds:       cfg.AvailableFunds,
		nextOrderID: 1,
		orderPolls:  make(map[int64]int),
		orders:      make(map[int64]models.OrderResult),
	}
}

func (g *Gateway) Connect(_ context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = true
	return nil
}

func (g *Gateway) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = false
	return nil
}

func (g *Gateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *Gateway) ensureConnected() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected {
		return gateway.ErrGatewayUnavailable
	}
	return nil
}

func (g *Gateway) front() string {
	min := g.cfg.Expiries[0]
	for _, e := range g.cfg.Expiries[1:] {
		if e < min {
			min = e
		}
	}
	return min
}

func (g *Gateway) QualifyContract(_ context.Context, spec models.ContractSpec) (*models.Contract, error) {
	if err := g.ensureConnected(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.QualifyCalls++
	g.mu.Unlock()
	if g.cfg.QualifyFails {
		return nil, gateway.ErrResolution
	}
	exp := g.front()
	return &models.Contract{
		ConID:    495512557,
		Symbol:   spec.Symbol,
		SecType:  spec.SecType,
		Exchange: spec.Exchange,
		Currency: spec.Currency,
		Expiry:   exp,
		LocalSym: fmt.Sprintf("%s%s", spec.Symbol, exp[2:6]),
	}, nil
}

func (g *Gateway) ContractDetails(_ context.Context, spec models.ContractSpec) ([]models.Contract, error) {
	if err := g.ensureConnected(); err != nil {
		return nil, err
	}
	out := make([]models.Contract, 0, len(g.cfg.Expiries))
	for i, exp := range g.cfg.Expiries {
		out = append(out, models.Contract{
			ConID:    495512557 + int64(i),
			Symbol:   spec.Symbol,
			SecType:  spec.SecType,
			Exchange: spec.Exchange,
			Currency: spec.Currency,
			Expiry:   exp,
		})
	}
	return out, nil
}

// HistoricalBars — детерминированная синусоида вокруг стартовой цены.
func (g *Gateway) HistoricalBars(_ context.Context, _ *models.Contract, _, _ string) ([]models.Candle, error) {
	if err := g.ensureConnected(); err != nil {
		return nil, err
	}
	now := time.Now().Unix() / 60 * 60
	out := make([]models.Candle, 0, 390)
	for i := 389; i >= 0; i-- {
		t := now - int64(i)*60
		mid := g.cfg.StartPrice * (1 + 0.002*math.Sin(float64(t)/600))
		out = append(out, models.Candle{
			Time: t, Open: mid - 5, High: mid + 12, Low: mid - 12, Close: mid + 5, Volume: 10,
		})
	}
	return out, nil
}

type subscription struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe дожидается остановки горутины фида: после возврата колбэк
// гарантированно больше не зовётся.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

func (g *Gateway) SubscribeBars(ctx context.Context, _ *models.Contract, onBar func(models.PriceBar)) (gateway.Subscription, error) {
	if err := g.ensureConnected(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(g.cfg.BarInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				g.mu.Lock()
				// лёгкий дрейф цены, привязанный к времени — воспроизводимо
				g.price = g.cfg.StartPrice * (1 + 0.002*math.Sin(float64(now.Unix())/600))
				p := g.price
				g.mu.Unlock()
				onBar(models.PriceBar{
					Time: now.Unix(), Open: p, High: p + 3, Low: p - 3, Close: p + 1, Volume: 2,
				})
			}
		}
	}()
	return &subscription{cancel: cancel, done: done}, nil
}

func (g *Gateway) Positions(_ context.Context) ([]models.Position, error) {
	if err := g.ensureConnected(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.position == 0 {
		return nil, nil
	}
	return []models.Position{{
		Symbol:        g.cfg.Spec.Symbol,
		Size:          g.position,
		AvgCost:       g.avgCost,
		UnrealizedPnl: (g.price - g.avgCost) * g.position,
		MarketValue:   g.price * g.position,
	}}, nil
}

func (g *Gateway) Portfolio(ctx context.Context) ([]models.Position, error) {
	return g.Positions(ctx)
}

func (g *Gateway) Account(_ context.Context) (models.AccountSummary, error) {
	if err := g.ensureConnected(); err != nil {
		return models.AccountSummary{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	used := math.Abs(g.position) * g.cfg.MarginPerUnit
	return models.AccountSummary{
		NetLiquidation: g.funds + g.price*g.position,
		AvailableFunds: g.funds - used,
		BuyingPower:    (g.funds - used) * 4,
		MarginUsed:     used,
	}, nil
}

func (g *Gateway) QuoteMargin(_ context.Context, _ *models.Contract, _ string, qty int) (models.MarginQuote, error) {
	if err := g.ensureConnected(); err != nil {
		return models.MarginQuote{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.marginPolls++
	if g.marginPolls <= g.cfg.MarginDelayPolls {
		return models.MarginQuote{}, nil // гейтвей "ещё думает"
	}
	return models.MarginQuote{
		InitMarginChange:    g.cfg.MarginPerUnit * float64(qty),
		MaintMarginChange:   g.cfg.MarginPerUnit * float64(qty) * 0.8,
		EquityWithLoanAfter: g.funds - g.cfg.MarginPerUnit*float64(qty),
	}, nil
}

func (g *Gateway) SubmitOrder(_ context.Context, _ *models.Contract, side string, qty int) (gateway.OrderHandle, error) {
	if err := g.ensureConnected(); err != nil {
		return gateway.OrderHandle{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.SubmitCalls++
	id := g.nextOrderID
	g.nextOrderID++
	g.orders[id] = models.OrderResult{OrderID: id, Side: side, Quantity: qty, Status: "Submitted"}
	return gateway.OrderHandle{OrderID: id, Side: side, Qty: qty}, nil
}

func (g *Gateway) PollOrder(_ context.Context, h gateway.OrderHandle) (models.OrderResult, error) {
	if err := g.ensureConnected(); err != nil {
		return models.OrderResult{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.orders[h.OrderID]
	if !ok {
		return models.OrderResult{}, fmt.Errorf("sim: unknown order %d", h.OrderID)
	}
	if r.Terminal() {
		return r, nil
	}
	g.orderPolls[h.OrderID]++
	if g.orderPolls[h.OrderID] >= g.cfg.FillAfterPolls {
		px := g.price
		r.Status = models.StatusFilled
		r.AvgFillPrice = &px
		g.orders[h.OrderID] = r
		// двигаем позицию и среднюю цену
		signed := float64(h.Qty)
		if h.Side == "SELL" {
			signed = -signed
		}
		newPos := g.position + signed
		if g.position == 0 || g.position*newPos <= 0 {
			g.avgCost = px
		} else if math.Abs(newPos) > math.Abs(g.position) {
			g.avgCost = (g.avgCost*math.Abs(g.position) + px*math.Abs(signed)) / math.Abs(newPos)
		}
		g.position = newPos
	}
	return g.orders[h.OrderID], nil
}

var _ gateway.Gateway = (*Gateway)(nil)
