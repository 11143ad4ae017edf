package gateway

import (
	"context"
	"errors"

	"futures_bot/internal/models"
)

// Типизированные ошибки ядра. Резолв и потеря коннекта отдаются наверх,
// всё остальное (маржа, неподтверждённый фил) гасится локально.
var (
	// ErrResolution — контракт определить не удалось. Фатально для любых
	// зависимых операций, автоматом не ретраим.
	ErrResolution = errors.New("gateway: contract resolution failed")

	// ErrGatewayUnavailable — коннект потерян или не был установлен.
	ErrGatewayUnavailable = errors.New("gateway: not connected")
)

// OrderHandle — ссылка на отправленный ордер для опроса статуса.
type OrderHandle struct {
	OrderID int64
	Side    string
	Qty     int
}

// Subscription — живая подписка на бары. Unsubscribe идемпотентен и
// блокируется до полной остановки доставки: после возврата onBar больше
// не зовётся, сессия может безопасно разбирать агрегатор в teardown.
type Subscription interface {
	Unsubscribe()
}

// Gateway — единый асинхронный интерфейс к брокерскому шлюзу.
// Инжектится в каждый компонент (резолвер, сайзер, экзекутор, стрим),
// никто им не владеет единолично.
type Gateway interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	// QualifyContract — прямая квалификация по тикеру/типу/бирже/валюте.
	QualifyContract(ctx context.Context, spec models.ContractSpec) (*models.Contract, error)
	// ContractDetails — фолбэк: все кандидаты, сортирует вызывающий.
	ContractDetails(ctx context.Context, spec models.ContractSpec) ([]models.Contract, error)

	HistoricalBars(ctx context.Context, c *models.Contract, duration, barSize string) ([]models.Candle, error)
	// SubscribeBars — live 5s бары, onBar зовётся из горутины фида.
	SubscribeBars(ctx context.Context, c *models.Contract, onBar func(models.PriceBar)) (Subscription, error)

	Positions(ctx context.Context) ([]models.Position, error)
	// Portfolio — запасной источник позиций, когда Positions пуст.
	Portfolio(ctx context.Context) ([]models.Position, error)
	Account(ctx context.Context) (models.AccountSummary, error)

	// QuoteMargin — what-if без выставления ордера. Маржа может быть ещё
	// не заполнена (Populated()==false) — тогда опрашиваем повторно.
	QuoteMargin(ctx context.Context, c *models.Contract, side string, qty int) (models.MarginQuote, error)

	SubmitOrder(ctx context.Context, c *models.Contract, side string, qty int) (OrderHandle, error)
	PollOrder(ctx context.Context, h OrderHandle) (models.OrderResult, error)
}
