package models

import "strings"

// ContractSpec — то, что мы знаем об инструменте ДО квалификации на гейтвее:
// тикер, тип, биржа, валюта. Expiry заполняет сам гейтвей.
type ContractSpec struct {
	Symbol   string
	SecType  string // "FUT"
	Exchange string
	Currency string
}

// Contract — квалифицированный контракт (фронт-месяц). После резолва неизменяем,
// раздаётся по ссылке всем потребителям.
type Contract struct {
	ConID    int64
	Symbol   string
	SecType  string
	Exchange string
	Currency string
	Expiry   string // YYYYMMDD
	LocalSym string
}

// PriceBar — сырой 5-секундный бар из live-фида. Транзитный: сразу уходит
// в агрегатор, нигде не хранится.
type PriceBar struct {
	Time   int64 // unix seconds
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Candle — минутная свеча, ключ = начало интервала (floor по интервалу).
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Position — снапшот позиции с гейтвея. Не кешируем между вызовами:
// позиция может меняться снаружи (другая сессия, руки).
type Position struct {
	Symbol        string  `json:"symbol"`
	Size          float64 `json:"size"` // >0 long, <0 short
	AvgCost       float64 `json:"avg_cost"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	MarketValue   float64 `json:"market_value"`
}

// AccountSummary — снапшот счёта, та же семантика что у Position.
type AccountSummary struct {
	NetLiquidation float64 `json:"net_liquidation"`
	AvailableFunds float64 `json:"available_funds"`
	BuyingPower    float64 `json:"buying_power"`
	MarginUsed     float64 `json:"margin_used"`
}

// MarginQuote — одноразовая what-if оценка маржи под 1 контракт.
// InitMarginChange == 0 значит "гейтвей ещё не ответил".
type MarginQuote struct {
	InitMarginChange    float64
	MaintMarginChange   float64
	EquityWithLoanAfter float64
}

// Populated — пришла ли уже маржа от гейтвея.
func (q MarginQuote) Populated() bool { return q.InitMarginChange != 0 }

// Статусы ордера, которые считаем терминальными.
const (
	StatusFilled       = "Filled"
	StatusCancelled    = "Cancelled"
	StatusAPICancelled = "ApiCancelled"
	StatusInactive     = "Inactive"
	StatusNoPosition   = "NO_POSITION"
)

// OrderResult — итог отправки ордера. Создаётся один раз, дальше неизменяем.
type OrderResult struct {
	OrderID      int64    `json:"order_id"`
	Side         string   `json:"side"`
	Quantity     int      `json:"quantity"`
	Status       string   `json:"status"`
	AvgFillPrice *float64 `json:"avg_fill_price"`
}

// Terminal — дальше статус уже не изменится.
func (r OrderResult) Terminal() bool {
	switch r.Status {
	case StatusFilled, StatusCancelled, StatusAPICancelled, StatusInactive:
		return true
	}
	return false
}

// NormalizeSide приводит сторону к BUY/SELL. Всё, что не BUY — SELL,
// это осознанный дефолт, а не ошибка.
func NormalizeSide(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "BUY") {
		return "BUY"
	}
	return "SELL"
}
