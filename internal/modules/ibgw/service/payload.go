package service

// Проводные структуры моста. Числа приходят числами, expiry — строкой
// YYYYMMDD, время баров — unix seconds.

type contractPayload struct {
	ConID    int64  `json:"conid"`
	Symbol   string `json:"symbol"`
	SecType  string `json:"sec_type"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Expiry   string `json:"expiry"`
	LocalSym string `json:"local_symbol"`
}

type barPayload struct {
	Time   int64   `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

type positionPayload struct {
	Symbol        string  `json:"symbol"`
	Position      float64 `json:"position"`
	AvgCost       float64 `json:"avg_cost"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	MarketValue   float64 `json:"market_value"`
}

type accountPayload struct {
	NetLiquidation float64 `json:"net_liquidation"`
	AvailableFunds float64 `json:"available_funds"`
	BuyingPower    float64 `json:"buying_power"`
	MaintMarginReq float64 `json:"maint_margin_req"`
}

type whatIfPayload struct {
	InitMarginChange    string `json:"init_margin_change"` // мост отдаёт строкой, может быть ""
	MaintMarginChange   string `json:"maint_margin_change"`
	EquityWithLoanAfter string `json:"equity_with_loan_after"`
}

type orderStatusPayload struct {
	OrderID      int64    `json:"order_id"`
	Side         string   `json:"side"`
	Quantity     int      `json:"quantity"`
	Status       string   `json:"status"`
	AvgFillPrice *float64 `json:"avg_fill_price"`
}
