package service

import (
	"context"
	"net/http"

	"futures_bot/internal/models"
)

func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	return c.fetchPositions(ctx, "/positions")
}

// Portfolio — запасной источник: у моста он знает PnL даже тогда, когда
// основной снапшот позиций пуст.
func (c *Client) Portfolio(ctx context.Context) ([]models.Position, error) {
	return c.fetchPositions(ctx, "/portfolio")
}

func (c *Client) fetchPositions(ctx context.Context, path string) ([]models.Position, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	var resp struct {
		Positions []positionPayload `json:"positions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Position, 0, len(resp.Positions))
	for _, p := range resp.Positions {
		out = append(out, models.Position{
			Symbol:        p.Symbol,
			Size:          p.Position,
			AvgCost:       p.AvgCost,
			UnrealizedPnl: p.UnrealizedPnl,
			MarketValue:   p.MarketValue,
		})
	}
	return out, nil
}

func (c *Client) Account(ctx context.Context) (models.AccountSummary, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return models.AccountSummary{}, err
	}
	var resp accountPayload
	if err := c.doJSON(ctx, http.MethodGet, "/account/summary", nil, &resp); err != nil {
		return models.AccountSummary{}, err
	}
	return models.AccountSummary{
		NetLiquidation: resp.NetLiquidation,
		AvailableFunds: resp.AvailableFunds,
		BuyingPower:    resp.BuyingPower,
		MarginUsed:     resp.MaintMarginReq,
	}, nil
}
