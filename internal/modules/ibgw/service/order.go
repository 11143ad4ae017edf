package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"
)

// QuoteMargin — what-if без постановки ордера. Мост отвечает сразу, но маржу
// может отдать пустой строкой, пока брокер считает — тогда Populated()==false
// и сайзер придёт ещё раз.
func (c *Client) QuoteMargin(ctx context.Context, contract *models.Contract, side string, qty int) (models.MarginQuote, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return models.MarginQuote{}, err
	}
	var resp whatIfPayload
	err := c.doJSON(ctx, http.MethodPost, "/order/whatif", map[string]any{
		"conid":    contract.ConID,
		"side":     side,
		"quantity": qty,
		"type":     "MKT",
	}, &resp)
	if err != nil {
		return models.MarginQuote{}, err
	}
	return models.MarginQuote{
		InitMarginChange:    parseFloat(resp.InitMarginChange),
		MaintMarginChange:   parseFloat(resp.MaintMarginChange),
		EquityWithLoanAfter: parseFloat(resp.EquityWithLoanAfter),
	}, nil
}

func (c *Client) SubmitOrder(ctx context.Context, contract *models.Contract, side string, qty int) (gateway.OrderHandle, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return gateway.OrderHandle{}, err
	}
	var resp orderStatusPayload
	err := c.doJSON(ctx, http.MethodPost, "/order", map[string]any{
		"conid":    contract.ConID,
		"side":     side,
		"quantity": qty,
		"type":     "MKT",
	}, &resp)
	if err != nil {
		return gateway.OrderHandle{}, err
	}
	return gateway.OrderHandle{OrderID: resp.OrderID, Side: side, Qty: qty}, nil
}

func (c *Client) PollOrder(ctx context.Context, h gateway.OrderHandle) (models.OrderResult, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return models.OrderResult{}, err
	}
	var resp orderStatusPayload
	path := fmt.Sprintf("/order/%d", h.OrderID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return models.OrderResult{}, err
	}
	return models.OrderResult{
		OrderID:      resp.OrderID,
		Side:         resp.Side,
		Quantity:     resp.Quantity,
		Status:       resp.Status,
		AvgFillPrice: resp.AvgFillPrice,
	}, nil
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
