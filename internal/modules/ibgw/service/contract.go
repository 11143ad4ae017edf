package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"

	"github.com/pkg/errors"
)

func specQuery(spec models.ContractSpec) string {
	q := url.Values{}
	q.Set("symbol", spec.Symbol)
	q.Set("sec_type", spec.SecType)
	q.Set("exchange", spec.Exchange)
	q.Set("currency", spec.Currency)
	return q.Encode()
}

func fromPayload(p contractPayload) models.Contract {
	return models.Contract{
		ConID:    p.ConID,
		Symbol:   p.Symbol,
		SecType:  p.SecType,
		Exchange: p.Exchange,
		Currency: p.Currency,
		Expiry:   p.Expiry,
		LocalSym: p.LocalSym,
	}
}

// QualifyContract — прямая квалификация; пустой ответ моста = "не нашли".
func (c *Client) QualifyContract(ctx context.Context, spec models.ContractSpec) (*models.Contract, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	var resp struct {
		Contracts []contractPayload `json:"contracts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/contract/qualify?"+specQuery(spec), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Contracts) == 0 {
		return nil, errors.Wrapf(gateway.ErrResolution, "qualify %s", spec.Symbol)
	}
	qualified := fromPayload(resp.Contracts[0])
	return &qualified, nil
}

func (c *Client) ContractDetails(ctx context.Context, spec models.ContractSpec) ([]models.Contract, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	var resp struct {
		Contracts []contractPayload `json:"contracts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/contract/details?"+specQuery(spec), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Contract, 0, len(resp.Contracts))
	for _, p := range resp.Contracts {
		out = append(out, fromPayload(p))
	}
	return out, nil
}

// HistoricalBars — исторические свечи моста ("1 D" / "1 min" и т.п.).
func (c *Client) HistoricalBars(ctx context.Context, contract *models.Contract, duration, barSize string) ([]models.Candle, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("conid", strconv.FormatInt(contract.ConID, 10))
	q.Set("duration", duration)
	q.Set("bar_size", barSize)
	var resp struct {
		Bars []barPayload `json:"bars"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/history?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	out := make([]models.Candle, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		out = append(out, models.Candle{
			Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,
		})
	}
	return out, nil
}
