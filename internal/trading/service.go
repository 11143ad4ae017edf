package trading

import (
	"context"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"
)

// Service — торговая поверхность для API-слоя: всё, что можно дёрнуть
// снаружи, собрано в одном месте.
type Service struct {
	gw       gateway.Gateway
	resolver *Resolver
	sizer    *Sizer
	executor *Executor
}

func NewService(gw gateway.Gateway, r *Resolver, s *Sizer, e *Executor) *Service {
	return &Service{gw: gw, resolver: r, sizer: s, executor: e}
}

func (s *Service) ResolveContract(ctx context.Context) (*models.Contract, error) {
	return s.resolver.Resolve(ctx)
}

func (s *Service) MaxQuantity(ctx context.Context, side string) (int, error) {
	return s.sizer.MaxQuantity(ctx, side)
}

func (s *Service) SubmitOrder(ctx context.Context, side string, qty int) (models.OrderResult, error) {
	return s.executor.Submit(ctx, side, qty)
}

func (s *Service) PlaceMax(ctx context.Context, side string) (models.OrderResult, error) {
	return s.executor.PlaceMax(ctx, side)
}

func (s *Service) ClosePosition(ctx context.Context) (models.OrderResult, error) {
	return s.executor.ClosePosition(ctx)
}

func (s *Service) ListPositions(ctx context.Context) ([]models.Position, error) {
	return s.executor.ListPositions(ctx)
}

func (s *Service) AccountSummary(ctx context.Context) (models.AccountSummary, error) {
	return s.gw.Account(ctx)
}

// FetchHistory — исторические свечи, duration/barSize прокидываются на
// гейтвей как есть ("1 D", "1 min").
func (s *Service) FetchHistory(ctx context.Context, duration, barSize string) ([]models.Candle, error) {
	contract, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return s.gw.HistoricalBars(ctx, contract, duration, barSize)
}
