package trading

import (
	"context"
	"sort"
	"sync"

	"futures_bot/internal/gateway"
	"futures_bot/internal/models"
	"futures_bot/pkg/logger"

	"github.com/pkg/errors"
)

// Resolver держит единственный квалифицированный контракт на процесс.
// Кеш без инвалидации: при смене фронт-месяца нужен рестарт.
type Resolver struct {
	gw   gateway.Gateway
	spec models.ContractSpec

	mu       sync.Mutex
	contract *models.Contract
}

func NewResolver(gw gateway.Gateway, spec models.ContractSpec) *Resolver {
	return &Resolver{gw: gw, spec: spec}
}

// Resolved — уже есть закешированный контракт (для health-проб).
func (r *Resolver) Resolved() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contract != nil
}

// Resolve идемпотентен: после первого успеха отдаёт тот же указатель
// без походов на гейтвей.
func (r *Resolver) Resolve(ctx context.Context) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.contract != nil {
		return r.contract, nil
	}

	// 1. Прямая квалификация без expiry — гейтвей сам подставит фронт-месяц.
	c, err := r.gw.QualifyContract(ctx, r.spec)
	if err == nil && c != nil {
		r.contract = c
		logger.Info("contract qualified: %s %s @%s exp=%s", c.Symbol, c.SecType, c.Exchange, c.Expiry)
		return r.contract, nil
	}
	if errors.Is(err, gateway.ErrGatewayUnavailable) {
		// нет коннекта — это не "контракт не найден", наверх как есть
		return nil, err
	}

	// 2. Фолбэк: просим детали по тому же тюплу и берём ближайший expiry.
	details, derr := r.gw.ContractDetails(ctx, r.spec)
	if derr != nil || len(details) == 0 {
		return nil, errors.Wrapf(gateway.ErrResolution, "symbol=%s", r.spec.Symbol)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Expiry < details[j].Expiry })
	front := details[0]
	r.contract = &front
	logger.Info("contract qualified via details: %s exp=%s", front.Symbol, front.Expiry)
	return r.contract, nil
}
