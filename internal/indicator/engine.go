package indicator

import (
	"context"
	"fmt"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/internal/store"
	"github.com/wonny/halq/pkg/logger"
)

// Engine computes derived fields over the full persisted time series.
// ⭐ SSOT: 지표 계산 순서(1단계 → 2단계)는 여기서만
type Engine struct {
	store  *store.Store
	logger *logger.Logger
}

// NewEngine creates a new indicator engine.
func NewEngine(st *store.Store, log *logger.Logger) *Engine {
	return &Engine{
		store:  st,
		logger: log.WithField("module", "indicator"),
	}
}

// Run executes both phases over every persisted period: phase 1 computes
// the simple derivations for all periods, then phase 2 computes the
// cross-period joins. The strict two-phase ordering matters: a period's
// qoq/yoy lookups read the referenced earlier period's simple fields
// (book_value in particular), so no join may start before every simple
// pass has committed.
func (e *Engine) Run(ctx context.Context) error {
	periods, err := e.store.Periods(ctx)
	if err != nil {
		return err
	}
	if len(periods) == 0 {
		e.logger.Warn("No periods in store, nothing to derive")
		return nil
	}

	for _, p := range periods {
		if err := e.runSimple(ctx, p); err != nil {
			return fmt.Errorf("simple derivations %s: %w", p, err)
		}
	}
	e.logger.WithField("periods", len(periods)).Info("Simple derivations committed")

	// Phase 2 reloads each period so the joins see the committed phase 1
	// values, never in-memory intermediates.
	cache := make(map[contracts.Period]map[string]*contracts.Corp)
	for _, p := range periods {
		if err := e.runCross(ctx, p, cache); err != nil {
			return fmt.Errorf("cross-period derivations %s: %w", p, err)
		}
	}
	e.logger.WithField("periods", len(periods)).Info("Cross-period derivations committed")

	return nil
}

// runSimple executes phase 1 for one period and commits it as a unit.
func (e *Engine) runSimple(ctx context.Context, p contracts.Period) error {
	corps, err := e.store.LoadPeriod(ctx, p)
	if err != nil {
		return err
	}
	for _, c := range corps {
		ApplySimple(c)
	}
	return e.store.UpdateDerived(ctx, corps)
}

// runCross executes phase 2 for one period and commits it as a unit. The
// cache holds already-loaded prior periods; consecutive periods share their
// qoq/yoy references, so most lookups hit it.
func (e *Engine) runCross(ctx context.Context, p contracts.Period, cache map[contracts.Period]map[string]*contracts.Corp) error {
	corps, err := e.store.LoadPeriod(ctx, p)
	if err != nil {
		return err
	}

	qoqRows, err := e.periodIndex(ctx, p.Prev(), cache)
	if err != nil {
		return err
	}
	yoyRows, err := e.periodIndex(ctx, p.PrevYear(), cache)
	if err != nil {
		return err
	}

	for _, c := range corps {
		ApplyCross(c, qoqRows[c.Stock], yoyRows[c.Stock])
	}
	return e.store.UpdateDerived(ctx, corps)
}

// periodIndex returns a by-stock index for one period, loading it on first
// use. An absent period indexes as empty: affected fields stay null, no
// retroactive backfill.
func (e *Engine) periodIndex(ctx context.Context, p contracts.Period, cache map[contracts.Period]map[string]*contracts.Corp) (map[string]*contracts.Corp, error) {
	if idx, ok := cache[p]; ok {
		return idx, nil
	}
	corps, err := e.store.LoadPeriod(ctx, p)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]*contracts.Corp, len(corps))
	for _, c := range corps {
		idx[c.Stock] = c
	}
	cache[p] = idx
	return idx, nil
}
