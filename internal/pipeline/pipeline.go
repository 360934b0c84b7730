package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/internal/filing"
	"github.com/wonny/halq/internal/indicator"
	"github.com/wonny/halq/internal/ranking"
	"github.com/wonny/halq/internal/store"
	"github.com/wonny/halq/pkg/logger"
)

// Pipeline runs the full batch: parallel period loads → store write →
// indicator derivation → cross-sectional ranking.
// ⭐ SSOT: 배치 실행 순서는 여기서만
type Pipeline struct {
	loader     *filing.PeriodLoader
	store      *store.Store
	indicators *indicator.Engine
	ranker     *ranking.Ranker
	logger     *logger.Logger
	workers    int
}

// New creates a pipeline reading dumps from dataDir and persisting into st.
func New(dataDir string, st *store.Store, workers int, log *logger.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		loader:     filing.NewPeriodLoader(dataDir, log),
		store:      st,
		indicators: indicator.NewEngine(st, log),
		ranker:     ranking.NewRanker(st, workers, log),
		logger:     log.WithField("module", "pipeline"),
		workers:    workers,
	}
}

// loadResult carries one period's load outcome out of the worker pool.
type loadResult struct {
	period contracts.Period
	corps  []*contracts.Corp
	err    error
}

// Run rebuilds the store from the given period range. Absent periods are
// skipped; a failed period load never cancels its siblings.
func (p *Pipeline) Run(ctx context.Context, from, to contracts.Period) error {
	periods := contracts.PeriodRange(from, to)
	if len(periods) == 0 {
		return fmt.Errorf("empty period range %s..%s", from, to)
	}

	p.logger.WithFields(map[string]interface{}{
		"from":    from.String(),
		"to":      to.String(),
		"periods": len(periods),
		"workers": p.workers,
	}).Info("Starting full rebuild")

	loaded := p.loadAll(periods)

	if err := p.store.Rebuild(ctx); err != nil {
		return err
	}

	total := 0
	for _, res := range loaded {
		if err := p.store.InsertPeriod(ctx, res.corps); err != nil {
			return fmt.Errorf("insert %s: %w", res.period, err)
		}
		total += len(res.corps)
	}
	p.logger.WithFields(map[string]interface{}{
		"periods": len(loaded),
		"rows":    total,
	}).Info("Initial load committed")

	return p.Recalculate(ctx)
}

// Recalculate reruns the derivation and ranking stages over the persisted
// table. Both are pure functions of the raw fields already present, so
// rerunning from a consistent state is idempotent.
func (p *Pipeline) Recalculate(ctx context.Context) error {
	if err := p.indicators.Run(ctx); err != nil {
		return err
	}
	return p.ranker.Run(ctx)
}

// loadAll runs the period loads across the worker pool, filters out absent
// periods, and returns the survivors in ascending period order. There is no
// shared mutable state between period loads; coordination is collection
// only.
func (p *Pipeline) loadAll(periods []contracts.Period) []loadResult {
	periodCh := make(chan contracts.Period, len(periods))
	resultCh := make(chan loadResult, len(periods))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for period := range periodCh {
				corps, err := p.loader.Load(period)
				resultCh <- loadResult{period: period, corps: corps, err: err}
			}
		}()
	}

	for _, period := range periods {
		periodCh <- period
	}
	close(periodCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var loaded []loadResult
	for res := range resultCh {
		switch {
		case errors.Is(res.err, filing.ErrPeriodMissing):
			p.logger.WithField("period", res.period.String()).
				Debug("Period files missing, skipping")
		case res.err != nil:
			p.logger.WithError(res.err).
				WithField("period", res.period.String()).
				Warn("Period load failed, skipping")
		default:
			loaded = append(loaded, res)
		}
	}

	sort.Slice(loaded, func(i, j int) bool {
		return loaded[i].period.Key() < loaded[j].period.Key()
	})
	return loaded
}
