package ranking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/internal/store"
	"github.com/wonny/halq/pkg/logger"
)

// Indicator binds one ranking indicator to its value and rank fields.
type Indicator struct {
	Name    string
	Value   func(*contracts.Corp) *float64
	SetRank func(*contracts.Corp, int64)
}

// Indicators is the fixed set of cross-sectionally ranked indicators: the
// five inverse ratios and the six growth rates. Higher value = better =
// rank 1.
// ⭐ SSOT: 랭킹 대상 지표 목록은 여기서만
var Indicators = []Indicator{
	{
		Name:    "iper",
		Value:   func(c *contracts.Corp) *float64 { return c.IPER },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdIPER = &r },
	},
	{
		Name:    "ipbr",
		Value:   func(c *contracts.Corp) *float64 { return c.IPBR },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdIPBR = &r },
	},
	{
		Name:    "ipsr",
		Value:   func(c *contracts.Corp) *float64 { return c.IPSR },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdIPSR = &r },
	},
	{
		Name:    "ipcr",
		Value:   func(c *contracts.Corp) *float64 { return c.IPCR },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdIPCR = &r },
	},
	{
		Name:    "ipfcr",
		Value:   func(c *contracts.Corp) *float64 { return c.IPFCR },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdIPFCR = &r },
	},
	{
		Name:    "profit_growth_qoq",
		Value:   func(c *contracts.Corp) *float64 { return c.ProfitGrowthQoQ },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdProfitGrowthQoQ = &r },
	},
	{
		Name:    "profit_growth_yoy",
		Value:   func(c *contracts.Corp) *float64 { return c.ProfitGrowthYoY },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdProfitGrowthYoY = &r },
	},
	{
		Name:    "net_income_growth_qoq",
		Value:   func(c *contracts.Corp) *float64 { return c.NetIncomeGrowthQoQ },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdNetIncomeGrowthQoQ = &r },
	},
	{
		Name:    "net_income_growth_yoy",
		Value:   func(c *contracts.Corp) *float64 { return c.NetIncomeGrowthYoY },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdNetIncomeGrowthYoY = &r },
	},
	{
		Name:    "assets_growth_qoq",
		Value:   func(c *contracts.Corp) *float64 { return c.AssetsGrowthQoQ },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdAssetsGrowthQoQ = &r },
	},
	{
		Name:    "book_value_growth_qoq",
		Value:   func(c *contracts.Corp) *float64 { return c.BookValueGrowthQoQ },
		SetRank: func(c *contracts.Corp, r int64) { c.OrdBookValueGrowthQoQ = &r },
	},
}

// RankPeriod assigns cross-sectional ranks in place for one period's rows.
// Rows must arrive in ascending stock-code order: ties receive consecutive
// ranks in that order (stable sort), which makes the assignment
// deterministic without a secondary key. Rows with a null indicator rank
// after every non-null row, so the multiset of ranks is always {1..N}.
func RankPeriod(corps []*contracts.Corp) {
	for _, ind := range Indicators {
		ranked := make([]*contracts.Corp, 0, len(corps))
		var unranked []*contracts.Corp
		for _, c := range corps {
			if ind.Value(c) != nil {
				ranked = append(ranked, c)
			} else {
				unranked = append(unranked, c)
			}
		}

		sort.SliceStable(ranked, func(i, j int) bool {
			return *ind.Value(ranked[i]) > *ind.Value(ranked[j])
		})

		rank := int64(1)
		for _, c := range ranked {
			ind.SetRank(c, rank)
			rank++
		}
		for _, c := range unranked {
			ind.SetRank(c, rank)
			rank++
		}
	}
}

// Ranker computes per-period ranks over the whole store. Periods are
// independent partitions, so they rank in parallel.
// ⭐ SSOT: 횡단면 랭킹 실행은 여기서만
type Ranker struct {
	store   *store.Store
	logger  *logger.Logger
	workers int
}

// NewRanker creates a new ranker with the given parallelism.
func NewRanker(st *store.Store, workers int, log *logger.Logger) *Ranker {
	if workers < 1 {
		workers = 1
	}
	return &Ranker{
		store:   st,
		logger:  log.WithField("module", "ranking"),
		workers: workers,
	}
}

// Run ranks every period present in the store. Must run only after all
// indicator writes for those periods are committed.
func (r *Ranker) Run(ctx context.Context) error {
	periods, err := r.store.Periods(ctx)
	if err != nil {
		return err
	}

	periodCh := make(chan contracts.Period, len(periods))
	errCh := make(chan error, len(periods))

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range periodCh {
				if err := r.rankPeriod(ctx, p); err != nil {
					errCh <- fmt.Errorf("rank %s: %w", p, err)
				}
			}
		}()
	}

	for _, p := range periods {
		periodCh <- p
	}
	close(periodCh)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		// One failed period does not undo the others; report the first.
		return err
	}

	r.logger.WithField("periods", len(periods)).Info("Ranking completed")
	return nil
}

func (r *Ranker) rankPeriod(ctx context.Context, p contracts.Period) error {
	corps, err := r.store.LoadPeriod(ctx, p)
	if err != nil {
		return err
	}
	RankPeriod(corps)
	return r.store.UpdateRanks(ctx, corps)
}
