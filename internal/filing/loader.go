package filing

import (
	"errors"
	"io/fs"
	"sort"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/pkg/logger"
)

// ErrPeriodMissing signals that the expected input files for a period do
// not exist. Callers use it to skip holes in the historical record; it is
// distinct from a period whose files exist but contain no qualifying
// companies (an empty, non-nil result).
var ErrPeriodMissing = errors.New("period input files missing")

// PeriodLoader orchestrates the statement parser and shares loader across
// all statement types for one (year, quarter).
// ⭐ SSOT: 분기 단위 로딩 순서는 여기서만
type PeriodLoader struct {
	statements *StatementParser
	shares     *SharesLoader
	logger     *logger.Logger
}

// NewPeriodLoader creates a loader reading from dataDir.
func NewPeriodLoader(dataDir string, log *logger.Logger) *PeriodLoader {
	return &PeriodLoader{
		statements: NewStatementParser(dataDir, log),
		shares:     NewSharesLoader(dataDir, log),
		logger:     log.WithField("module", "filing"),
	}
}

// Load parses every statement dump for the period — {PL, CPL, CF, BS, CE}
// each standalone then consolidated — followed by the price/shares extract,
// against one shared record set. The result is ordered by ascending stock
// code so downstream stages see a deterministic input order.
//
// A missing input file yields ErrPeriodMissing; any other failure also
// aborts only this period (the caller decides whether to continue with
// sibling periods).
func (l *PeriodLoader) Load(p contracts.Period) ([]*contracts.Corp, error) {
	corps := make(map[string]*contracts.Corp)

	for _, st := range StatementOrder {
		for _, consolidated := range []bool{false, true} {
			err := l.statements.Parse(p.Year, p.Quarter, st, consolidated, corps)
			if err != nil {
				return nil, periodErr(err)
			}
		}
	}

	if err := l.shares.Load(p.Year, p.Quarter, corps); err != nil {
		return nil, periodErr(err)
	}

	result := make([]*contracts.Corp, 0, len(corps))
	for _, c := range corps {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Stock < result[j].Stock
	})

	l.logger.WithFields(map[string]interface{}{
		"period": p.String(),
		"corps":  len(result),
	}).Info("Period loaded")

	return result, nil
}

func periodErr(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return ErrPeriodMissing
	}
	return err
}
