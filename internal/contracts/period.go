package contracts

import (
	"fmt"
	"time"
)

// Period identifies one fiscal quarter.
// ⭐ SSOT: (year, quarter) 순서 비교는 이 타입으로만
type Period struct {
	Year    int
	Quarter int
}

// Valid reports whether the quarter is in 1..4.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Quarter >= 1 && p.Quarter <= 4
}

// Key returns a sortable scalar (year*10 + quarter).
func (p Period) Key() int {
	return p.Year*10 + p.Quarter
}

// Prev returns the previous quarter (Q1 rolls back to Q4 of the prior year).
func (p Period) Prev() Period {
	if p.Quarter == 1 {
		return Period{Year: p.Year - 1, Quarter: 4}
	}
	return Period{Year: p.Year, Quarter: p.Quarter - 1}
}

// PrevYear returns the same quarter one year earlier.
func (p Period) PrevYear() Period {
	return Period{Year: p.Year - 1, Quarter: p.Quarter}
}

// Next returns the following quarter.
func (p Period) Next() Period {
	if p.Quarter == 4 {
		return Period{Year: p.Year + 1, Quarter: 1}
	}
	return Period{Year: p.Year, Quarter: p.Quarter + 1}
}

func (p Period) String() string {
	return fmt.Sprintf("%d-%dQ", p.Year, p.Quarter)
}

// CurrentPeriod returns the calendar quarter containing now.
func CurrentPeriod(now time.Time) Period {
	return Period{
		Year:    now.Year(),
		Quarter: (int(now.Month())-1)/3 + 1,
	}
}

// PeriodRange returns every period from `from` through `to`, inclusive,
// in ascending order. Returns nil if the range is empty or invalid.
func PeriodRange(from, to Period) []Period {
	if !from.Valid() || !to.Valid() || from.Key() > to.Key() {
		return nil
	}
	var periods []Period
	for p := from; p.Key() <= to.Key(); p = p.Next() {
		periods = append(periods, p)
	}
	return periods
}
