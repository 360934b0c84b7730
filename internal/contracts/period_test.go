package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriod_Prev(t *testing.T) {
	assert.Equal(t, Period{2021, 2}, Period{2021, 3}.Prev())
	// Q1 rolls back to the prior year's Q4.
	assert.Equal(t, Period{2020, 4}, Period{2021, 1}.Prev())
}

func TestPeriod_PrevYear(t *testing.T) {
	assert.Equal(t, Period{2020, 3}, Period{2021, 3}.PrevYear())
}

func TestPeriod_Next(t *testing.T) {
	assert.Equal(t, Period{2021, 4}, Period{2021, 3}.Next())
	assert.Equal(t, Period{2022, 1}, Period{2021, 4}.Next())
}

func TestPeriod_String(t *testing.T) {
	assert.Equal(t, "2021-3Q", Period{2021, 3}.String())
}

func TestCurrentPeriod(t *testing.T) {
	tests := []struct {
		month time.Month
		want  int
	}{
		{time.January, 1},
		{time.March, 1},
		{time.April, 2},
		{time.June, 2},
		{time.July, 3},
		{time.October, 4},
		{time.December, 4},
	}
	for _, tt := range tests {
		now := time.Date(2021, tt.month, 15, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, Period{2021, tt.want}, CurrentPeriod(now), tt.month.String())
	}
}

func TestPeriodRange(t *testing.T) {
	periods := PeriodRange(Period{2020, 3}, Period{2021, 2})
	assert.Equal(t, []Period{
		{2020, 3}, {2020, 4}, {2021, 1}, {2021, 2},
	}, periods)

	assert.Equal(t, []Period{{2021, 1}}, PeriodRange(Period{2021, 1}, Period{2021, 1}))
	assert.Nil(t, PeriodRange(Period{2021, 2}, Period{2021, 1}))
	assert.Nil(t, PeriodRange(Period{2021, 5}, Period{2022, 1}))
}

func TestCorp_HasFullData(t *testing.T) {
	c := NewCorp("삼성전자", "005930", MarketKOSPI, 2021, 1)
	assert.False(t, c.HasFullData())

	v := int64(1)
	c.Sales, c.SalesCost, c.NetIncome, c.Profit = &v, &v, &v, &v
	c.CashFlow, c.CapexIntangible, c.CapexProperty = &v, &v, &v
	c.Assets, c.Equity, c.Liabilities = &v, &v, &v
	c.Price, c.Shares = &v, &v
	assert.True(t, c.HasFullData())
}
