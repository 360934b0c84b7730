package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/halq/internal/contracts"
)

func i64(v int64) *int64 { return &v }

// fullCorp returns a record with every raw field populated.
func fullCorp() *contracts.Corp {
	c := contracts.NewCorp("삼성전자", "005930", contracts.MarketKOSPI, 2021, 1)
	c.Sales = i64(1000)
	c.SalesCost = i64(600)
	c.NetIncome = i64(200)
	c.Profit = i64(250)
	c.CashFlow = i64(300)
	c.CapexIntangible = i64(10)
	c.CapexProperty = i64(40)
	c.Assets = i64(5000)
	c.Equity = i64(3000)
	c.Liabilities = i64(2000)
	c.EquityIssue = 50
	c.Price = i64(100)
	c.Shares = i64(10)
	return c
}

func TestApplySimple(t *testing.T) {
	c := fullCorp()
	ApplySimple(c)

	require.NotNil(t, c.Capex)
	assert.Equal(t, int64(50), *c.Capex)
	require.NotNil(t, c.MarketCap)
	assert.Equal(t, int64(1000), *c.MarketCap) // price × shares exactly
	require.NotNil(t, c.BookValue)
	assert.Equal(t, int64(3000), *c.BookValue) // assets − liabilities exactly
	require.NotNil(t, c.SalesProfit)
	assert.Equal(t, int64(400), *c.SalesProfit)
	require.NotNil(t, c.FCF)
	assert.Equal(t, int64(250), *c.FCF)

	require.NotNil(t, c.PER)
	assert.InDelta(t, 5.0, *c.PER, 1e-9) // 1000/200
	require.NotNil(t, c.PBR)
	assert.InDelta(t, 1000.0/3000.0, *c.PBR, 1e-9)
	require.NotNil(t, c.PSR)
	assert.InDelta(t, 1.0, *c.PSR, 1e-9)
	require.NotNil(t, c.PCR)
	assert.InDelta(t, 1000.0/300.0, *c.PCR, 1e-9)
	require.NotNil(t, c.PFCR)
	assert.InDelta(t, 4.0, *c.PFCR, 1e-9) // 1000/(300-50)

	require.NotNil(t, c.IPER)
	assert.InDelta(t, 0.2, *c.IPER, 1e-9)
	require.NotNil(t, c.ROA)
	assert.InDelta(t, 200.0/5000.0, *c.ROA, 1e-9)
	require.NotNil(t, c.ROE)
	assert.InDelta(t, 200.0/3000.0, *c.ROE, 1e-9)
	require.NotNil(t, c.GPA)
	assert.InDelta(t, 400.0/3000.0, *c.GPA, 1e-9)

	// equity_issue>0, net_income>0, cash_flow>0
	require.NotNil(t, c.FScoreK)
	assert.Equal(t, int64(3), *c.FScoreK)
}

func TestApplySimple_ZeroDenominatorIsInfinity(t *testing.T) {
	// Zero net income yields an infinite PER, not an error.
	c := fullCorp()
	c.NetIncome = i64(0)
	ApplySimple(c)

	require.NotNil(t, c.PER)
	assert.True(t, math.IsInf(*c.PER, 1))
	// 1/inf collapses to zero, which still sorts meaningfully.
	require.NotNil(t, c.IPER)
	assert.Equal(t, 0.0, *c.IPER)
}

func TestApplySimple_NullPropagation(t *testing.T) {
	// A missing input leaves every dependent field null, never panics.
	c := fullCorp()
	c.Price = nil
	c.Assets = nil
	ApplySimple(c)

	assert.Nil(t, c.MarketCap)
	assert.Nil(t, c.PER)
	assert.Nil(t, c.PBR)
	assert.Nil(t, c.IPER)
	assert.Nil(t, c.BookValue)
	assert.Nil(t, c.ROA)
	assert.Nil(t, c.GPA)

	// Fields with intact inputs still derive.
	require.NotNil(t, c.SalesProfit)
	require.NotNil(t, c.ROE)
}

func TestApplySimple_FScoreCounting(t *testing.T) {
	c := fullCorp()
	c.EquityIssue = 0
	c.NetIncome = i64(-5)
	ApplySimple(c)

	require.NotNil(t, c.FScoreK)
	assert.Equal(t, int64(1), *c.FScoreK) // only cash_flow > 0

	// Null inputs count as not-positive, score stays defined.
	c2 := fullCorp()
	c2.EquityIssue = 0
	c2.NetIncome = nil
	c2.CashFlow = nil
	ApplySimple(c2)
	require.NotNil(t, c2.FScoreK)
	assert.Equal(t, int64(0), *c2.FScoreK)
}

func TestApplySimple_Idempotent(t *testing.T) {
	c1 := fullCorp()
	ApplySimple(c1)

	// Re-deriving an already-derived record changes nothing.
	c2 := fullCorp()
	ApplySimple(c2)
	ApplySimple(c2)

	assert.Equal(t, c1, c2)
}

func TestApplyCross(t *testing.T) {
	// Q1 falls back to the prior year's Q4.
	prior := contracts.NewCorp("X", "000001", contracts.MarketKOSPI, 2020, 4)
	prior.Profit = i64(100)
	prior.NetIncome = i64(80)
	prior.Assets = i64(1000)
	prior.Liabilities = i64(400)
	ApplySimple(prior)

	c := contracts.NewCorp("X", "000001", contracts.MarketKOSPI, 2021, 1)
	c.Profit = i64(150)
	c.NetIncome = i64(40)
	c.Assets = i64(1100)
	c.Liabilities = i64(400)
	ApplySimple(c)
	ApplyCross(c, prior, nil)

	require.NotNil(t, c.QoQProfit)
	assert.Equal(t, int64(100), *c.QoQProfit)
	require.NotNil(t, c.ProfitGrowthQoQ)
	assert.InDelta(t, 0.5, *c.ProfitGrowthQoQ, 1e-9)
	require.NotNil(t, c.NetIncomeGrowthQoQ)
	assert.InDelta(t, -0.5, *c.NetIncomeGrowthQoQ, 1e-9)
	require.NotNil(t, c.QoQBookValue)
	assert.Equal(t, int64(600), *c.QoQBookValue)
	require.NotNil(t, c.BookValueGrowthQoQ)
	assert.InDelta(t, (700.0-600.0)/600.0, *c.BookValueGrowthQoQ, 1e-9)

	// No prior-year row: YoY fields stay null, no backfill.
	assert.Nil(t, c.YoYProfit)
	assert.Nil(t, c.ProfitGrowthYoY)
}

func TestApplyCross_ZeroPriorIsInfinity(t *testing.T) {
	prior := contracts.NewCorp("X", "000001", contracts.MarketKOSPI, 2020, 4)
	prior.Profit = i64(0)

	c := contracts.NewCorp("X", "000001", contracts.MarketKOSPI, 2021, 1)
	c.Profit = i64(10)
	ApplyCross(c, prior, nil)

	require.NotNil(t, c.ProfitGrowthQoQ)
	assert.True(t, math.IsInf(*c.ProfitGrowthQoQ, 1))
}

func TestApplyCross_NoPriorRows(t *testing.T) {
	c := fullCorp()
	ApplySimple(c)
	ApplyCross(c, nil, nil)

	assert.Nil(t, c.QoQProfit)
	assert.Nil(t, c.YoYNetIncome)
	assert.Nil(t, c.ProfitGrowthQoQ)
	assert.Nil(t, c.NetIncomeGrowthYoY)
}

func TestDerivationOrder(t *testing.T) {
	// Every declared dependency must precede its dependent.
	position := make(map[string]int, len(ordered))
	for i, d := range ordered {
		position[d.Field] = i
	}

	require.Len(t, ordered, len(derivations))
	for _, d := range derivations {
		for _, need := range d.Needs {
			assert.Less(t, position[need], position[d.Field],
				"%s must derive after %s", d.Field, need)
		}
	}
}
