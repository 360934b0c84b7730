package filing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/halq/internal/contracts"
)

// writeFullPeriod writes every statement dump (standalone + consolidated)
// and the shares extract for one period.
func writeFullPeriod(t *testing.T, dir string, p contracts.Period, statementLines map[StatementType][]string, shares string) {
	t.Helper()
	for _, st := range StatementOrder {
		lines := statementLines[st]
		writeStatement(t, dir, p.Year, p.Quarter, st, false, lines...)
		writeStatement(t, dir, p.Year, p.Quarter, st, true)
	}
	writeShares(t, dir, p.Year, p.Quarter, shares)
}

func TestPeriodLoader_Load(t *testing.T) {
	dir := t.TempDir()
	p := contracts.Period{Year: 2021, Quarter: 1}

	writeFullPeriod(t, dir, p, map[StatementType][]string{
		StatementPL: {
			statementRow("005930", "삼성전자", kospiSegment, "", "매출액", "1,000"),
			statementRow("005930", "삼성전자", kospiSegment, "", "매출원가", "600"),
			statementRow("005930", "삼성전자", kospiSegment, "", "당기순이익", "200"),
			statementRow("005930", "삼성전자", kospiSegment, "", "영업이익", "250"),
			statementRow("035720", "카카오", kosdaqSegment, "", "매출액", "500"),
		},
		StatementCF: {
			statementRow("005930", "삼성전자", kospiSegment, "", "영업활동현금흐름", "300"),
			statementRow("005930", "삼성전자", kospiSegment, "", "무형자산의취득", "10"),
			statementRow("005930", "삼성전자", kospiSegment, "", "유형자산의취득", "40"),
		},
		StatementBS: {
			statementRow("005930", "삼성전자", kospiSegment, "", "자산총계", "5000"),
			statementRow("005930", "삼성전자", kospiSegment, "ifrs_Equity", "자본총계", "3000"),
			statementRow("005930", "삼성전자", kospiSegment, "", "부채총계", "2000"),
		},
		StatementCE: {
			statementRow("005930", "삼성전자", kospiSegment, "ifrs-full_IssueOfEquity", "유상증자", "50"),
		},
	}, `"005930","삼성전자","KOSPI","","81400","","5969782550"
`)

	l := NewPeriodLoader(dir, testLogger())
	corps, err := l.Load(p)
	require.NoError(t, err)
	require.Len(t, corps, 2)

	// Ascending stock-code order.
	assert.Equal(t, "005930", corps[0].Stock)
	assert.Equal(t, "035720", corps[1].Stock)

	samsung := corps[0]
	require.NotNil(t, samsung.Sales)
	assert.Equal(t, int64(1000), *samsung.Sales)
	assert.Equal(t, int64(600), *samsung.SalesCost)
	assert.Equal(t, int64(200), *samsung.NetIncome)
	assert.Equal(t, int64(250), *samsung.Profit)
	assert.Equal(t, int64(300), *samsung.CashFlow)
	assert.Equal(t, int64(10), *samsung.CapexIntangible)
	assert.Equal(t, int64(40), *samsung.CapexProperty)
	assert.Equal(t, int64(5000), *samsung.Assets)
	assert.Equal(t, int64(3000), *samsung.Equity)
	assert.Equal(t, int64(2000), *samsung.Liabilities)
	assert.Equal(t, int64(50), samsung.EquityIssue)
	assert.Equal(t, int64(81400), *samsung.Price)
	assert.Equal(t, int64(5969782550), *samsung.Shares)
	assert.True(t, samsung.HasFullData())

	// Kakao only appeared on the income statement.
	assert.False(t, corps[1].HasFullData())
	assert.Equal(t, int64(0), corps[1].EquityIssue)
}

func TestPeriodLoader_MissingPeriod(t *testing.T) {
	l := NewPeriodLoader(t.TempDir(), testLogger())

	corps, err := l.Load(contracts.Period{Year: 2015, Quarter: 3})
	assert.ErrorIs(t, err, ErrPeriodMissing)
	assert.Nil(t, corps)
}

func TestPeriodLoader_AbsentDistinctFromEmpty(t *testing.T) {
	dir := t.TempDir()
	p := contracts.Period{Year: 2021, Quarter: 2}

	// All files exist but contain no qualifying companies.
	writeFullPeriod(t, dir, p, map[StatementType][]string{}, "\n")

	l := NewPeriodLoader(dir, testLogger())
	corps, err := l.Load(p)
	require.NoError(t, err)
	assert.NotNil(t, corps)
	assert.Empty(t, corps)
}

func TestPeriodLoader_PartialPeriodIsMissing(t *testing.T) {
	dir := t.TempDir()
	p := contracts.Period{Year: 2021, Quarter: 3}

	// Only the income statement exists; the period counts as absent
	// rather than producing a half-loaded record set.
	writeStatement(t, dir, p.Year, p.Quarter, StatementPL, false,
		statementRow("005930", "삼성전자", kospiSegment, "", "매출액", "1"),
	)

	l := NewPeriodLoader(dir, testLogger())
	_, err := l.Load(p)
	assert.ErrorIs(t, err, ErrPeriodMissing)
}
