package indicator

import (
	"fmt"
	"math"

	"github.com/wonny/halq/internal/contracts"
)

// Derivation declares one simple (single-period) derived field: its column
// name, the derived fields it reads, and the computation. The table is
// topologically sorted once at init so every field is computed after its
// dependencies regardless of declaration order.
// ⭐ SSOT: 단순 파생 지표 정의는 이 테이블에서만
type Derivation struct {
	Field string
	Needs []string // derived fields read by Apply (raw fields need no declaration)
	Apply func(*contracts.Corp)
}

var derivations = []Derivation{
	{
		Field: "capex",
		Apply: func(c *contracts.Corp) { c.Capex = addI(c.CapexIntangible, c.CapexProperty) },
	},
	{
		Field: "market_cap",
		Apply: func(c *contracts.Corp) { c.MarketCap = mulI(c.Price, c.Shares) },
	},
	{
		Field: "book_value",
		Apply: func(c *contracts.Corp) { c.BookValue = subI(c.Assets, c.Liabilities) },
	},
	{
		Field: "sales_profit",
		Apply: func(c *contracts.Corp) { c.SalesProfit = subI(c.Sales, c.SalesCost) },
	},
	{
		Field: "fcf",
		Needs: []string{"capex"},
		Apply: func(c *contracts.Corp) { c.FCF = subI(c.CashFlow, c.Capex) },
	},
	{
		Field: "per",
		Needs: []string{"market_cap"},
		Apply: func(c *contracts.Corp) { c.PER = ratio(c.MarketCap, c.NetIncome) },
	},
	{
		Field: "pbr",
		Needs: []string{"market_cap", "book_value"},
		Apply: func(c *contracts.Corp) { c.PBR = ratio(c.MarketCap, c.BookValue) },
	},
	{
		Field: "psr",
		Needs: []string{"market_cap"},
		Apply: func(c *contracts.Corp) { c.PSR = ratio(c.MarketCap, c.Sales) },
	},
	{
		Field: "pcr",
		Needs: []string{"market_cap"},
		Apply: func(c *contracts.Corp) { c.PCR = ratio(c.MarketCap, c.CashFlow) },
	},
	{
		Field: "pfcr",
		Needs: []string{"market_cap", "fcf"},
		Apply: func(c *contracts.Corp) { c.PFCR = ratio(c.MarketCap, c.FCF) },
	},
	{
		Field: "iper",
		Needs: []string{"per"},
		Apply: func(c *contracts.Corp) { c.IPER = invert(c.PER) },
	},
	{
		Field: "ipbr",
		Needs: []string{"pbr"},
		Apply: func(c *contracts.Corp) { c.IPBR = invert(c.PBR) },
	},
	{
		Field: "ipsr",
		Needs: []string{"psr"},
		Apply: func(c *contracts.Corp) { c.IPSR = invert(c.PSR) },
	},
	{
		Field: "ipcr",
		Needs: []string{"pcr"},
		Apply: func(c *contracts.Corp) { c.IPCR = invert(c.PCR) },
	},
	{
		Field: "ipfcr",
		Needs: []string{"pfcr"},
		Apply: func(c *contracts.Corp) { c.IPFCR = invert(c.PFCR) },
	},
	{
		Field: "roa",
		Apply: func(c *contracts.Corp) { c.ROA = ratio(c.NetIncome, c.Assets) },
	},
	{
		Field: "roe",
		Apply: func(c *contracts.Corp) { c.ROE = ratio(c.NetIncome, c.Equity) },
	},
	{
		Field: "gpa",
		Needs: []string{"sales_profit", "book_value"},
		Apply: func(c *contracts.Corp) { c.GPA = ratio(c.SalesProfit, c.BookValue) },
	},
	{
		Field: "fscore_k",
		Apply: func(c *contracts.Corp) {
			var score int64
			if c.EquityIssue > 0 {
				score++
			}
			if c.NetIncome != nil && *c.NetIncome > 0 {
				score++
			}
			if c.CashFlow != nil && *c.CashFlow > 0 {
				score++
			}
			c.FScoreK = &score
		},
	},
}

// ordered is the dependency-sorted derivation list, resolved once.
var ordered = mustSort(derivations)

// mustSort topologically sorts the derivation table. Panics on an unknown
// dependency or a cycle, both of which are programming errors in the table.
func mustSort(table []Derivation) []Derivation {
	byField := make(map[string]*Derivation, len(table))
	for i := range table {
		byField[table[i].Field] = &table[i]
	}

	sorted := make([]Derivation, 0, len(table))
	state := make(map[string]int, len(table)) // 0 unvisited, 1 visiting, 2 done

	var visit func(field string)
	visit = func(field string) {
		switch state[field] {
		case 2:
			return
		case 1:
			panic(fmt.Sprintf("indicator: dependency cycle through %q", field))
		}
		d, ok := byField[field]
		if !ok {
			panic(fmt.Sprintf("indicator: unknown dependency %q", field))
		}
		state[field] = 1
		for _, need := range d.Needs {
			visit(need)
		}
		state[field] = 2
		sorted = append(sorted, *d)
	}

	for i := range table {
		visit(table[i].Field)
	}
	return sorted
}

// ApplySimple computes every single-period derived field on one record, in
// dependency order. Pure function of the raw fields: re-applying it to an
// already-derived record yields identical values.
func ApplySimple(c *contracts.Corp) {
	for i := range ordered {
		ordered[i].Apply(c)
	}
}

// ApplyCross computes the prior-period snapshots and growth rates for one
// record, given its prior-quarter and prior-year counterparts (either may
// be nil when the historical record has a hole; affected fields stay null).
// Requires ApplySimple to have run on qoq already (book_value).
func ApplyCross(c, qoq, yoy *contracts.Corp) {
	if qoq != nil {
		c.QoQProfit = copyI(qoq.Profit)
		c.QoQNetIncome = copyI(qoq.NetIncome)
		c.QoQAssets = copyI(qoq.Assets)
		c.QoQBookValue = copyI(qoq.BookValue)
	}
	if yoy != nil {
		c.YoYProfit = copyI(yoy.Profit)
		c.YoYNetIncome = copyI(yoy.NetIncome)
	}

	c.ProfitGrowthQoQ = growth(c.Profit, c.QoQProfit)
	c.ProfitGrowthYoY = growth(c.Profit, c.YoYProfit)
	c.NetIncomeGrowthQoQ = growth(c.NetIncome, c.QoQNetIncome)
	c.NetIncomeGrowthYoY = growth(c.NetIncome, c.YoYNetIncome)
	c.AssetsGrowthQoQ = growth(c.Assets, c.QoQAssets)
	c.BookValueGrowthQoQ = growth(c.BookValue, c.QoQBookValue)
}

// Arithmetic on nullable fields. Null inputs propagate null; a
// present-but-zero denominator is a valid numeric condition and yields
// positive infinity, so extreme ratios sort to an extreme instead of
// crashing the pipeline.

func addI(a, b *int64) *int64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a + *b
	return &v
}

func subI(a, b *int64) *int64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

func mulI(a, b *int64) *int64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a * *b
	return &v
}

func copyI(a *int64) *int64 {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}

func ratio(num, den *int64) *float64 {
	if num == nil || den == nil {
		return nil
	}
	if *den == 0 {
		v := math.Inf(1)
		return &v
	}
	v := float64(*num) / float64(*den)
	return &v
}

func invert(r *float64) *float64 {
	if r == nil {
		return nil
	}
	if *r == 0 {
		v := math.Inf(1)
		return &v
	}
	v := 1 / *r
	return &v
}

// growth returns (current − prior) / prior.
func growth(current, prior *int64) *float64 {
	if current == nil || prior == nil {
		return nil
	}
	if *prior == 0 {
		v := math.Inf(1)
		return &v
	}
	v := float64(*current-*prior) / float64(*prior)
	return &v
}
