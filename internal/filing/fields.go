package filing

import (
	"regexp"

	"github.com/wonny/halq/internal/contracts"
)

// StatementType identifies one of the five DART statement dumps.
type StatementType string

const (
	StatementPL  StatementType = "PL"  // 손익계산서
	StatementCPL StatementType = "CPL" // 포괄손익계산서
	StatementCF  StatementType = "CF"  // 현금흐름표
	StatementBS  StatementType = "BS"  // 재무상태표
	StatementCE  StatementType = "CE"  // 자본변동표
)

// StatementOrder is the fixed order statement types are applied within a
// period. CPL follows PL so comprehensive-income rows only fill fields the
// income statement left empty (keep-first policy).
var StatementOrder = []StatementType{
	StatementPL, StatementCPL, StatementCF, StatementBS, StatementCE,
}

// FieldTarget maps one extraction concept to the label and taxonomy-code
// variants that denote it across filing vintages, plus typed access to the
// record field it populates.
// ⭐ SSOT: 항목명/코드 해석 테이블은 여기서만
type FieldTarget struct {
	Name   string   // concept name, used in logs and conflict warnings
	Labels []string // normalized Hangul label variants
	Codes  []string // XBRL taxonomy code variants (ifrs / ifrs-full / dart)
	Get    func(*contracts.Corp) *int64
	Set    func(*contracts.Corp, int64)
}

// Matches reports whether a row's normalized label or raw taxonomy code
// denotes this concept. Both are tried because taxonomy revisions changed
// codes for the same concept across years.
func (t *FieldTarget) Matches(label, code string) bool {
	for _, l := range t.Labels {
		if label == l {
			return true
		}
	}
	for _, c := range t.Codes {
		if code == c {
			return true
		}
	}
	return false
}

// labelNormalizer strips everything that is not Hangul or parentheses, so
// label variants differ only in the characters that carry meaning.
var labelNormalizer = regexp.MustCompile(`[^()가-힣]`)

func normalizeLabel(s string) string {
	return labelNormalizer.ReplaceAllString(s, "")
}

// statementTargets is the ordered resolution table per statement type.
// First matching concept wins for a row; first value observed wins for a
// field (see conflict handling in statement.go).
var statementTargets = map[StatementType][]FieldTarget{
	StatementPL:  incomeTargets,
	StatementCPL: incomeTargets, // fallback source for the same concepts
	StatementCF: {
		{
			Name:   "cash_flow",
			Labels: []string{"영업활동현금흐름", "영업활동으로인한현금흐름"},
			Codes: []string{
				"ifrs_CashFlowsFromUsedInOperatingActivities",
				"ifrs-full_CashFlowsFromUsedInOperatingActivities",
			},
			Get: func(c *contracts.Corp) *int64 { return c.CashFlow },
			Set: func(c *contracts.Corp, v int64) { c.CashFlow = &v },
		},
		{
			Name:   "capex_intangible",
			Labels: []string{"무형자산의취득"},
			Codes: []string{
				"ifrs_PurchaseOfIntangibleAssetsClassifiedAsInvestingActivities",
				"ifrs-full_PurchaseOfIntangibleAssetsClassifiedAsInvestingActivities",
			},
			Get: func(c *contracts.Corp) *int64 { return c.CapexIntangible },
			Set: func(c *contracts.Corp, v int64) { c.CapexIntangible = &v },
		},
		{
			Name:   "capex_property",
			Labels: []string{"유형자산의취득"},
			Codes: []string{
				"ifrs_PurchaseOfPropertyPlantAndEquipmentClassifiedAsInvestingActivities",
				"ifrs-full_PurchaseOfPropertyPlantAndEquipmentClassifiedAsInvestingActivities",
			},
			Get: func(c *contracts.Corp) *int64 { return c.CapexProperty },
			Set: func(c *contracts.Corp, v int64) { c.CapexProperty = &v },
		},
	},
	StatementBS: {
		{
			Name:   "assets",
			Labels: []string{"자산총계"},
			Codes:  []string{"ifrs_Assets", "ifrs-full_Assets"},
			Get:    func(c *contracts.Corp) *int64 { return c.Assets },
			Set:    func(c *contracts.Corp, v int64) { c.Assets = &v },
		},
		{
			Name:   "equity",
			Labels: []string{"자본총계"},
			Codes:  []string{"ifrs_Equity", "ifrs-full_Equity"},
			Get:    func(c *contracts.Corp) *int64 { return c.Equity },
			Set:    func(c *contracts.Corp, v int64) { c.Equity = &v },
		},
		{
			Name:   "liabilities",
			Labels: []string{"부채총계"},
			Codes:  []string{"ifrs_Liabilities", "ifrs-full_Liabilities"},
			Get:    func(c *contracts.Corp) *int64 { return c.Liabilities },
			Set:    func(c *contracts.Corp, v int64) { c.Liabilities = &v },
		},
	},
	StatementCE: {
		{
			Name:   "equity_issue",
			Labels: []string{"유상증자"},
			Codes:  []string{"ifrs-full_IssueOfEquity", "ifrs_IssueOfEquity"},
			// EquityIssue defaults to 0 rather than null; conflict
			// detection treats 0 as unset.
			Get: func(c *contracts.Corp) *int64 {
				if c.EquityIssue == 0 {
					return nil
				}
				return &c.EquityIssue
			},
			Set: func(c *contracts.Corp, v int64) { c.EquityIssue = v },
		},
	},
}

// incomeTargets is shared by PL and CPL: the comprehensive-income statement
// carries the same concepts and acts as a fallback when the income
// statement is absent for a company.
var incomeTargets = []FieldTarget{
	{
		Name: "net_income",
		Labels: []string{
			"당기순이익", "당기순이익(손실)", "분기순이익", "분기순이익(손실)",
		},
		Codes: []string{"ifrs_ProfitLoss", "ifrs-full_ProfitLoss"},
		Get:   func(c *contracts.Corp) *int64 { return c.NetIncome },
		Set:   func(c *contracts.Corp, v int64) { c.NetIncome = &v },
	},
	{
		Name:   "sales",
		Labels: []string{"매출액", "매출", "수익(매출액)"},
		Codes:  []string{"ifrs_Revenue", "ifrs-full_Revenue"},
		Get:    func(c *contracts.Corp) *int64 { return c.Sales },
		Set:    func(c *contracts.Corp, v int64) { c.Sales = &v },
	},
	{
		Name:   "sales_cost",
		Labels: []string{"매출원가"},
		Codes:  []string{"ifrs_CostOfSales", "ifrs-full_CostOfSales"},
		Get:    func(c *contracts.Corp) *int64 { return c.SalesCost },
		Set:    func(c *contracts.Corp, v int64) { c.SalesCost = &v },
	},
	{
		Name:   "profit",
		Labels: []string{"영업이익(손실)", "영업이익", "영업손실"},
		Codes:  []string{"dart_OperatingIncomeLoss"},
		Get:    func(c *contracts.Corp) *int64 { return c.Profit },
		Set:    func(c *contracts.Corp, v int64) { c.Profit = &v },
	},
}

// resolve returns the first concept in the statement's table matched by the
// row's label or code, or nil if the row is not an extraction target.
func resolve(st StatementType, label, code string) *FieldTarget {
	targets := statementTargets[st]
	for i := range targets {
		if targets[i].Matches(label, code) {
			return &targets[i]
		}
	}
	return nil
}
