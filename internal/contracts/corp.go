package contracts

// Market identifies the exchange segment a company is listed on.
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// Corp is the normalized record for one company in one fiscal quarter.
// ⭐ SSOT: 분기별 기업 레코드 구조는 여기서만 정의
//
// Raw filing fields stay nil until a parser pass populates them; derived
// fields stay nil until the indicator engine fills them in. EquityIssue is
// the one raw field that defaults to 0 instead of null, because most
// companies simply have no equity issuance in a quarter.
type Corp struct {
	// Identity
	Name    string
	Stock   string
	Market  Market
	Year    int
	Quarter int

	// Raw filing fields (PL/CPL)
	Sales     *int64
	SalesCost *int64
	NetIncome *int64
	Profit    *int64 // operating income

	// Raw filing fields (CF)
	CashFlow        *int64
	CapexIntangible *int64
	CapexProperty   *int64

	// Raw filing fields (BS)
	Assets      *int64
	Equity      *int64
	Liabilities *int64

	// Raw filing fields (CE)
	EquityIssue int64

	// Market data (Stocks.csv)
	Price  *int64
	Shares *int64

	// Derived: simple, integer-valued
	Capex       *int64
	MarketCap   *int64
	BookValue   *int64
	SalesProfit *int64
	FCF         *int64

	// Derived: ratios
	PER  *float64
	PBR  *float64
	PSR  *float64
	PCR  *float64
	PFCR *float64

	IPER  *float64
	IPBR  *float64
	IPSR  *float64
	IPCR  *float64
	IPFCR *float64

	ROA *float64
	ROE *float64
	GPA *float64

	// Derived: prior-period snapshots
	QoQProfit    *int64
	QoQNetIncome *int64
	QoQAssets    *int64
	QoQBookValue *int64
	YoYProfit    *int64
	YoYNetIncome *int64

	// Derived: growth rates
	ProfitGrowthQoQ    *float64
	ProfitGrowthYoY    *float64
	NetIncomeGrowthQoQ *float64
	NetIncomeGrowthYoY *float64
	AssetsGrowthQoQ    *float64
	BookValueGrowthQoQ *float64

	// Derived: composite quality score (0..3)
	FScoreK *int64

	// Cross-sectional ranks within (year, quarter)
	OrdIPER               *int64
	OrdIPBR               *int64
	OrdIPSR               *int64
	OrdIPCR               *int64
	OrdIPFCR              *int64
	OrdProfitGrowthQoQ    *int64
	OrdProfitGrowthYoY    *int64
	OrdNetIncomeGrowthQoQ *int64
	OrdNetIncomeGrowthYoY *int64
	OrdAssetsGrowthQoQ    *int64
	OrdBookValueGrowthQoQ *int64
}

// NewCorp creates an empty record for a company in one quarter.
func NewCorp(name, stock string, market Market, year, quarter int) *Corp {
	return &Corp{
		Name:    name,
		Stock:   stock,
		Market:  market,
		Year:    year,
		Quarter: quarter,
	}
}

// Period returns the fiscal quarter this record belongs to.
func (c *Corp) Period() Period {
	return Period{Year: c.Year, Quarter: c.Quarter}
}

// HasFullData reports whether every raw filing field has been populated.
func (c *Corp) HasFullData() bool {
	for _, v := range []*int64{
		c.Sales, c.SalesCost, c.NetIncome, c.Profit,
		c.CashFlow, c.CapexIntangible, c.CapexProperty,
		c.Assets, c.Equity, c.Liabilities,
		c.Price, c.Shares,
	} {
		if v == nil {
			return false
		}
	}
	return true
}
