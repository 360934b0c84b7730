package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/pkg/logger"
)

// ErrStoreMissing signals that an update-only operation was invoked but the
// backing table has never been built. Fatal at the CLI level.
var ErrStoreMissing = errors.New("krx table does not exist, run a full rebuild first")

// Store persists Corp records keyed by (year, quarter, stock).
// ⭐ SSOT: krx 테이블 접근은 이 저장소에서만
type Store struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// New creates a new store backed by the given pool.
func New(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{
		pool:   pool,
		logger: log.WithField("module", "store"),
	}
}

// Rebuild drops and recreates the krx table with its indices. Index names
// match the on-disk contract other tools depend on.
func (s *Store) Rebuild(ctx context.Context) error {
	statements := []string{
		`DROP TABLE IF EXISTS krx`,
		`CREATE TABLE krx (
			name        text NOT NULL,
			stock       text NOT NULL,
			market      text NOT NULL,
			year        int  NOT NULL,
			quarter     int  NOT NULL,

			sales            bigint,
			sales_cost       bigint,
			net_income       bigint,
			profit           bigint,
			cash_flow        bigint,
			capex_intangible bigint,
			capex_property   bigint,
			assets           bigint,
			equity           bigint,
			liabilities      bigint,
			equity_issue     bigint NOT NULL DEFAULT 0,
			price            bigint,
			shares           bigint,

			capex        bigint,
			market_cap   bigint,
			book_value   bigint,
			sales_profit bigint,
			fcf          bigint,

			per   double precision,
			pbr   double precision,
			psr   double precision,
			pcr   double precision,
			pfcr  double precision,
			iper  double precision,
			ipbr  double precision,
			ipsr  double precision,
			ipcr  double precision,
			ipfcr double precision,
			roa   double precision,
			roe   double precision,
			gpa   double precision,

			qoq_profit     bigint,
			qoq_net_income bigint,
			qoq_assets     bigint,
			qoq_book_value bigint,
			yoy_profit     bigint,
			yoy_net_income bigint,

			profit_growth_qoq     double precision,
			profit_growth_yoy     double precision,
			net_income_growth_qoq double precision,
			net_income_growth_yoy double precision,
			assets_growth_qoq     double precision,
			book_value_growth_qoq double precision,

			fscore_k bigint,

			ord_iper                  bigint,
			ord_ipbr                  bigint,
			ord_ipsr                  bigint,
			ord_ipcr                  bigint,
			ord_ipfcr                 bigint,
			ord_profit_growth_qoq     bigint,
			ord_profit_growth_yoy     bigint,
			ord_net_income_growth_qoq bigint,
			ord_net_income_growth_yoy bigint,
			ord_assets_growth_qoq     bigint,
			ord_book_value_growth_qoq bigint
		)`,
		`CREATE UNIQUE INDEX index_key ON krx (year, quarter, stock)`,
		`CREATE INDEX index_year_quarter ON krx (year, quarter)`,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sql := range statements {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return fmt.Errorf("rebuild krx table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}

	s.logger.Info("krx table rebuilt")
	return nil
}

// Exists reports whether the krx table has been built.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT to_regclass('krx') IS NOT NULL`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check krx table: %w", err)
	}
	return exists, nil
}

// RequireExists returns ErrStoreMissing if the table has never been built.
func (s *Store) RequireExists(ctx context.Context) error {
	exists, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return ErrStoreMissing
	}
	return nil
}

// InsertPeriod bulk-appends one period's records in a single transaction.
// The unique index on (year, quarter, stock) rejects duplicates.
func (s *Store) InsertPeriod(ctx context.Context, corps []*contracts.Corp) error {
	if len(corps) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range corps {
		batch.Queue(`
			INSERT INTO krx (
				name, stock, market, year, quarter,
				sales, sales_cost, net_income, profit,
				cash_flow, capex_intangible, capex_property,
				assets, equity, liabilities, equity_issue,
				price, shares
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9,
				$10, $11, $12, $13, $14, $15, $16, $17, $18
			)`,
			c.Name, c.Stock, string(c.Market), c.Year, c.Quarter,
			c.Sales, c.SalesCost, c.NetIncome, c.Profit,
			c.CashFlow, c.CapexIntangible, c.CapexProperty,
			c.Assets, c.Equity, c.Liabilities, c.EquityIssue,
			c.Price, c.Shares,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert period: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"period": contracts.Period{Year: corps[0].Year, Quarter: corps[0].Quarter}.String(),
		"rows":   len(corps),
	}).Info("Period inserted")
	return nil
}

// Periods returns every distinct (year, quarter) present, ascending.
func (s *Store) Periods(ctx context.Context) ([]contracts.Period, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT year, quarter FROM krx ORDER BY year, quarter`)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var periods []contracts.Period
	for rows.Next() {
		var p contracts.Period
		if err := rows.Scan(&p.Year, &p.Quarter); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// corpColumns is the shared select list for full-record reads; scanCorp
// must stay in the same order.
const corpColumns = `
	name, stock, market, year, quarter,
	sales, sales_cost, net_income, profit,
	cash_flow, capex_intangible, capex_property,
	assets, equity, liabilities, equity_issue, price, shares,
	capex, market_cap, book_value, sales_profit, fcf,
	per, pbr, psr, pcr, pfcr,
	iper, ipbr, ipsr, ipcr, ipfcr,
	roa, roe, gpa,
	qoq_profit, qoq_net_income, qoq_assets, qoq_book_value,
	yoy_profit, yoy_net_income,
	profit_growth_qoq, profit_growth_yoy,
	net_income_growth_qoq, net_income_growth_yoy,
	assets_growth_qoq, book_value_growth_qoq,
	fscore_k`

func scanCorp(row pgx.Row) (*contracts.Corp, error) {
	var c contracts.Corp
	var market string
	err := row.Scan(
		&c.Name, &c.Stock, &market, &c.Year, &c.Quarter,
		&c.Sales, &c.SalesCost, &c.NetIncome, &c.Profit,
		&c.CashFlow, &c.CapexIntangible, &c.CapexProperty,
		&c.Assets, &c.Equity, &c.Liabilities, &c.EquityIssue, &c.Price, &c.Shares,
		&c.Capex, &c.MarketCap, &c.BookValue, &c.SalesProfit, &c.FCF,
		&c.PER, &c.PBR, &c.PSR, &c.PCR, &c.PFCR,
		&c.IPER, &c.IPBR, &c.IPSR, &c.IPCR, &c.IPFCR,
		&c.ROA, &c.ROE, &c.GPA,
		&c.QoQProfit, &c.QoQNetIncome, &c.QoQAssets, &c.QoQBookValue,
		&c.YoYProfit, &c.YoYNetIncome,
		&c.ProfitGrowthQoQ, &c.ProfitGrowthYoY,
		&c.NetIncomeGrowthQoQ, &c.NetIncomeGrowthYoY,
		&c.AssetsGrowthQoQ, &c.BookValueGrowthQoQ,
		&c.FScoreK,
	)
	if err != nil {
		return nil, err
	}
	c.Market = contracts.Market(market)
	return &c, nil
}

// LoadPeriod returns every record of one period, ordered by stock code.
// Uses the (year, quarter) index for the range scan.
func (s *Store) LoadPeriod(ctx context.Context, p contracts.Period) ([]*contracts.Corp, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+corpColumns+` FROM krx WHERE year = $1 AND quarter = $2 ORDER BY stock`,
		p.Year, p.Quarter)
	if err != nil {
		return nil, fmt.Errorf("load period %s: %w", p, err)
	}
	defer rows.Close()

	var corps []*contracts.Corp
	for rows.Next() {
		c, err := scanCorp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan corp: %w", err)
		}
		corps = append(corps, c)
	}
	return corps, rows.Err()
}

// Get returns one record by its unique key, or pgx.ErrNoRows.
func (s *Store) Get(ctx context.Context, p contracts.Period, stock string) (*contracts.Corp, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+corpColumns+` FROM krx WHERE year = $1 AND quarter = $2 AND stock = $3`,
		p.Year, p.Quarter, stock)
	return scanCorp(row)
}

// UpdateDerived writes back every derived (non-rank) field for the given
// records in a single transaction.
func (s *Store) UpdateDerived(ctx context.Context, corps []*contracts.Corp) error {
	if len(corps) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin derived update: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range corps {
		batch.Queue(`
			UPDATE krx SET
				capex = $1, market_cap = $2, book_value = $3,
				sales_profit = $4, fcf = $5,
				per = $6, pbr = $7, psr = $8, pcr = $9, pfcr = $10,
				iper = $11, ipbr = $12, ipsr = $13, ipcr = $14, ipfcr = $15,
				roa = $16, roe = $17, gpa = $18,
				qoq_profit = $19, qoq_net_income = $20,
				qoq_assets = $21, qoq_book_value = $22,
				yoy_profit = $23, yoy_net_income = $24,
				profit_growth_qoq = $25, profit_growth_yoy = $26,
				net_income_growth_qoq = $27, net_income_growth_yoy = $28,
				assets_growth_qoq = $29, book_value_growth_qoq = $30,
				fscore_k = $31
			WHERE year = $32 AND quarter = $33 AND stock = $34`,
			c.Capex, c.MarketCap, c.BookValue,
			c.SalesProfit, c.FCF,
			c.PER, c.PBR, c.PSR, c.PCR, c.PFCR,
			c.IPER, c.IPBR, c.IPSR, c.IPCR, c.IPFCR,
			c.ROA, c.ROE, c.GPA,
			c.QoQProfit, c.QoQNetIncome,
			c.QoQAssets, c.QoQBookValue,
			c.YoYProfit, c.YoYNetIncome,
			c.ProfitGrowthQoQ, c.ProfitGrowthYoY,
			c.NetIncomeGrowthQoQ, c.NetIncomeGrowthYoY,
			c.AssetsGrowthQoQ, c.BookValueGrowthQoQ,
			c.FScoreK,
			c.Year, c.Quarter, c.Stock,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("update derived: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateRanks writes back the ord_* fields for the given records in a
// single transaction.
func (s *Store) UpdateRanks(ctx context.Context, corps []*contracts.Corp) error {
	if len(corps) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rank update: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, c := range corps {
		batch.Queue(`
			UPDATE krx SET
				ord_iper = $1, ord_ipbr = $2, ord_ipsr = $3,
				ord_ipcr = $4, ord_ipfcr = $5,
				ord_profit_growth_qoq = $6, ord_profit_growth_yoy = $7,
				ord_net_income_growth_qoq = $8, ord_net_income_growth_yoy = $9,
				ord_assets_growth_qoq = $10, ord_book_value_growth_qoq = $11
			WHERE year = $12 AND quarter = $13 AND stock = $14`,
			c.OrdIPER, c.OrdIPBR, c.OrdIPSR,
			c.OrdIPCR, c.OrdIPFCR,
			c.OrdProfitGrowthQoQ, c.OrdProfitGrowthYoY,
			c.OrdNetIncomeGrowthQoQ, c.OrdNetIncomeGrowthYoY,
			c.OrdAssetsGrowthQoQ, c.OrdBookValueGrowthQoQ,
			c.Year, c.Quarter, c.Stock,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("update ranks: %w", err)
	}

	return tx.Commit(ctx)
}
