package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/halq/internal/ranking"
	"github.com/wonny/halq/pkg/logger"
)

// QueryHandler serves read-only queries over the krx table.
// ⭐ SSOT: 조회 API 핸들러는 이 구조체에서만
type QueryHandler struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(pool *pgxpool.Pool, log *logger.Logger) *QueryHandler {
	return &QueryHandler{
		pool:   pool,
		logger: log,
	}
}

// jsonFloat marshals like a number but survives the infinity sentinel that
// zero-denominator ratios carry (encoding/json rejects IEEE infinities).
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 1) {
		return []byte(`"Infinity"`), nil
	}
	if math.IsInf(v, -1) {
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(v)
}

func toJSONFloat(v *float64) *jsonFloat {
	if v == nil {
		return nil
	}
	f := jsonFloat(*v)
	return &f
}

// PeriodSummary is one row of the period listing.
type PeriodSummary struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
	Corps   int `json:"corps"`
}

// GetPeriods returns every persisted period with its row count.
// GET /api/periods
func (h *QueryHandler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	rows, err := h.pool.Query(r.Context(),
		`SELECT year, quarter, COUNT(*) FROM krx GROUP BY year, quarter ORDER BY year, quarter`)
	if err != nil {
		h.serverError(w, err)
		return
	}
	defer rows.Close()

	summaries := make([]PeriodSummary, 0)
	for rows.Next() {
		var s PeriodSummary
		if err := rows.Scan(&s.Year, &s.Quarter, &s.Corps); err != nil {
			h.serverError(w, err)
			return
		}
		summaries = append(summaries, s)
	}

	writeJSON(w, http.StatusOK, summaries)
}

// CorpQuarter is one quarter of a company's time series.
type CorpQuarter struct {
	Year      int        `json:"year"`
	Quarter   int        `json:"quarter"`
	Name      string     `json:"name"`
	Market    string     `json:"market"`
	Sales     *int64     `json:"sales"`
	NetIncome *int64     `json:"net_income"`
	Profit    *int64     `json:"profit"`
	CashFlow  *int64     `json:"cash_flow"`
	Assets    *int64     `json:"assets"`
	MarketCap *int64     `json:"market_cap"`
	BookValue *int64     `json:"book_value"`
	PER       *jsonFloat `json:"per"`
	PBR       *jsonFloat `json:"pbr"`
	PSR       *jsonFloat `json:"psr"`
	PCR       *jsonFloat `json:"pcr"`
	PFCR      *jsonFloat `json:"pfcr"`
	ROA       *jsonFloat `json:"roa"`
	ROE       *jsonFloat `json:"roe"`
	GPA       *jsonFloat `json:"gpa"`
	FScoreK   *int64     `json:"fscore_k"`
}

// GetCorp returns one company's full time series, ascending by period.
// GET /api/corps/{stock}
func (h *QueryHandler) GetCorp(w http.ResponseWriter, r *http.Request) {
	stock := mux.Vars(r)["stock"]

	rows, err := h.pool.Query(r.Context(), `
		SELECT year, quarter, name, market,
		       sales, net_income, profit, cash_flow, assets,
		       market_cap, book_value,
		       per, pbr, psr, pcr, pfcr, roa, roe, gpa, fscore_k
		FROM krx
		WHERE stock = $1
		ORDER BY year, quarter`, stock)
	if err != nil {
		h.serverError(w, err)
		return
	}
	defer rows.Close()

	series := make([]CorpQuarter, 0)
	for rows.Next() {
		var q CorpQuarter
		var per, pbr, psr, pcr, pfcr, roa, roe, gpa *float64
		err := rows.Scan(
			&q.Year, &q.Quarter, &q.Name, &q.Market,
			&q.Sales, &q.NetIncome, &q.Profit, &q.CashFlow, &q.Assets,
			&q.MarketCap, &q.BookValue,
			&per, &pbr, &psr, &pcr, &pfcr, &roa, &roe, &gpa, &q.FScoreK,
		)
		if err != nil {
			h.serverError(w, err)
			return
		}
		q.PER, q.PBR, q.PSR, q.PCR, q.PFCR = toJSONFloat(per), toJSONFloat(pbr), toJSONFloat(psr), toJSONFloat(pcr), toJSONFloat(pfcr)
		q.ROA, q.ROE, q.GPA = toJSONFloat(roa), toJSONFloat(roe), toJSONFloat(gpa)
		series = append(series, q)
	}

	if len(series) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stock":    stock,
		"quarters": series,
	})
}

// RankingRow is one row of a per-period ranking listing.
type RankingRow struct {
	Rank   int64      `json:"rank"`
	Stock  string     `json:"stock"`
	Name   string     `json:"name"`
	Market string     `json:"market"`
	Value  *jsonFloat `json:"value"`
}

// GetRanking returns the top of one period's cross-sectional ranking for
// one indicator.
// GET /api/periods/{year}/{quarter}/ranking?indicator=iper&limit=50
func (h *QueryHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, yerr := strconv.Atoi(vars["year"])
	quarter, qerr := strconv.Atoi(vars["quarter"])
	if yerr != nil || qerr != nil || quarter < 1 || quarter > 4 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid period"})
		return
	}

	indicator := r.URL.Query().Get("indicator")
	if indicator == "" {
		indicator = "iper"
	}
	if !validIndicator(indicator) {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("unknown indicator %q", indicator),
		})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	// Column names come from the fixed indicator table, never from the
	// request.
	query := fmt.Sprintf(`
		SELECT ord_%s, stock, name, market, %s
		FROM krx
		WHERE year = $1 AND quarter = $2 AND ord_%s IS NOT NULL
		ORDER BY ord_%s
		LIMIT $3`, indicator, indicator, indicator, indicator)

	rows, err := h.pool.Query(r.Context(), query, year, quarter, limit)
	if err != nil {
		h.serverError(w, err)
		return
	}
	defer rows.Close()

	result := make([]RankingRow, 0, limit)
	for rows.Next() {
		var row RankingRow
		var value *float64
		if err := rows.Scan(&row.Rank, &row.Stock, &row.Name, &row.Market, &value); err != nil {
			h.serverError(w, err)
			return
		}
		row.Value = toJSONFloat(value)
		result = append(result, row)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":      year,
		"quarter":   quarter,
		"indicator": indicator,
		"ranking":   result,
	})
}

func validIndicator(name string) bool {
	for _, ind := range ranking.Indicators {
		if ind.Name == name {
			return true
		}
	}
	return false
}

func (h *QueryHandler) serverError(w http.ResponseWriter, err error) {
	h.logger.WithError(err).Error("Query failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
