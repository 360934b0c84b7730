package filing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/pkg/logger"
)

// Column layout of the price/shares extract ({year}-{quarter}Q-Stocks.csv).
const (
	sharesColStock  = 0
	sharesColMarket = 2
	sharesColPrice  = 4
	// shares outstanding is always the last column
)

// SharesLoader merges price and share-count data into an existing period
// record set. It never creates records: a stock absent from the statement
// dumps stays absent.
// ⭐ SSOT: 시세/상장주식수 병합은 여기서만
type SharesLoader struct {
	dataDir string
	logger  *logger.Logger
}

// NewSharesLoader creates a loader reading extracts from dataDir.
func NewSharesLoader(dataDir string, log *logger.Logger) *SharesLoader {
	return &SharesLoader{
		dataDir: dataDir,
		logger:  log.WithField("module", "filing"),
	}
}

// SharesFilename returns the extract filename for one period.
func SharesFilename(year, quarter int) string {
	return fmt.Sprintf("%d-%dQ-Stocks.csv", year, quarter)
}

// Load reads the period's extract and sets Price and Shares on matching
// records. Parse failures are logged and skipped.
func (l *SharesLoader) Load(year, quarter int, corps map[string]*contracts.Corp) error {
	filename := SharesFilename(year, quarter)
	f, err := os.Open(filepath.Join(l.dataDir, filename))
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		if len(record) <= sharesColPrice {
			continue
		}

		market := strings.ToLower(strings.TrimSpace(record[sharesColMarket]))
		if market != "kospi" && market != "kosdaq" {
			continue
		}

		stock := strings.TrimSpace(record[sharesColStock])
		c, ok := corps[stock]
		if !ok {
			continue
		}

		price, perr := strconv.ParseInt(strings.TrimSpace(record[sharesColPrice]), 10, 64)
		shares, serr := strconv.ParseInt(strings.TrimSpace(record[len(record)-1]), 10, 64)
		if perr != nil || serr != nil {
			l.logger.WithFields(map[string]interface{}{
				"file":  filename,
				"stock": stock,
				"corp":  c.Name,
				"row":   strings.Join(record, ","),
			}).Warn("Malformed price/shares row, skipping")
			continue
		}

		c.Price = &price
		c.Shares = &shares
	}

	return nil
}
