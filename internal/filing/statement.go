package filing

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/pkg/logger"
)

// Market-segment literals identifying listed-company rows in a DART dump.
// Everything else (delisted, external audit, headers) is skipped.
const (
	kospiSegment  = "유가증권시장상장법인"
	kosdaqSegment = "코스닥시장상장법인"
)

// Column layout of the tab-separated statement dumps.
const (
	colStock   = 1
	colName    = 2
	colSegment = 3
	colCode    = 10
	colLabel   = 11
	// The current-period value sits in column 12 or 13 depending on the
	// vintage; the header row tells which (the unused one is blank).
	colValueA = 12
	colValueB = 13
)

// StatementParser extracts named financial fields from one statement dump
// into per-stock records.
// ⭐ SSOT: 재무제표 덤프 파싱은 여기서만
type StatementParser struct {
	dataDir string
	logger  *logger.Logger
}

// NewStatementParser creates a parser reading dumps from dataDir.
func NewStatementParser(dataDir string, log *logger.Logger) *StatementParser {
	return &StatementParser{
		dataDir: dataDir,
		logger:  log.WithField("module", "filing"),
	}
}

// StatementFilename returns the dump filename for one
// (year, quarter, type, consolidated) quadruple, e.g. "2021-3Q-PL-c.txt".
func StatementFilename(year, quarter int, st StatementType, consolidated bool) string {
	suffix := ""
	if consolidated {
		suffix = "-c"
	}
	return fmt.Sprintf("%d-%dQ-%s%s.txt", year, quarter, st, suffix)
}

// Parse reads one statement dump and merges its fields into corps, creating
// records for stocks not seen before. Per-row and per-field problems are
// logged and skipped; only a missing file or a corrupted header fails the
// call.
func (p *StatementParser) Parse(year, quarter int, st StatementType, consolidated bool, corps map[string]*contracts.Corp) error {
	filename := StatementFilename(year, quarter, st, consolidated)
	f, err := os.Open(filepath.Join(p.dataDir, filename))
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return fmt.Errorf("%s: missing header row", filename)
	}
	valueIndex, err := valueColumn(scanner.Text())
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	for scanner.Scan() {
		data := strings.Split(scanner.Text(), "\t")
		if len(data) <= valueIndex {
			continue
		}

		market, ok := marketOf(strings.TrimSpace(data[colSegment]))
		if !ok {
			continue
		}

		stock := stockCode(data[colStock])
		name := strings.TrimSpace(data[colName])
		c, exists := corps[stock]
		if !exists {
			c = contracts.NewCorp(name, stock, market, year, quarter)
			corps[stock] = c
		}

		raw := strings.TrimSpace(data[valueIndex])
		if raw == "" {
			continue
		}

		label := normalizeLabel(stripQuotes(data[colLabel]))
		code := strings.TrimSpace(data[colCode])
		target := resolve(st, label, code)
		if target == nil {
			continue
		}

		value, err := parseAmount(raw)
		if err != nil {
			p.logger.WithFields(map[string]interface{}{
				"file":  filename,
				"corp":  name,
				"field": target.Name,
				"value": raw,
			}).Warn("Malformed numeric value, skipping field")
			continue
		}

		// Keep-first: a later pass (CPL after PL, consolidated after
		// standalone) never overwrites, but a materially different
		// value is a data-quality signal worth surfacing.
		if prev := target.Get(c); prev != nil {
			if *prev != value {
				p.logger.WithFields(map[string]interface{}{
					"file":  filename,
					"stock": stock,
					"corp":  name,
					"field": target.Name,
					"kept":  *prev,
					"seen":  value,
				}).Warn("Field conflict, keeping first value")
			}
			continue
		}
		target.Set(c, value)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// valueColumn inspects the header row and returns the index of the value
// column for this file.
func valueColumn(header string) (int, error) {
	fields := strings.Split(header, "\t")
	if len(fields) <= colValueA {
		return 0, fmt.Errorf("header has %d columns, want at least %d", len(fields), colValueA+1)
	}
	if strings.TrimSpace(fields[colValueA]) != "" {
		return colValueA, nil
	}
	if len(fields) <= colValueB {
		return 0, fmt.Errorf("header has %d columns and column %d is blank", len(fields), colValueA)
	}
	return colValueB, nil
}

func marketOf(segment string) (contracts.Market, bool) {
	switch segment {
	case kospiSegment:
		return contracts.MarketKOSPI, true
	case kosdaqSegment:
		return contracts.MarketKOSDAQ, true
	default:
		return "", false
	}
}

// stockCode extracts the ticker from its bracketed cell, e.g. "[005930]".
func stockCode(cell string) string {
	s := strings.TrimSpace(cell)
	if len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func stripQuotes(s string) string {
	s = strings.ReplaceAll(s, "'", "")
	return strings.ReplaceAll(s, `"`, "")
}

// parseAmount parses a comma-thousands-separated integer amount.
func parseAmount(s string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}
