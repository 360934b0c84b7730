package filing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/halq/internal/contracts"
)

func writeShares(t *testing.T, dir string, year, quarter int, content string) {
	t.Helper()
	path := filepath.Join(dir, SharesFilename(year, quarter))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestSharesLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeShares(t, dir, 2021, 1,
		`"종목코드","종목명","시장구분","소속부","종가","시가총액","상장주식수"
"005930","삼성전자","KOSPI","","81400","486000000000000","5969782550"
"035720","카카오","KOSDAQ","","489500","43000000000000","88704620"
"999999","비상장사","KONEX","","100","1","1"
`)

	corps := map[string]*contracts.Corp{
		"005930": contracts.NewCorp("삼성전자", "005930", contracts.MarketKOSPI, 2021, 1),
	}

	l := NewSharesLoader(dir, testLogger())
	require.NoError(t, l.Load(2021, 1, corps))

	samsung := corps["005930"]
	require.NotNil(t, samsung.Price)
	assert.Equal(t, int64(81400), *samsung.Price)
	require.NotNil(t, samsung.Shares)
	assert.Equal(t, int64(5969782550), *samsung.Shares)

	// This file never creates records: Kakao was not in the statement
	// dumps, so it stays absent.
	assert.NotContains(t, corps, "035720")
	assert.NotContains(t, corps, "999999")
}

func TestSharesLoader_MarketCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeShares(t, dir, 2021, 1,
		`"005930","삼성전자","kospi","","100","1","200"
`)

	corps := map[string]*contracts.Corp{
		"005930": contracts.NewCorp("삼성전자", "005930", contracts.MarketKOSPI, 2021, 1),
	}

	l := NewSharesLoader(dir, testLogger())
	require.NoError(t, l.Load(2021, 1, corps))

	require.NotNil(t, corps["005930"].Price)
	assert.Equal(t, int64(100), *corps["005930"].Price)
	assert.Equal(t, int64(200), *corps["005930"].Shares)
}

func TestSharesLoader_MalformedRowSkipped(t *testing.T) {
	dir := t.TempDir()
	writeShares(t, dir, 2021, 1,
		`"005930","삼성전자","KOSPI","","not-a-number","x","also-bad"
`)

	corps := map[string]*contracts.Corp{
		"005930": contracts.NewCorp("삼성전자", "005930", contracts.MarketKOSPI, 2021, 1),
	}

	l := NewSharesLoader(dir, testLogger())
	require.NoError(t, l.Load(2021, 1, corps))

	// Neither field is set from a half-parseable row.
	assert.Nil(t, corps["005930"].Price)
	assert.Nil(t, corps["005930"].Shares)
}
