package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dataDir string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "halq",
	Short: "halq - KRX 분기 실적 파이프라인",
	Long: `halq

DART 재무제표 덤프를 분기별 기업 레코드로 정규화하고,
지표(PER/PBR/GP-A/성장률)와 횡단면 순위를 계산해 PostgreSQL에 적재합니다.

Usage:
  go run ./cmd/halq [command]

Examples:
  go run ./cmd/halq run
  go run ./cmd/halq run 2016 1 2021 3
  go run ./cmd/halq calc
  go run ./cmd/halq serve`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "filing dump directory (default from DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
