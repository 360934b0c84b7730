package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/halq/internal/pipeline"
	"github.com/wonny/halq/internal/store"
	"github.com/wonny/halq/pkg/config"
	"github.com/wonny/halq/pkg/database"
	"github.com/wonny/halq/pkg/logger"
)

// calcCmd represents the calc command
var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "지표/순위 재계산 (적재된 테이블 대상)",
	Long: `이미 적재된 krx 테이블에 대해 파생 지표와 횡단면 순위만 다시 계산합니다.

원시 항목의 순수 함수이므로 몇 번을 실행해도 같은 값이 나옵니다.
테이블이 없으면 진단 메시지와 함께 실패합니다 (먼저 run 실행).

Example:
  go run ./cmd/halq calc`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

func init() {
	rootCmd.AddCommand(calcCmd)
}

func runCalc(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyGlobalFlags(cfg)

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	st := store.New(db.Pool, log)
	ctx := context.Background()

	if err := st.RequireExists(ctx); err != nil {
		if errors.Is(err, store.ErrStoreMissing) {
			return fmt.Errorf("%w (run `halq run` first)", err)
		}
		return err
	}

	pipe := pipeline.New(cfg.Data.Dir, st, cfg.Pipeline.Workers, log)
	if err := pipe.Recalculate(ctx); err != nil {
		return fmt.Errorf("recalculate: %w", err)
	}

	log.Info("Indicators and ranks recalculated")
	return nil
}
