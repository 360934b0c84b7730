package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/internal/pipeline"
	"github.com/wonny/halq/internal/store"
	"github.com/wonny/halq/pkg/config"
	"github.com/wonny/halq/pkg/database"
	"github.com/wonny/halq/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [start_year start_quarter end_year end_quarter]",
	Short: "전체 재구축 실행",
	Long: `krx 테이블을 삭제 후 재생성하고, 지정한 범위의 분기를 적재합니다.

인자를 생략하면 기본 시작 분기(PIPELINE_START_YEAR/QUARTER)부터
현재 달력 분기까지 처리합니다. 입력 파일이 없는 분기는 건너뜁니다.

Example:
  go run ./cmd/halq run
  go run ./cmd/halq run 2016 1 2021 3`,
	Args: cobra.RangeArgs(0, 4),
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyGlobalFlags(cfg)

	from, to, err := periodRangeArgs(cfg, args)
	if err != nil {
		return err
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	st := store.New(db.Pool, log)
	pipe := pipeline.New(cfg.Data.Dir, st, cfg.Pipeline.Workers, log)

	start := time.Now()
	if err := pipe.Run(context.Background(), from, to); err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	log.WithField("elapsed", time.Since(start).Round(time.Second)).
		Info("Full rebuild finished")
	return nil
}

// periodRangeArgs resolves the CLI range: no args means the configured
// historical start through the current calendar quarter.
func periodRangeArgs(cfg *config.Config, args []string) (contracts.Period, contracts.Period, error) {
	if len(args) == 0 {
		from := contracts.Period{
			Year:    cfg.Pipeline.StartYear,
			Quarter: cfg.Pipeline.StartQuarter,
		}
		return from, contracts.CurrentPeriod(time.Now()), nil
	}
	if len(args) != 4 {
		return contracts.Period{}, contracts.Period{},
			fmt.Errorf("expected 0 or 4 arguments: [start_year start_quarter end_year end_quarter]")
	}

	nums := make([]int, 4)
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return contracts.Period{}, contracts.Period{}, fmt.Errorf("invalid argument %q: %w", a, err)
		}
		nums[i] = n
	}

	from := contracts.Period{Year: nums[0], Quarter: nums[1]}
	to := contracts.Period{Year: nums[2], Quarter: nums[3]}
	if !from.Valid() || !to.Valid() || from.Key() > to.Key() {
		return contracts.Period{}, contracts.Period{},
			fmt.Errorf("invalid period range %s..%s", from, to)
	}
	return from, to, nil
}

// applyGlobalFlags overlays root-level flags onto the loaded config.
func applyGlobalFlags(cfg *config.Config) {
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
}
