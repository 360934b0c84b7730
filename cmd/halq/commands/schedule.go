package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/wonny/halq/internal/contracts"
	"github.com/wonny/halq/internal/pipeline"
	"github.com/wonny/halq/internal/store"
	"github.com/wonny/halq/pkg/config"
	"github.com/wonny/halq/pkg/database"
	"github.com/wonny/halq/pkg/logger"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "주기적 재구축 스케줄러 시작",
	Long: `PIPELINE_SCHEDULE 크론 표현식에 따라 전체 재구축을 주기적으로 실행합니다.

분기 덤프는 분기 종료 후 한참 뒤에 도착하므로, 새 파일이 나타나면
다음 주기에 자동으로 반영됩니다.

Example:
  go run ./cmd/halq schedule
  PIPELINE_SCHEDULE="0 0 3 * * 1" go run ./cmd/halq schedule`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
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
	pipe := pipeline.New(cfg.Data.Dir, st, cfg.Pipeline.Workers, log)

	rebuild := func() {
		from := contracts.Period{
			Year:    cfg.Pipeline.StartYear,
			Quarter: cfg.Pipeline.StartQuarter,
		}
		to := contracts.CurrentPeriod(time.Now())

		start := time.Now()
		if err := pipe.Run(context.Background(), from, to); err != nil {
			log.WithError(err).Error("Scheduled rebuild failed")
			return
		}
		log.WithField("elapsed", time.Since(start).Round(time.Second)).
			Info("Scheduled rebuild finished")
	}

	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(cfg.Pipeline.ScheduleCron, rebuild); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cfg.Pipeline.ScheduleCron, err)
	}

	log.WithField("schedule", cfg.Pipeline.ScheduleCron).Info("Scheduler started")
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.WithField("signal", sig.String()).Info("Stopping scheduler")

	// Let a running rebuild finish before exiting.
	<-c.Stop().Done()
	return nil
}
