package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/halq/internal/api"
	"github.com/wonny/halq/internal/api/handlers"
	"github.com/wonny/halq/pkg/config"
	"github.com/wonny/halq/pkg/database"
	"github.com/wonny/halq/pkg/logger"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "조회 API 서버 시작",
	Long: `적재된 시계열에 대한 읽기 전용 REST API 서버를 시작합니다.

Endpoints:
  GET /health                                  - Health check
  GET /api/periods                             - 적재된 분기 목록
  GET /api/corps/{stock}                       - 종목별 시계열
  GET /api/periods/{y}/{q}/ranking?indicator=  - 분기별 순위

Example:
  go run ./cmd/halq serve
  go run ./cmd/halq serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default from PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyGlobalFlags(cfg)
	if servePort != "" {
		cfg.Port = servePort
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	query := handlers.NewQueryHandler(db.Pool, log)
	router := api.NewRouter(query, log)
	server := api.New(cfg, log, router)

	// Serve until interrupted, then drain in-flight requests.
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
