package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kis-go/internal/api"
	"github.com/wonny/kis-go/internal/api/handlers"
	"github.com/wonny/kis-go/internal/collector"
	"github.com/wonny/kis-go/internal/scheduler"
	"github.com/wonny/kis-go/internal/store"
	"github.com/wonny/kis-go/pkg/database"
	"github.com/wonny/kis-go/pkg/redis"
)

var collectOnce bool

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "시세 수집 데몬",
	Long: `시세 수집 데몬을 실행합니다.

COLLECT_SYMBOLS 의 종목을 COLLECT_SCHEDULE (기본: 평일 15:30) 에 수집해
PostgreSQL에 저장하고 Redis에 캐시하며, 조회용 HTTP API를 띄웁니다.

DATABASE_URL 이 필요하고, REDIS_ENABLED=true 면 캐시를 사용합니다.

Example:
  go run ./cmd/kis collect
  go run ./cmd/kis collect --once`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().BoolVar(&collectOnce, "once", false, "스케줄 없이 1회 수집 후 종료")
}

func runCollect(cmd *cobra.Command, args []string) error {
	client, cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redis.New(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "kis")

	priceRepo := store.NewPriceRepository(db.Pool)
	coll := collector.New(client, priceRepo, cache, cfg, log)

	if collectOnce {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		return coll.Run(ctx)
	}

	sched := scheduler.New(log)
	if err := sched.AddJob(coll); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	quoteHandler := handlers.NewQuoteHandler(client, cache, log)
	accountHandler := handlers.NewAccountHandler(client, log)
	executionHandler := handlers.NewExecutionHandler(store.NewExecutionRepository(db.Pool), log)
	router := api.NewRouter(quoteHandler, accountHandler, executionHandler, log)
	server := api.New(cfg, log, router)

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
		log.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
