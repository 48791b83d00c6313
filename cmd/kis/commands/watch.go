package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kis-go/internal/kis"
	"github.com/wonny/kis-go/internal/store"
	"github.com/wonny/kis-go/pkg/database"
)

var watchExec bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch CODE [CODE...]",
	Short: "실시간 체결가 구독",
	Long: `웹소켓으로 실시간 체결가를 구독해 출력합니다.

--exec 지정 시 계좌 체결 통보도 함께 구독합니다 (KIS_HTS_ID 필요).
체결 통보는 DATABASE_URL 이 설정되어 있으면 DB에도 저장합니다.

Example:
  go run ./cmd/kis watch 005930
  go run ./cmd/kis watch 005930 000660 --exec`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchExec, "exec", false, "계좌 체결 통보 구독")
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	ws := kis.NewWSClient(client, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ws.Connect(ctx); err != nil {
		return err
	}
	defer ws.Close()

	for _, code := range args {
		if err := ws.SubscribeTicks(code, printTick); err != nil {
			return err
		}
		fmt.Printf("구독: %s\n", code)
	}

	if watchExec {
		var execRepo *store.ExecutionRepository
		if cfg.Database.URL != "" {
			db, err := database.New(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			execRepo = store.NewExecutionRepository(db.Pool)
		}

		handler := func(e kis.ExecutionData) {
			printExecution(e)
			if execRepo == nil {
				return
			}
			saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer saveCancel()
			if err := execRepo.Save(saveCtx, e, time.Now()); err != nil {
				log.WithError(err).Error("Execution save failed")
			}
		}
		if err := ws.SubscribeExecutions(handler); err != nil {
			return err
		}
		fmt.Println("체결 통보 구독 시작")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n구독 종료")
	return nil
}

func printTick(t kis.TickData) {
	fmt.Printf("[%s] %s %s원 (%+d, %+.2f%%) 체결 %s주 / 누적 %s주\n",
		t.Time, t.StockCode,
		formatComma(t.Price), t.Change, t.ChangeRate,
		formatComma(t.Volume), formatComma(t.AccVolume))
}

func printExecution(e kis.ExecutionData) {
	if e.Rejected {
		fmt.Printf("[%s] ❌ 주문 거부: %s 주문번호 %s\n", e.Time, e.StockCode, e.OrderNo)
		return
	}
	fmt.Printf("[%s] %s(%s) %s %s주 @ %s원 (주문번호 %s)\n",
		e.Time, e.StockName, e.StockCode,
		sideLabel(e.Side),
		formatComma(e.ExecQty), formatComma(e.ExecPrice), e.OrderNo)
}
