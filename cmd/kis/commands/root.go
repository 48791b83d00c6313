package commands

import (
	"github.com/spf13/cobra"

	"github.com/wonny/kis-go/internal/kis"
	"github.com/wonny/kis-go/pkg/config"
	"github.com/wonny/kis-go/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kis",
	Short: "한국투자증권 Open API 클라이언트",
	Long: `KIS Open API CLI

한국투자증권 REST API로 시세 조회, 잔고 조회, 주문을 수행합니다.
국내 주식과 해외 주식(미국/홍콩/일본/중국/베트남)을 지원합니다.

설정은 환경변수 또는 .env 파일로 읽습니다:
  KIS_APP_KEY, KIS_APP_SECRET   (필수)
  KIS_ACCOUNT_NO                (계좌 연동 기능에 필요, 10자리)
  KIS_IS_VIRTUAL=true           (모의투자 도메인)

Usage:
  go run ./cmd/kis [command]

Examples:
  go run ./cmd/kis price 005930
  go run ./cmd/kis balance
  go run ./cmd/kis buy 005930 --qty 10 --price 71000
  go run ./cmd/kis collect`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// bootstrap loads config and builds the shared client stack for a
// command run.
func bootstrap() (*kis.Client, *config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	client := kis.NewClient(cfg.KIS, log)
	return client, cfg, log, nil
}
