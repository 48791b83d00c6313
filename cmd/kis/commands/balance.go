package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kis-go/internal/kis"
)

var balanceOverseas bool

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "계좌 잔고 조회",
	Long: `계좌의 보유 종목과 평가 금액을 조회합니다.

여러 페이지에 걸친 잔고는 자동으로 이어서 조회합니다.

Example:
  go run ./cmd/kis balance
  go run ./cmd/kis balance --overseas`,
	RunE: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().BoolVar(&balanceOverseas, "overseas", false, "해외 주식 잔고 조회")
}

func runBalance(cmd *cobra.Command, args []string) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if balanceOverseas {
		positions, err := client.OverseasBalance(ctx)
		if err != nil {
			return err
		}
		if len(positions) == 0 {
			fmt.Println("보유 종목이 없습니다.")
			return nil
		}

		tbl := kis.NewTable("거래소", "종목", "종목명", "수량", "매입금액", "현재가", "손익률", "통화")
		for _, p := range positions {
			tbl.Append(string(p.Market), p.StockCode, p.StockName,
				formatComma(p.Quantity),
				fmt.Sprintf("%.2f", p.BuyAmount),
				fmt.Sprintf("%.4f", p.CurrentPrice),
				fmt.Sprintf("%+.2f%%", p.ProfitLossPct),
				p.Currency)
		}
		return tbl.Render(os.Stdout)
	}

	balance, positions, err := client.DomesticBalance(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("예수금: %s원 (D+2: %s원)\n",
		formatComma(balance.TotalDeposit), formatComma(balance.D2Deposit))
	fmt.Printf("평가금액: %s원 / 평가손익: %s원\n",
		formatComma(balance.TotalEvalAmount), formatComma(balance.TotalProfitLoss))
	fmt.Printf("총자산: %s원\n\n", formatComma(balance.TotalAsset))

	if len(positions) == 0 {
		fmt.Println("보유 종목이 없습니다.")
		return nil
	}

	tbl := kis.NewTable("종목", "종목명", "수량", "매입단가", "현재가", "평가손익", "손익률")
	for _, p := range positions {
		tbl.Append(p.StockCode, p.StockName,
			formatComma(p.Quantity),
			fmt.Sprintf("%.0f", p.AvgBuyPrice),
			formatComma(p.CurrentPrice),
			formatComma(p.ProfitLoss),
			fmt.Sprintf("%+.2f%%", p.ProfitLossPct))
	}
	return tbl.Render(os.Stdout)
}

var depositOverseas bool

// depositCmd represents the deposit command
var depositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "예수금 조회",
	Long: `주문 가능 현금을 조회합니다.

Example:
  go run ./cmd/kis deposit
  go run ./cmd/kis deposit --overseas`,
	RunE: runDeposit,
}

func init() {
	rootCmd.AddCommand(depositCmd)

	depositCmd.Flags().BoolVar(&depositOverseas, "overseas", false, "해외 주식 주문가능금액 (원화 환산)")
}

func runDeposit(cmd *cobra.Command, args []string) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if depositOverseas {
		deposit, err := client.OverseasDeposit(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("해외 주문가능금액(원화 환산): %.0f원\n", deposit)
		return nil
	}

	deposit, err := client.DomesticDeposit(ctx)
	if err != nil {
		return err
	}
	cash, err := client.BuyableCash(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("예수금 총액: %s원\n", formatComma(deposit))
	fmt.Printf("주문가능현금: %s원\n", formatComma(cash))
	return nil
}
