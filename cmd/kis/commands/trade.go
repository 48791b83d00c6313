package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kis-go/internal/kis"
)

var (
	tradeQty    int64
	tradePrice  float64
	tradeMarket string
)

// buyCmd represents the buy command
var buyCmd = &cobra.Command{
	Use:   "buy CODE",
	Short: "매수 주문",
	Long: `매수 주문을 제출합니다.

국내 종목은 --price 0 (생략) 시 시장가 주문입니다.
해외 종목은 --market 지정 필수이며 지정가만 가능합니다.

Example:
  go run ./cmd/kis buy 005930 --qty 10 --price 71000
  go run ./cmd/kis buy 005930 --qty 10
  go run ./cmd/kis buy AAPL --market NASD --qty 2 --price 150.50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(args[0], kis.SideBuy)
	},
}

// sellCmd represents the sell command
var sellCmd = &cobra.Command{
	Use:   "sell CODE",
	Short: "매도 주문",
	Long: `매도 주문을 제출합니다.

Example:
  go run ./cmd/kis sell 005930 --qty 10 --price 72000
  go run ./cmd/kis sell AAPL --market NASD --qty 2 --price 160`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(args[0], kis.SideSell)
	},
}

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)

	for _, c := range []*cobra.Command{buyCmd, sellCmd} {
		c.Flags().Int64Var(&tradeQty, "qty", 0, "주문 수량")
		c.Flags().Float64Var(&tradePrice, "price", 0, "주문 단가 (국내: 0이면 시장가)")
		c.Flags().StringVar(&tradeMarket, "market", "", "해외 거래소 코드 (지정 시 해외 주문)")
		c.MarkFlagRequired("qty")
	}
}

func runTrade(code string, side kis.OrderSide) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var result *kis.OrderResult
	if tradeMarket != "" {
		market, err := kis.ParseMarket(tradeMarket)
		if err != nil {
			return err
		}
		result, err = client.PlaceOverseasOrder(ctx, kis.OverseasOrderRequest{
			Market:    market,
			StockCode: code,
			Side:      side,
			Quantity:  tradeQty,
			Price:     tradePrice,
		})
		if err != nil {
			return err
		}
	} else {
		result, err = client.PlaceDomesticOrder(ctx, kis.DomesticOrderRequest{
			StockCode: code,
			Side:      side,
			Quantity:  tradeQty,
			Price:     int64(tradePrice),
		})
		if err != nil {
			return err
		}
	}

	printOrderResult(result)
	return nil
}

var (
	cancelBranch   string
	cancelQty      int64
	cancelMarket   string
	cancelCode     string
	cancelAllFlag  bool
	cancelOverseas bool
)

// cancelCmd represents the cancel command
var cancelCmd = &cobra.Command{
	Use:   "cancel [ORDER_NO]",
	Short: "주문 취소",
	Long: `미체결 주문을 취소합니다.

--all 지정 시 모든 미체결 주문을 취소합니다.
해외 주문 취소는 --market 과 --code 가 필요합니다.

Example:
  go run ./cmd/kis cancel 0000117057
  go run ./cmd/kis cancel --all
  go run ./cmd/kis cancel 31 --market NASD --code AAPL --qty 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)

	cancelCmd.Flags().StringVar(&cancelBranch, "branch", "", "주문점 번호 (모르면 생략)")
	cancelCmd.Flags().Int64Var(&cancelQty, "qty", 0, "취소 수량 (0이면 전량)")
	cancelCmd.Flags().StringVar(&cancelMarket, "market", "", "해외 거래소 코드")
	cancelCmd.Flags().StringVar(&cancelCode, "code", "", "해외 종목 티커")
	cancelCmd.Flags().BoolVar(&cancelAllFlag, "all", false, "모든 미체결 주문 취소")
	cancelCmd.Flags().BoolVar(&cancelOverseas, "overseas", false, "--all 과 함께: 해외 미체결 취소")
}

func runCancel(cmd *cobra.Command, args []string) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if cancelAllFlag {
		var n int
		if cancelOverseas {
			n, err = client.CancelAllOverseasOrders(ctx)
		} else {
			n, err = client.CancelAllDomesticOrders(ctx)
		}
		if err != nil {
			return err
		}
		fmt.Printf("✅ %d건 취소 완료\n", n)
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("주문번호 또는 --all 이 필요합니다")
	}
	orderNo := args[0]

	var result *kis.OrderResult
	if cancelMarket != "" {
		market, err := kis.ParseMarket(cancelMarket)
		if err != nil {
			return err
		}
		if cancelCode == "" {
			return fmt.Errorf("해외 주문 취소에는 --code 가 필요합니다")
		}
		result, err = client.CancelOverseasOrder(ctx, market, cancelCode, orderNo, cancelQty)
		if err != nil {
			return err
		}
	} else {
		result, err = client.CancelDomesticOrder(ctx, orderNo, cancelBranch, cancelQty)
		if err != nil {
			return err
		}
	}

	printOrderResult(result)
	return nil
}

var (
	reviseBranch string
	reviseQty    int64
	revisePrice  float64
	reviseMarket string
	reviseCode   string
)

// reviseCmd represents the revise command
var reviseCmd = &cobra.Command{
	Use:   "revise ORDER_NO",
	Short: "주문 정정",
	Long: `미체결 주문의 가격/수량을 정정합니다.

Example:
  go run ./cmd/kis revise 0000117057 --price 69000
  go run ./cmd/kis revise 31 --market NASD --code AAPL --qty 2 --price 148.00`,
	Args: cobra.ExactArgs(1),
	RunE: runRevise,
}

func init() {
	rootCmd.AddCommand(reviseCmd)

	reviseCmd.Flags().StringVar(&reviseBranch, "branch", "", "주문점 번호 (모르면 생략)")
	reviseCmd.Flags().Int64Var(&reviseQty, "qty", 0, "정정 수량 (국내: 0이면 전량)")
	reviseCmd.Flags().Float64Var(&revisePrice, "price", 0, "정정 단가")
	reviseCmd.Flags().StringVar(&reviseMarket, "market", "", "해외 거래소 코드")
	reviseCmd.Flags().StringVar(&reviseCode, "code", "", "해외 종목 티커")
	reviseCmd.MarkFlagRequired("price")
}

func runRevise(cmd *cobra.Command, args []string) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var result *kis.OrderResult
	if reviseMarket != "" {
		market, err := kis.ParseMarket(reviseMarket)
		if err != nil {
			return err
		}
		if reviseCode == "" {
			return fmt.Errorf("해외 주문 정정에는 --code 가 필요합니다")
		}
		result, err = client.ReviseOverseasOrder(ctx, market, reviseCode, args[0], reviseQty, revisePrice)
		if err != nil {
			return err
		}
	} else {
		result, err = client.ReviseDomesticOrder(ctx, args[0], reviseBranch, reviseQty, int64(revisePrice))
		if err != nil {
			return err
		}
	}

	printOrderResult(result)
	return nil
}

func printOrderResult(r *kis.OrderResult) {
	if r.Success {
		fmt.Printf("✅ 주문 접수: 주문번호 %s (%s)\n", r.OrderNo, r.OrderTime)
		return
	}
	fmt.Printf("❌ 주문 거부: %s\n", r.Message)
}
