package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kis-go/internal/kis"
)

var (
	ordersOverseas bool
	ordersFrom     string
	ordersTo       string
)

// ordersCmd represents the orders command
var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "주문 체결 내역 조회",
	Long: `기간 내 주문/체결 내역을 조회합니다.

날짜를 생략하면 최근 90일을 조회합니다.

Example:
  go run ./cmd/kis orders
  go run ./cmd/kis orders --from 20260801 --to 20260830
  go run ./cmd/kis orders --overseas`,
	RunE: runOrders,
}

func init() {
	rootCmd.AddCommand(ordersCmd)

	ordersCmd.Flags().BoolVar(&ordersOverseas, "overseas", false, "해외 주식 주문 내역")
	ordersCmd.Flags().StringVar(&ordersFrom, "from", "", "조회 시작일 (YYYYMMDD)")
	ordersCmd.Flags().StringVar(&ordersTo, "to", "", "조회 종료일 (YYYYMMDD)")
}

func runOrders(cmd *cobra.Command, args []string) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if ordersOverseas {
		orders, err := client.OverseasOrderHistory(ctx, ordersFrom, ordersTo)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Println("주문 내역이 없습니다.")
			return nil
		}

		tbl := kis.NewTable("일자", "주문번호", "거래소", "종목", "구분", "수량", "체결", "단가", "상태")
		for _, o := range orders {
			tbl.Append(o.OrderDate, o.OrderNo, string(o.Market), o.StockCode,
				sideLabel(o.Side),
				formatComma(o.OrderQty), formatComma(o.ExecutedQty),
				fmt.Sprintf("%.4f", o.OrderPrice), o.StatusName)
		}
		return tbl.Render(os.Stdout)
	}

	orders, err := client.DomesticOrderHistory(ctx, ordersFrom, ordersTo)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("주문 내역이 없습니다.")
		return nil
	}

	tbl := kis.NewTable("일자", "주문번호", "종목", "구분", "주문수량", "체결수량", "주문단가", "체결평균", "잔량")
	for _, o := range orders {
		tbl.Append(o.OrderDate, o.OrderNo, o.StockCode,
			sideLabel(o.Side),
			formatComma(o.OrderQty), formatComma(o.ExecutedQty),
			formatComma(o.OrderPrice),
			fmt.Sprintf("%.0f", o.AvgPrice),
			formatComma(o.RemainingQty))
	}
	return tbl.Render(os.Stdout)
}

var openOverseas bool

// openCmd represents the open command
var openCmd = &cobra.Command{
	Use:   "open",
	Short: "미체결 주문 조회",
	Long: `정정/취소 가능한 미체결 주문을 조회합니다.

Example:
  go run ./cmd/kis open
  go run ./cmd/kis open --overseas`,
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().BoolVar(&openOverseas, "overseas", false, "해외 주식 미체결 조회")
}

func runOpen(cmd *cobra.Command, args []string) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if openOverseas {
		orders, err := client.OverseasOpenOrders(ctx)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Println("미체결 주문이 없습니다.")
			return nil
		}

		tbl := kis.NewTable("주문번호", "거래소", "종목", "구분", "주문수량", "미체결", "주문단가")
		for _, o := range orders {
			tbl.Append(o.OrderNo, string(o.Market), o.StockCode,
				sideLabel(o.Side),
				formatComma(o.OrderQty), formatComma(o.UnfilledQty),
				fmt.Sprintf("%.4f", o.OrderPrice))
		}
		return tbl.Render(os.Stdout)
	}

	orders, err := client.DomesticOpenOrders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("미체결 주문이 없습니다.")
		return nil
	}

	tbl := kis.NewTable("주문번호", "종목", "종목명", "구분", "주문수량", "가능수량", "주문단가", "시각")
	for _, o := range orders {
		tbl.Append(o.OrderNo, o.StockCode, o.StockName,
			sideLabel(o.Side),
			formatComma(o.OrderQty), formatComma(o.RevisableQty),
			formatComma(o.OrderPrice), o.OrderTime)
	}
	return tbl.Render(os.Stdout)
}

func sideLabel(side kis.OrderSide) string {
	if side == kis.SideBuy {
		return "매수"
	}
	return "매도"
}
