package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/kis-go/internal/kis"
)

var priceMarket string

// priceCmd represents the price command
var priceCmd = &cobra.Command{
	Use:   "price CODE",
	Short: "현재가 조회",
	Long: `종목의 현재가를 조회합니다.

국내 종목은 6자리 종목코드, 해외 종목은 --market 과 티커를 사용합니다.

Example:
  go run ./cmd/kis price 005930
  go run ./cmd/kis price AAPL --market NASD`,
	Args: cobra.ExactArgs(1),
	RunE: runPrice,
}

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringVar(&priceMarket, "market", "", "해외 거래소 코드 (NASD, NYSE, SEHK, ...)")
}

func runPrice(cmd *cobra.Command, args []string) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if priceMarket != "" {
		market, err := kis.ParseMarket(priceMarket)
		if err != nil {
			return err
		}
		quote, err := client.OverseasPrice(ctx, market, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s/%s\n", quote.Market, quote.StockCode)
		fmt.Printf("  현재가: %.4f %s\n", quote.Last, quote.Currency)
		fmt.Printf("  전일비: %+.4f (%+.2f%%)\n", quote.Change, quote.ChangeRate)
		fmt.Printf("  거래량: %d\n", quote.Volume)
		return nil
	}

	quote, err := client.DomesticPrice(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", quote.StockCode)
	fmt.Printf("  현재가: %s원\n", formatComma(quote.Price))
	fmt.Printf("  전일비: %+d (%+.2f%%)\n", quote.Change, quote.ChangeRate)
	fmt.Printf("  시가/고가/저가: %s / %s / %s\n",
		formatComma(quote.Open), formatComma(quote.High), formatComma(quote.Low))
	fmt.Printf("  상한/하한: %s / %s\n", formatComma(quote.UpperLimit), formatComma(quote.LowerLimit))
	fmt.Printf("  거래량: %s\n", formatComma(quote.Volume))
	return nil
}

var ohlcvPeriod string

// ohlcvCmd represents the ohlcv command
var ohlcvCmd = &cobra.Command{
	Use:   "ohlcv CODE",
	Short: "일/주/월봉 조회",
	Long: `종목의 최근 OHLCV 봉을 조회합니다 (최대 30개, 수정주가).

Example:
  go run ./cmd/kis ohlcv 005930
  go run ./cmd/kis ohlcv 005930 --period W`,
	Args: cobra.ExactArgs(1),
	RunE: runOHLCV,
}

func init() {
	rootCmd.AddCommand(ohlcvCmd)

	ohlcvCmd.Flags().StringVar(&ohlcvPeriod, "period", "D", "봉 주기 (D|W|M)")
}

func runOHLCV(cmd *cobra.Command, args []string) error {
	client, _, _, err := bootstrap()
	if err != nil {
		return err
	}

	period := kis.PeriodCode(ohlcvPeriod)
	switch period {
	case kis.PeriodDay, kis.PeriodWeek, kis.PeriodMonth:
	default:
		return fmt.Errorf("period must be one of D, W, M")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	candles, err := client.DomesticDailyPrices(ctx, args[0], period)
	if err != nil {
		return err
	}

	tbl := kis.NewTable("일자", "시가", "고가", "저가", "종가", "거래량")
	for _, c := range candles {
		tbl.Append(c.Date,
			formatComma(c.Open), formatComma(c.High), formatComma(c.Low),
			formatComma(c.Close), formatComma(c.Volume))
	}
	return tbl.Render(os.Stdout)
}

// formatComma renders an integer with thousands separators.
func formatComma(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
