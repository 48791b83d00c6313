package kis

import (
	"context"
	"fmt"
	"net/url"
)

// Quotation TR IDs. Identical on real and virtual domains.
const (
	trIDDomesticPrice = "FHKST01010100"
	trIDDomesticDaily = "FHKST01010400"
	trIDOverseasPrice = "HHDFS00000300"
)

// PeriodCode selects the bar interval for daily price queries.
type PeriodCode string

const (
	PeriodDay   PeriodCode = "D"
	PeriodWeek  PeriodCode = "W"
	PeriodMonth PeriodCode = "M"
)

// DomesticPrice fetches the current price snapshot for a domestic
// stock (6-digit ticker).
func (c *Client) DomesticPrice(ctx context.Context, ticker string) (*Quote, error) {
	q := url.Values{}
	q.Set("FID_COND_MRKT_DIV_CODE", "J")
	q.Set("FID_INPUT_ISCD", ticker)

	var res priceResponse
	if err := c.getJSON(ctx, pathDomesticPrice, trIDDomesticPrice, q, Cursor{}, &res); err != nil {
		return nil, fmt.Errorf("price query for %s failed: %w", ticker, err)
	}

	o := res.Output
	return &Quote{
		StockCode:   ticker,
		Price:       parseInt(o.Price),
		Open:        parseInt(o.Open),
		High:        parseInt(o.High),
		Low:         parseInt(o.Low),
		UpperLimit:  parseInt(o.UpperLimit),
		LowerLimit:  parseInt(o.LowerLimit),
		PrevClose:   parseInt(o.PrevClose),
		Change:      parseInt(o.Change),
		ChangeRate:  parseFloat(o.ChangeRate),
		Volume:      parseInt(o.Volume),
		TradeAmount: parseInt(o.TradeAmount),
	}, nil
}

// DomesticDailyPrices fetches recent OHLCV bars for a domestic stock.
// The gateway returns up to 30 bars, adjusted for splits.
func (c *Client) DomesticDailyPrices(ctx context.Context, ticker string, period PeriodCode) ([]Candle, error) {
	q := url.Values{}
	q.Set("FID_COND_MRKT_DIV_CODE", "J")
	q.Set("FID_INPUT_ISCD", ticker)
	q.Set("FID_PERIOD_DIV_CODE", string(period))
	q.Set("FID_ORG_ADJ_PRC", "0")

	var res dailyPriceResponse
	if err := c.getJSON(ctx, pathDomesticDaily, trIDDomesticDaily, q, Cursor{}, &res); err != nil {
		return nil, fmt.Errorf("daily price query for %s failed: %w", ticker, err)
	}

	candles := make([]Candle, 0, len(res.Output))
	for _, row := range res.Output {
		if row.Date == "" {
			continue
		}
		candles = append(candles, Candle{
			Date:   row.Date,
			Open:   parseInt(row.Open),
			High:   parseInt(row.High),
			Low:    parseInt(row.Low),
			Close:  parseInt(row.Close),
			Volume: parseInt(row.Volume),
		})
	}
	return candles, nil
}

// OverseasPrice fetches the current price snapshot for an overseas
// stock. Prices are in the exchange currency.
func (c *Client) OverseasPrice(ctx context.Context, market Market, ticker string) (*OverseasQuote, error) {
	if !market.Valid() {
		return nil, fmt.Errorf("kis: unknown market %q", market)
	}

	q := url.Values{}
	q.Set("AUTH", "")
	q.Set("EXCD", market.PriceCode())
	q.Set("SYMB", ticker)

	var res overseasPriceResponse
	if err := c.getJSON(ctx, pathOverseasPrice, trIDOverseasPrice, q, Cursor{}, &res); err != nil {
		return nil, fmt.Errorf("overseas price query for %s/%s failed: %w", market, ticker, err)
	}

	o := res.Output
	return &OverseasQuote{
		Market:     market,
		StockCode:  ticker,
		Currency:   market.Currency(),
		Last:       parseFloat(o.Last),
		PrevClose:  parseFloat(o.PrevClose),
		Change:     parseFloat(o.Change),
		ChangeRate: parseFloat(o.ChangeRate),
		Volume:     parseInt(o.Volume),
	}, nil
}
