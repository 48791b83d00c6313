package kis

import (
	"context"
	"fmt"
)

// Account inquiry TR IDs (real domain; the virtual domain uses the
// V-prefixed forms via Domain.AdjustTRID).
const (
	trIDDomesticBalance = "TTTC8434R"
	trIDBuyableCash     = "TTTC8908R"
	trIDOverseasBalance = "JTTT3012R"
	trIDPSAmount        = "TTTS3007R"
)

// fetchDomesticBalance requests one page of the domestic balance
// query.
func (c *Client) fetchDomesticBalance(ctx context.Context, cur Cursor) (*balanceResponse, error) {
	q := c.accountParams()
	q.Set("AFHR_FLPR_YN", "N")
	q.Set("OFL_YN", "N")
	q.Set("INQR_DVSN", "01")
	q.Set("UNPR_DVSN", "01")
	q.Set("FUND_STTL_ICLD_YN", "N")
	q.Set("FNCG_AMT_AUTO_RDPT_YN", "N")
	q.Set("PRCS_DVSN", "01")
	cur.apply(ScopeDomestic, q)

	var res balanceResponse
	if err := c.getJSON(ctx, pathDomesticBalance, trIDDomesticBalance, q, cur, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DomesticBalance fetches the full domestic account balance: the
// summary plus every holding, following continuation pages.
func (c *Client) DomesticBalance(ctx context.Context) (*Balance, []Position, error) {
	if err := c.requireAccount(); err != nil {
		return nil, nil, err
	}

	pages, err := continuousQuery(ctx, c.fetchDomesticBalance)
	if err != nil {
		return nil, nil, fmt.Errorf("balance query failed: %w", err)
	}

	var rows []balancePositionRow
	for _, p := range pages {
		rows = append(rows, p.Output1...)
	}
	rows = dedupeRows(rows)

	positions := make([]Position, 0, len(rows))
	for _, r := range rows {
		positions = append(positions, Position{
			StockCode:     r.StockCode,
			StockName:     r.StockName,
			Quantity:      parseInt(r.Quantity),
			OrderableQty:  parseInt(r.OrderableQty),
			AvgBuyPrice:   parseFloat(r.AvgBuyPrice),
			BuyAmount:     parseInt(r.BuyAmount),
			CurrentPrice:  parseInt(r.CurrentPrice),
			EvalAmount:    parseInt(r.EvalAmount),
			ProfitLoss:    parseInt(r.ProfitLoss),
			ProfitLossPct: parseFloat(r.ProfitLossPct),
		})
	}

	// The summary repeats on every page; the first is authoritative
	bal := &Balance{}
	if len(pages) > 0 && len(pages[0].Output2) > 0 {
		s := pages[0].Output2[0]
		bal = &Balance{
			TotalDeposit:    parseInt(s.TotalDeposit),
			D2Deposit:       parseInt(s.D2Deposit),
			TotalBuyAmount:  parseInt(s.TotalBuyAmount),
			TotalEvalAmount: parseInt(s.TotalEvalAmount),
			TotalProfitLoss: parseInt(s.TotalProfitLoss),
			NetAsset:        parseInt(s.NetAsset),
			TotalAsset:      parseInt(s.TotalAsset),
		}
	}

	return bal, positions, nil
}

// DomesticDeposit fetches the account deposit (예수금 총액). Only the
// first page carries the summary, so no continuation is needed.
func (c *Client) DomesticDeposit(ctx context.Context) (int64, error) {
	if err := c.requireAccount(); err != nil {
		return 0, err
	}

	res, err := c.fetchDomesticBalance(ctx, Cursor{})
	if err != nil {
		return 0, fmt.Errorf("deposit query failed: %w", err)
	}
	if len(res.Output2) == 0 {
		return 0, fmt.Errorf("deposit query returned no summary")
	}
	return parseInt(res.Output2[0].TotalDeposit), nil
}

// BuyableCash fetches the cash available for new domestic orders,
// CMA balance included.
func (c *Client) BuyableCash(ctx context.Context) (int64, error) {
	if err := c.requireAccount(); err != nil {
		return 0, err
	}

	q := c.accountParams()
	q.Set("PDNO", "")
	q.Set("ORD_UNPR", "0")
	q.Set("ORD_DVSN", "02")
	q.Set("CMA_EVLU_AMT_ICLD_YN", "Y")
	q.Set("OVRS_ICLD_YN", "N")

	var res buyableCashResponse
	if err := c.getJSON(ctx, pathBuyableCash, trIDBuyableCash, q, Cursor{}, &res); err != nil {
		return 0, fmt.Errorf("buyable cash query failed: %w", err)
	}
	return parseInt(res.Output.OrderableCash), nil
}

// fetchOverseasBalance requests one page of the overseas balance query
// for a single exchange.
func (c *Client) fetchOverseasBalance(market Market) fetchPage[*overseasBalanceResponse] {
	return func(ctx context.Context, cur Cursor) (*overseasBalanceResponse, error) {
		q := c.accountParams()
		q.Set("OVRS_EXCG_CD", string(market))
		q.Set("TR_CRCY_CD", market.Currency())
		cur.apply(ScopeOverseas, q)

		var res overseasBalanceResponse
		if err := c.getJSON(ctx, pathOverseasBalance, trIDOverseasBalance, q, cur, &res); err != nil {
			return nil, err
		}
		return &res, nil
	}
}

// OverseasBalance fetches holdings across every supported exchange.
// markets narrows the scan; empty means all.
func (c *Client) OverseasBalance(ctx context.Context, markets ...Market) ([]OverseasPosition, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		markets = AllMarkets()
	}

	var positions []OverseasPosition
	for _, m := range markets {
		if !m.Valid() {
			return nil, fmt.Errorf("kis: unknown market %q", m)
		}

		pages, err := continuousQuery(ctx, c.fetchOverseasBalance(m))
		if err != nil {
			return nil, fmt.Errorf("overseas balance query for %s failed: %w", m, err)
		}

		var rows []overseasPositionRow
		for _, p := range pages {
			rows = append(rows, p.Output1...)
		}
		rows = dedupeRows(rows)

		for _, r := range rows {
			if parseInt(r.Quantity) == 0 {
				continue
			}
			positions = append(positions, OverseasPosition{
				Market:        m,
				StockCode:     r.StockCode,
				StockName:     r.StockName,
				Currency:      r.Currency,
				Quantity:      parseInt(r.Quantity),
				OrderableQty:  parseInt(r.OrderableQty),
				BuyAmount:     parseFloat(r.BuyAmount),
				CurrentPrice:  parseFloat(r.CurrentPrice),
				ProfitLossPct: parseFloat(r.ProfitLossPct),
			})
		}
	}

	return positions, nil
}

// OverseasDeposit estimates the cash available for overseas orders in
// KRW. The virtual domain lacks the inquire-psamount endpoint and
// shares one cash pool, so it falls back to the domestic deposit.
func (c *Client) OverseasDeposit(ctx context.Context) (float64, error) {
	if err := c.requireAccount(); err != nil {
		return 0, err
	}

	if c.domain.IsVirtual() {
		deposit, err := c.DomesticDeposit(ctx)
		if err != nil {
			return 0, err
		}
		return float64(deposit), nil
	}

	q := c.accountParams()
	q.Set("OVRS_EXCG_CD", string(MarketNASD))
	q.Set("OVRS_ORD_UNPR", "0")
	q.Set("ITEM_CD", "")

	var res psAmountResponse
	if err := c.getJSON(ctx, pathPSAmount, trIDPSAmount, q, Cursor{}, &res); err != nil {
		return 0, fmt.Errorf("overseas deposit query failed: %w", err)
	}

	o := res.Output
	rate := parseFloat(o.ExchangeRate)
	if fc := parseFloat(o.ForeignOrderable); fc > 0 {
		return fc * rate, nil
	}
	return parseFloat(o.OverseasOrderable) * rate, nil
}
