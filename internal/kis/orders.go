package kis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Trading TR IDs (real domain).
const (
	trIDDomesticBuy      = "TTTC0802U"
	trIDDomesticSell     = "TTTC0801U"
	trIDDomesticRvseCncl = "TTTC0803U"
	trIDDomesticHistory  = "TTTC8001R"
	trIDDomesticOpen     = "TTTC8036R"
	trIDOverseasHistory  = "TTTS3035R"
	trIDOverseasOpen     = "TTTS3018R"
)

// Order division codes.
const (
	ordDvsnLimit  = "00"
	ordDvsnMarket = "01"

	rvseCnclRevise = "01"
	rvseCnclCancel = "02"

	// Branch number used when the order's origin branch is unknown
	defaultBranchNo = "06010"
)

// DomesticOrderRequest describes a domestic cash order. A Price of 0
// places a market order.
type DomesticOrderRequest struct {
	StockCode string
	Side      OrderSide
	Quantity  int64
	Price     int64
}

// PlaceDomesticOrder submits a domestic cash order. A gateway
// rejection is reported through OrderResult, not as an error.
func (c *Client) PlaceDomesticOrder(ctx context.Context, req DomesticOrderRequest) (*OrderResult, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("kis: order quantity must be positive")
	}

	trID := trIDDomesticSell
	if req.Side == SideBuy {
		trID = trIDDomesticBuy
	}

	ordDvsn := ordDvsnLimit
	price := req.Price
	if price <= 0 {
		ordDvsn = ordDvsnMarket
		price = 0
	}

	body := map[string]string{
		"CANO":         c.cfg.CANO(),
		"ACNT_PRDT_CD": c.cfg.ProductCode(),
		"PDNO":         req.StockCode,
		"ORD_DVSN":     ordDvsn,
		"ORD_QTY":      strconv.FormatInt(req.Quantity, 10),
		"ORD_UNPR":     strconv.FormatInt(price, 10),
	}

	var res placeOrderResponse
	if err := c.postJSON(ctx, pathDomesticOrder, trID, body, &res); err != nil {
		return nil, fmt.Errorf("order for %s failed: %w", req.StockCode, err)
	}

	result := orderResultFrom(&res)
	c.logOrder("domestic order", req.StockCode, result)
	return result, nil
}

// CancelDomesticOrder cancels an open domestic order. A quantity of 0
// cancels the whole remainder. branchNo may be empty when unknown.
func (c *Client) CancelDomesticOrder(ctx context.Context, orderNo, branchNo string, quantity int64) (*OrderResult, error) {
	return c.domesticRvseCncl(ctx, orderNo, branchNo, rvseCnclCancel, quantity, 0)
}

// ReviseDomesticOrder rewrites the price (and optionally quantity,
// 0 meaning all) of an open domestic order.
func (c *Client) ReviseDomesticOrder(ctx context.Context, orderNo, branchNo string, quantity, price int64) (*OrderResult, error) {
	return c.domesticRvseCncl(ctx, orderNo, branchNo, rvseCnclRevise, quantity, price)
}

func (c *Client) domesticRvseCncl(ctx context.Context, orderNo, branchNo, dvsn string, quantity, price int64) (*OrderResult, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	if branchNo == "" {
		branchNo = defaultBranchNo
	}

	qtyAll := "Y"
	qty := int64(0)
	if quantity > 0 {
		qtyAll = "N"
		qty = quantity
	}

	body := map[string]string{
		"CANO":               c.cfg.CANO(),
		"ACNT_PRDT_CD":       c.cfg.ProductCode(),
		"KRX_FWDG_ORD_ORGNO": branchNo,
		"ORGN_ODNO":          orderNo,
		"ORD_DVSN":           ordDvsnLimit,
		"RVSE_CNCL_DVSN_CD":  dvsn,
		"ORD_QTY":            strconv.FormatInt(qty, 10),
		"ORD_UNPR":           strconv.FormatInt(price, 10),
		"QTY_ALL_ORD_YN":     qtyAll,
	}

	var res placeOrderResponse
	if err := c.postJSON(ctx, pathDomesticRvseCncl, trIDDomesticRvseCncl, body, &res); err != nil {
		return nil, fmt.Errorf("revise/cancel for order %s failed: %w", orderNo, err)
	}

	result := orderResultFrom(&res)
	c.logOrder("domestic revise/cancel", orderNo, result)
	return result, nil
}

// DomesticOpenOrders lists domestic orders that can still be revised
// or cancelled, following continuation pages.
func (c *Client) DomesticOpenOrders(ctx context.Context) ([]OpenOrder, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}

	pages, err := continuousQuery(ctx, func(ctx context.Context, cur Cursor) (*openOrdersResponse, error) {
		q := c.accountParams()
		q.Set("INQR_DVSN_1", "1")
		q.Set("INQR_DVSN_2", "0")
		cur.apply(ScopeDomestic, q)

		var res openOrdersResponse
		if err := c.getJSON(ctx, pathDomesticOpen, trIDDomesticOpen, q, cur, &res); err != nil {
			return nil, err
		}
		return &res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("open orders query failed: %w", err)
	}

	var rows []openOrderRow
	for _, p := range pages {
		rows = append(rows, p.Output...)
	}
	rows = dedupeRows(rows)

	orders := make([]OpenOrder, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, OpenOrder{
			OrderNo:      r.OrderNo,
			OrigOrderNo:  r.OrigOrderNo,
			BranchNo:     r.BranchNo,
			StockCode:    r.StockCode,
			StockName:    r.StockName,
			Side:         sideFromCode(r.SideCode),
			OrderQty:     parseInt(r.OrderQty),
			RevisableQty: parseInt(r.RevisableQy),
			OrderPrice:   parseInt(r.OrderPrice),
			OrderTime:    r.OrderTime,
		})
	}
	return orders, nil
}

// CancelAllDomesticOrders cancels every open domestic order and
// returns how many cancellations were accepted.
func (c *Client) CancelAllDomesticOrders(ctx context.Context) (int, error) {
	orders, err := c.DomesticOpenOrders(ctx)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, o := range orders {
		res, err := c.CancelDomesticOrder(ctx, o.OrderNo, o.BranchNo, 0)
		if err != nil {
			return cancelled, err
		}
		if res.Success {
			cancelled++
		}
	}
	return cancelled, nil
}

// DomesticOrderHistory lists executed and cancelled orders between two
// dates (YYYYMMDD, inclusive). Empty dates default to the last 90
// days.
func (c *Client) DomesticOrderHistory(ctx context.Context, startDate, endDate string) ([]HistoricalOrder, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	startDate, endDate = defaultDateRange(startDate, endDate)

	pages, err := continuousQuery(ctx, func(ctx context.Context, cur Cursor) (*orderHistoryResponse, error) {
		q := c.accountParams()
		q.Set("INQR_STRT_DT", startDate)
		q.Set("INQR_END_DT", endDate)
		q.Set("SLL_BUY_DVSN_CD", "00")
		q.Set("INQR_DVSN", "00")
		q.Set("PDNO", "")
		q.Set("CCLD_DVSN", "00")
		q.Set("ORD_GNO_BRNO", "")
		q.Set("ODNO", "")
		q.Set("INQR_DVSN_3", "00")
		q.Set("INQR_DVSN_1", "")
		cur.apply(ScopeDomestic, q)

		var res orderHistoryResponse
		if err := c.getJSON(ctx, pathDomesticHistory, trIDDomesticHistory, q, cur, &res); err != nil {
			return nil, err
		}
		return &res, nil
	})
	if err != nil {
		return nil, fmt.Errorf("order history query failed: %w", err)
	}

	var rows []orderHistoryRow
	for _, p := range pages {
		rows = append(rows, p.Output1...)
	}
	rows = dedupeRows(rows)

	orders := make([]HistoricalOrder, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, HistoricalOrder{
			OrderDate:    r.OrderDate,
			OrderTime:    r.OrderTime,
			OrderNo:      r.OrderNo,
			OrigOrderNo:  r.OrigOrderNo,
			BranchNo:     r.BranchNo,
			StockCode:    r.StockCode,
			StockName:    r.StockName,
			Side:         sideFromCode(r.SideCode),
			OrderQty:     parseInt(r.OrderQty),
			OrderPrice:   parseInt(r.OrderPrice),
			ExecutedQty:  parseInt(r.ExecutedQty),
			AvgPrice:     parseFloat(r.AvgPrice),
			ExecutedAmt:  parseInt(r.ExecutedAmt),
			RemainingQty: parseInt(r.RemainingQty),
			Cancelled:    strings.EqualFold(r.Cancelled, "Y"),
		})
	}
	return orders, nil
}

// ---------------------------------------------------------------------------
// Overseas trading

// OverseasOrderRequest describes an overseas limit order. Overseas
// exchanges accept limit orders only, so Price must be positive.
type OverseasOrderRequest struct {
	Market    Market
	StockCode string
	Side      OrderSide
	Quantity  int64
	Price     float64
}

// PlaceOverseasOrder submits an overseas limit order.
func (c *Client) PlaceOverseasOrder(ctx context.Context, req OverseasOrderRequest) (*OrderResult, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	if !req.Market.Valid() {
		return nil, fmt.Errorf("kis: unknown market %q", req.Market)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("kis: order quantity must be positive")
	}
	if req.Price <= 0 {
		return nil, ErrMarketOrderUnsupported
	}

	body := map[string]string{
		"CANO":            c.cfg.CANO(),
		"ACNT_PRDT_CD":    c.cfg.ProductCode(),
		"OVRS_EXCG_CD":    string(req.Market),
		"PDNO":            req.StockCode,
		"ORD_QTY":         strconv.FormatInt(req.Quantity, 10),
		"OVRS_ORD_UNPR":   formatPrice(req.Price),
		"ORD_SVR_DVSN_CD": "0",
		"ORD_DVSN":        ordDvsnLimit,
	}
	if req.Side == SideSell {
		body["SLL_TYPE"] = "00"
	}

	var res placeOrderResponse
	if err := c.postJSON(ctx, pathOverseasOrder, req.Market.orderTRID(req.Side), body, &res); err != nil {
		return nil, fmt.Errorf("overseas order for %s/%s failed: %w", req.Market, req.StockCode, err)
	}

	result := orderResultFrom(&res)
	c.logOrder("overseas order", req.StockCode, result)
	return result, nil
}

// CancelOverseasOrder cancels an open overseas order.
func (c *Client) CancelOverseasOrder(ctx context.Context, market Market, stockCode, orderNo string, quantity int64) (*OrderResult, error) {
	return c.overseasRvseCncl(ctx, market, stockCode, orderNo, rvseCnclCancel, quantity, 0)
}

// ReviseOverseasOrder rewrites the price of an open overseas order.
func (c *Client) ReviseOverseasOrder(ctx context.Context, market Market, stockCode, orderNo string, quantity int64, price float64) (*OrderResult, error) {
	return c.overseasRvseCncl(ctx, market, stockCode, orderNo, rvseCnclRevise, quantity, price)
}

func (c *Client) overseasRvseCncl(ctx context.Context, market Market, stockCode, orderNo, dvsn string, quantity int64, price float64) (*OrderResult, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	if !market.Valid() {
		return nil, fmt.Errorf("kis: unknown market %q", market)
	}

	body := map[string]string{
		"CANO":              c.cfg.CANO(),
		"ACNT_PRDT_CD":      c.cfg.ProductCode(),
		"OVRS_EXCG_CD":      string(market),
		"PDNO":              stockCode,
		"ORGN_ODNO":         orderNo,
		"RVSE_CNCL_DVSN_CD": dvsn,
		"ORD_QTY":           strconv.FormatInt(quantity, 10),
		"OVRS_ORD_UNPR":     formatPrice(price),
	}

	var res placeOrderResponse
	if err := c.postJSON(ctx, pathOverseasRvseCncl, market.reviseCancelTRID(), body, &res); err != nil {
		return nil, fmt.Errorf("overseas revise/cancel for order %s failed: %w", orderNo, err)
	}

	result := orderResultFrom(&res)
	c.logOrder("overseas revise/cancel", orderNo, result)
	return result, nil
}

// OverseasOpenOrders lists unfilled overseas orders. markets narrows
// the scan; empty means all exchanges.
func (c *Client) OverseasOpenOrders(ctx context.Context, markets ...Market) ([]OverseasOpenOrder, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		markets = AllMarkets()
	}

	var orders []OverseasOpenOrder
	for _, m := range markets {
		if !m.Valid() {
			return nil, fmt.Errorf("kis: unknown market %q", m)
		}

		market := m
		pages, err := continuousQuery(ctx, func(ctx context.Context, cur Cursor) (*overseasOpenResponse, error) {
			q := c.accountParams()
			q.Set("OVRS_EXCG_CD", string(market))
			q.Set("SORT_SQN", "DS")
			cur.apply(ScopeOverseas, q)

			var res overseasOpenResponse
			if err := c.getJSON(ctx, pathOverseasOpen, trIDOverseasOpen, q, cur, &res); err != nil {
				return nil, err
			}
			return &res, nil
		})
		if err != nil {
			return nil, fmt.Errorf("overseas open orders query for %s failed: %w", m, err)
		}

		var rows []overseasOpenOrderRow
		for _, p := range pages {
			rows = append(rows, p.Output...)
		}
		rows = dedupeRows(rows)

		for _, r := range rows {
			orders = append(orders, OverseasOpenOrder{
				Market:      market,
				Currency:    r.Currency,
				OrderNo:     r.OrderNo,
				OrigOrderNo: r.OrigOrderNo,
				BranchNo:    r.BranchNo,
				StockCode:   r.StockCode,
				StockName:   r.StockName,
				Side:        sideFromCode(r.SideCode),
				OrderQty:    parseInt(r.OrderQty),
				ExecutedQty: parseInt(r.ExecutedQty),
				UnfilledQty: parseInt(r.UnfilledQty),
				OrderPrice:  parseFloat(r.OrderPrice),
				OrderTime:   r.OrderTime,
			})
		}
	}
	return orders, nil
}

// CancelAllOverseasOrders cancels every unfilled overseas order and
// returns how many cancellations were accepted.
func (c *Client) CancelAllOverseasOrders(ctx context.Context, markets ...Market) (int, error) {
	orders, err := c.OverseasOpenOrders(ctx, markets...)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, o := range orders {
		res, err := c.CancelOverseasOrder(ctx, o.Market, o.StockCode, o.OrderNo, o.UnfilledQty)
		if err != nil {
			return cancelled, err
		}
		if res.Success {
			cancelled++
		}
	}
	return cancelled, nil
}

// OverseasOrderHistory lists overseas order executions between two
// dates (YYYYMMDD). Empty dates default to the last 90 days. markets
// narrows the scan; empty means all.
func (c *Client) OverseasOrderHistory(ctx context.Context, startDate, endDate string, markets ...Market) ([]OverseasHistoricalOrder, error) {
	if err := c.requireAccount(); err != nil {
		return nil, err
	}
	startDate, endDate = defaultDateRange(startDate, endDate)
	if len(markets) == 0 {
		markets = AllMarkets()
	}

	var orders []OverseasHistoricalOrder
	for _, m := range markets {
		if !m.Valid() {
			return nil, fmt.Errorf("kis: unknown market %q", m)
		}

		market := m
		pages, err := continuousQuery(ctx, func(ctx context.Context, cur Cursor) (*overseasHistoryResponse, error) {
			q := c.accountParams()
			q.Set("PDNO", "%")
			q.Set("ORD_STRT_DT", startDate)
			q.Set("ORD_END_DT", endDate)
			q.Set("SLL_BUY_DVSN", "00")
			q.Set("CCLD_NCCS_DVSN", "00")
			q.Set("OVRS_EXCG_CD", string(market))
			q.Set("SORT_SQN", "DS")
			q.Set("ORD_DT", "")
			q.Set("ORD_GNO_BRNO", "")
			q.Set("ODNO", "")
			cur.apply(ScopeOverseas, q)

			var res overseasHistoryResponse
			if err := c.getJSON(ctx, pathOverseasHistory, trIDOverseasHistory, q, cur, &res); err != nil {
				return nil, err
			}
			return &res, nil
		})
		if err != nil {
			return nil, fmt.Errorf("overseas order history query for %s failed: %w", m, err)
		}

		var rows []overseasHistoryRow
		for _, p := range pages {
			rows = append(rows, p.Output...)
		}
		rows = dedupeRows(rows)

		for _, r := range rows {
			orders = append(orders, OverseasHistoricalOrder{
				Market:       market,
				Currency:     r.Currency,
				OrderDate:    r.OrderDate,
				OrderTime:    r.OrderTime,
				OrderNo:      r.OrderNo,
				OrigOrderNo:  r.OrigOrderNo,
				BranchNo:     r.BranchNo,
				StockCode:    r.StockCode,
				StockName:    r.StockName,
				Side:         sideFromCode(r.SideCode),
				OrderQty:     parseInt(r.OrderQty),
				OrderPrice:   parseFloat(r.OrderPrice),
				ExecutedQty:  parseInt(r.ExecutedQty),
				AvgPrice:     parseFloat(r.AvgPrice),
				UnfilledQty:  parseInt(r.UnfilledQty),
				StatusName:   r.StatusName,
				RejectReason: r.RejectRsn,
			})
		}
	}
	return orders, nil
}

// ---------------------------------------------------------------------------

func orderResultFrom(res *placeOrderResponse) *OrderResult {
	return &OrderResult{
		Success:   res.ok(),
		OrderNo:   res.Output.OrderNo,
		BranchNo:  res.Output.BranchNo,
		OrderTime: res.Output.OrderTime,
		Message:   strings.TrimSpace(res.Msg1),
	}
}

func (c *Client) logOrder(kind, ref string, res *OrderResult) {
	c.logger.WithFields(map[string]interface{}{
		"ref":      ref,
		"order_no": res.OrderNo,
		"success":  res.Success,
		"message":  res.Message,
	}).Info(kind + " submitted")
}

// formatPrice renders an overseas price without trailing zeros.
func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// defaultDateRange fills empty bounds: end defaults to today, start to
// 90 days before end.
func defaultDateRange(start, end string) (string, string) {
	const layout = "20060102"
	if end == "" {
		end = time.Now().Format(layout)
	}
	if start == "" {
		if t, err := time.Parse(layout, end); err == nil {
			start = t.AddDate(0, 0, -90).Format(layout)
		} else {
			start = time.Now().AddDate(0, 0, -90).Format(layout)
		}
	}
	return start, end
}
