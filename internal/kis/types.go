package kis

import (
	"fmt"
	"strconv"
	"strings"
)

// apiEnvelope is the common KIS response envelope. Every endpoint
// response embeds it.
type apiEnvelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`

	// tr_cont arrives as a response header, not in the body; the
	// transport copies it here after decoding.
	TrCont string `json:"-"`
}

func (e *apiEnvelope) setTrCont(v string) {
	e.TrCont = strings.TrimSpace(v)
}

func (e *apiEnvelope) ok() bool {
	return e.RtCd == "0"
}

// apiError converts a non-zero return code into an error.
func (e *apiEnvelope) apiError() error {
	if e.ok() {
		return nil
	}
	return fmt.Errorf("kis: API error %s (%s): %s", e.RtCd, e.MsgCd, strings.TrimSpace(e.Msg1))
}

// apiResponse is what the transport decodes into.
type apiResponse interface {
	setTrCont(string)
	apiError() error
}

// ---------------------------------------------------------------------------
// OAuth / hashkey

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type hashkeyResponse struct {
	Hash string `json:"HASH"`
}

// ---------------------------------------------------------------------------
// Domestic quotations

type priceResponse struct {
	apiEnvelope
	Output priceOutput `json:"output"`
}

type priceOutput struct {
	Price       string `json:"stck_prpr"`
	Open        string `json:"stck_oprc"`
	High        string `json:"stck_hgpr"`
	Low         string `json:"stck_lwpr"`
	UpperLimit  string `json:"stck_mxpr"`
	LowerLimit  string `json:"stck_llam"`
	PrevClose   string `json:"stck_sdpr"`
	Change      string `json:"prdy_vrss"`
	ChangeRate  string `json:"prdy_ctrt"`
	Volume      string `json:"acml_vol"`
	TradeAmount string `json:"acml_tr_pbmn"`
}

type dailyPriceResponse struct {
	apiEnvelope
	Output []dailyPriceRow `json:"output"`
}

type dailyPriceRow struct {
	Date   string `json:"stck_bsop_date"`
	Open   string `json:"stck_oprc"`
	High   string `json:"stck_hgpr"`
	Low    string `json:"stck_lwpr"`
	Close  string `json:"stck_clpr"`
	Volume string `json:"acml_vol"`
}

// Quote is the current-price snapshot for a domestic stock.
type Quote struct {
	StockCode   string  `json:"stock_code"`
	Price       int64   `json:"price"`
	Open        int64   `json:"open"`
	High        int64   `json:"high"`
	Low         int64   `json:"low"`
	UpperLimit  int64   `json:"upper_limit"`
	LowerLimit  int64   `json:"lower_limit"`
	PrevClose   int64   `json:"prev_close"`
	Change      int64   `json:"change"`
	ChangeRate  float64 `json:"change_rate"`
	Volume      int64   `json:"volume"`
	TradeAmount int64   `json:"trade_amount"`
}

// Candle is one daily/weekly/monthly OHLCV bar.
type Candle struct {
	Date   string `json:"date"` // YYYYMMDD
	Open   int64  `json:"open"`
	High   int64  `json:"high"`
	Low    int64  `json:"low"`
	Close  int64  `json:"close"`
	Volume int64  `json:"volume"`
}

// ---------------------------------------------------------------------------
// Overseas quotations

type overseasPriceResponse struct {
	apiEnvelope
	Output overseasPriceOutput `json:"output"`
}

type overseasPriceOutput struct {
	Symbol     string `json:"rsym"`
	Decimals   string `json:"zdiv"`
	PrevClose  string `json:"base"`
	Last       string `json:"last"`
	Sign       string `json:"sign"`
	Change     string `json:"diff"`
	ChangeRate string `json:"rate"`
	Volume     string `json:"tvol"`
	Amount     string `json:"tamt"`
}

// OverseasQuote is the current-price snapshot for an overseas stock.
// Prices are in the exchange currency.
type OverseasQuote struct {
	Market     Market  `json:"market"`
	StockCode  string  `json:"stock_code"`
	Currency   string  `json:"currency"`
	Last       float64 `json:"last"`
	PrevClose  float64 `json:"prev_close"`
	Change     float64 `json:"change"`
	ChangeRate float64 `json:"change_rate"`
	Volume     int64   `json:"volume"`
}

// ---------------------------------------------------------------------------
// Domestic balance

type balanceResponse struct {
	apiEnvelope
	CtxAreaFK string               `json:"ctx_area_fk100"`
	CtxAreaNK string               `json:"ctx_area_nk100"`
	Output1   []balancePositionRow `json:"output1"`
	Output2   []balanceSummaryRow  `json:"output2"`
}

func (r *balanceResponse) Continuation() (string, string, string) {
	return r.TrCont, r.CtxAreaFK, r.CtxAreaNK
}

func (r *balanceResponse) RowCount() int { return len(r.Output1) }

type balancePositionRow struct {
	StockCode     string `json:"pdno"`
	StockName     string `json:"prdt_name"`
	Quantity      string `json:"hldg_qty"`
	OrderableQty  string `json:"ord_psbl_qty"`
	AvgBuyPrice   string `json:"pchs_avg_pric"`
	BuyAmount     string `json:"pchs_amt"`
	CurrentPrice  string `json:"prpr"`
	EvalAmount    string `json:"evlu_amt"`
	ProfitLoss    string `json:"evlu_pfls_amt"`
	ProfitLossPct string `json:"evlu_pfls_rt"`
}

type balanceSummaryRow struct {
	TotalDeposit    string `json:"dnca_tot_amt"`
	D2Deposit       string `json:"prvs_rcdl_excc_amt"`
	TotalBuyAmount  string `json:"pchs_amt_smtl_amt"`
	TotalEvalAmount string `json:"evlu_amt_smtl_amt"`
	TotalProfitLoss string `json:"evlu_pfls_smtl_amt"`
	NetAsset        string `json:"nass_amt"`
	TotalAsset      string `json:"tot_evlu_amt"`
}

// Balance summarizes a domestic account.
type Balance struct {
	TotalDeposit    int64 `json:"total_deposit"`     // 예수금 총액
	D2Deposit       int64 `json:"d2_deposit"`        // D+2 예수금
	TotalBuyAmount  int64 `json:"total_buy_amount"`  // 매입금액 합계
	TotalEvalAmount int64 `json:"total_eval_amount"` // 평가금액 합계
	TotalProfitLoss int64 `json:"total_profit_loss"` // 평가손익 합계
	NetAsset        int64 `json:"net_asset"`
	TotalAsset      int64 `json:"total_asset"`
}

// Position is one domestic holding.
type Position struct {
	StockCode     string  `json:"stock_code"`
	StockName     string  `json:"stock_name"`
	Quantity      int64   `json:"quantity"`
	OrderableQty  int64   `json:"orderable_qty"`
	AvgBuyPrice   float64 `json:"avg_buy_price"`
	BuyAmount     int64   `json:"buy_amount"`
	CurrentPrice  int64   `json:"current_price"`
	EvalAmount    int64   `json:"eval_amount"`
	ProfitLoss    int64   `json:"profit_loss"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

// ---------------------------------------------------------------------------
// Domestic buyable cash

type buyableCashResponse struct {
	apiEnvelope
	Output buyableCashOutput `json:"output"`
}

type buyableCashOutput struct {
	OrderableCash string `json:"ord_psbl_cash"`
}

// ---------------------------------------------------------------------------
// Overseas balance / deposit

type overseasBalanceResponse struct {
	apiEnvelope
	CtxAreaFK string                `json:"ctx_area_fk200"`
	CtxAreaNK string                `json:"ctx_area_nk200"`
	Output1   []overseasPositionRow `json:"output1"`
}

func (r *overseasBalanceResponse) Continuation() (string, string, string) {
	return r.TrCont, r.CtxAreaFK, r.CtxAreaNK
}

func (r *overseasBalanceResponse) RowCount() int { return len(r.Output1) }

type overseasPositionRow struct {
	StockCode     string `json:"ovrs_pdno"`
	StockName     string `json:"ovrs_item_name"`
	Quantity      string `json:"ovrs_cblc_qty"`
	OrderableQty  string `json:"ord_psbl_qty"`
	BuyAmount     string `json:"frcr_pchs_amt1"`
	CurrentPrice  string `json:"now_pric2"`
	ProfitLossPct string `json:"evlu_pfls_rt"`
	Exchange      string `json:"ovrs_excg_cd"`
	Currency      string `json:"tr_crcy_cd"`
}

// OverseasPosition is one overseas holding. Amounts are in the
// exchange currency.
type OverseasPosition struct {
	Market        Market  `json:"market"`
	StockCode     string  `json:"stock_code"`
	StockName     string  `json:"stock_name"`
	Currency      string  `json:"currency"`
	Quantity      int64   `json:"quantity"`
	OrderableQty  int64   `json:"orderable_qty"`
	BuyAmount     float64 `json:"buy_amount"`
	CurrentPrice  float64 `json:"current_price"`
	ProfitLossPct float64 `json:"profit_loss_pct"`
}

type psAmountResponse struct {
	apiEnvelope
	Output psAmountOutput `json:"output"`
}

type psAmountOutput struct {
	OverseasOrderable string `json:"ovrs_ord_psbl_amt"`
	ForeignOrderable  string `json:"frcr_ord_psbl_amt1"`
	ExchangeRate      string `json:"exrt"`
}

// ---------------------------------------------------------------------------
// Orders

// OrderSide distinguishes buys from sells.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// sellBuyCode maps the gateway sll_buy_dvsn_cd values: 01 sell, 02 buy.
func sideFromCode(code string) OrderSide {
	if code == "02" {
		return SideBuy
	}
	return SideSell
}

type placeOrderResponse struct {
	apiEnvelope
	Output placeOrderOutput `json:"output"`
}

type placeOrderOutput struct {
	BranchNo  string `json:"KRX_FWDG_ORD_ORGNO"`
	OrderNo   string `json:"ODNO"`
	OrderTime string `json:"ORD_TMD"`
}

// OrderResult reports the outcome of an order, revision or
// cancellation request. A rejected request is not an error at the
// transport level; Success and Message carry the verdict.
type OrderResult struct {
	Success   bool   `json:"success"`
	OrderNo   string `json:"order_no"`
	BranchNo  string `json:"branch_no"`
	OrderTime string `json:"order_time"`
	Message   string `json:"message"`
}

// Domestic order history (주식일별주문체결조회)

type orderHistoryResponse struct {
	apiEnvelope
	CtxAreaFK string            `json:"ctx_area_fk100"`
	CtxAreaNK string            `json:"ctx_area_nk100"`
	Output1   []orderHistoryRow `json:"output1"`
}

func (r *orderHistoryResponse) Continuation() (string, string, string) {
	return r.TrCont, r.CtxAreaFK, r.CtxAreaNK
}

func (r *orderHistoryResponse) RowCount() int { return len(r.Output1) }

type orderHistoryRow struct {
	OrderDate    string `json:"ord_dt"`
	BranchNo     string `json:"ord_gno_brno"`
	OrderNo      string `json:"odno"`
	OrigOrderNo  string `json:"orgn_odno"`
	SideCode     string `json:"sll_buy_dvsn_cd"`
	SideName     string `json:"sll_buy_dvsn_cd_name"`
	StockCode    string `json:"pdno"`
	StockName    string `json:"prdt_name"`
	OrderQty     string `json:"ord_qty"`
	OrderPrice   string `json:"ord_unpr"`
	OrderTime    string `json:"ord_tmd"`
	ExecutedQty  string `json:"tot_ccld_qty"`
	AvgPrice     string `json:"avg_prvs"`
	ExecutedAmt  string `json:"tot_ccld_amt"`
	RemainingQty string `json:"rmn_qty"`
	Cancelled    string `json:"cncl_yn"`
}

// HistoricalOrder is one row of the domestic order history.
type HistoricalOrder struct {
	OrderDate    string    `json:"order_date"`
	OrderTime    string    `json:"order_time"`
	OrderNo      string    `json:"order_no"`
	OrigOrderNo  string    `json:"orig_order_no"`
	BranchNo     string    `json:"branch_no"`
	StockCode    string    `json:"stock_code"`
	StockName    string    `json:"stock_name"`
	Side         OrderSide `json:"side"`
	OrderQty     int64     `json:"order_qty"`
	OrderPrice   int64     `json:"order_price"`
	ExecutedQty  int64     `json:"executed_qty"`
	AvgPrice     float64   `json:"avg_price"`
	ExecutedAmt  int64     `json:"executed_amt"`
	RemainingQty int64     `json:"remaining_qty"`
	Cancelled    bool      `json:"cancelled"`
}

// Overseas order history (해외주식 주문체결내역)

type overseasHistoryResponse struct {
	apiEnvelope
	CtxAreaFK string               `json:"ctx_area_fk200"`
	CtxAreaNK string               `json:"ctx_area_nk200"`
	Output    []overseasHistoryRow `json:"output"`
}

func (r *overseasHistoryResponse) Continuation() (string, string, string) {
	return r.TrCont, r.CtxAreaFK, r.CtxAreaNK
}

func (r *overseasHistoryResponse) RowCount() int { return len(r.Output) }

type overseasHistoryRow struct {
	OrderDate   string `json:"ord_dt"`
	BranchNo    string `json:"ord_gno_brno"`
	OrderNo     string `json:"odno"`
	OrigOrderNo string `json:"orgn_odno"`
	SideCode    string `json:"sll_buy_dvsn_cd"`
	StockCode   string `json:"pdno"`
	StockName   string `json:"prdt_name"`
	OrderQty    string `json:"ft_ord_qty"`
	OrderPrice  string `json:"ft_ord_unpr3"`
	ExecutedQty string `json:"ft_ccld_qty"`
	AvgPrice    string `json:"ft_ccld_unpr3"`
	ExecutedAmt string `json:"ft_ccld_amt3"`
	UnfilledQty string `json:"nccs_qty"`
	StatusName  string `json:"prcs_stat_name"`
	RejectRsn   string `json:"rjct_rson"`
	OrderTime   string `json:"ord_tmd"`
	Exchange    string `json:"ovrs_excg_cd"`
	Currency    string `json:"tr_crcy_cd"`
}

// OverseasHistoricalOrder is one row of the overseas order history.
type OverseasHistoricalOrder struct {
	Market       Market    `json:"market"`
	Currency     string    `json:"currency"`
	OrderDate    string    `json:"order_date"`
	OrderTime    string    `json:"order_time"`
	OrderNo      string    `json:"order_no"`
	OrigOrderNo  string    `json:"orig_order_no"`
	BranchNo     string    `json:"branch_no"`
	StockCode    string    `json:"stock_code"`
	StockName    string    `json:"stock_name"`
	Side         OrderSide `json:"side"`
	OrderQty     int64     `json:"order_qty"`
	OrderPrice   float64   `json:"order_price"`
	ExecutedQty  int64     `json:"executed_qty"`
	AvgPrice     float64   `json:"avg_price"`
	UnfilledQty  int64     `json:"unfilled_qty"`
	StatusName   string    `json:"status_name"`
	RejectReason string    `json:"reject_reason"`
}

// Domestic open orders (정정취소가능주문조회)

type openOrdersResponse struct {
	apiEnvelope
	CtxAreaFK string         `json:"ctx_area_fk100"`
	CtxAreaNK string         `json:"ctx_area_nk100"`
	Output    []openOrderRow `json:"output"`
}

func (r *openOrdersResponse) Continuation() (string, string, string) {
	return r.TrCont, r.CtxAreaFK, r.CtxAreaNK
}

func (r *openOrdersResponse) RowCount() int { return len(r.Output) }

type openOrderRow struct {
	OrderNo     string `json:"odno"`
	OrigOrderNo string `json:"orgn_odno"`
	BranchNo    string `json:"ord_gno_brno"`
	StockCode   string `json:"pdno"`
	StockName   string `json:"prdt_name"`
	SideCode    string `json:"sll_buy_dvsn_cd"`
	OrderQty    string `json:"ord_qty"`
	RevisableQy string `json:"psbl_qty"`
	OrderPrice  string `json:"ord_unpr"`
	OrderTime   string `json:"ord_tmd"`
}

// OpenOrder is a domestic order that can still be revised or
// cancelled.
type OpenOrder struct {
	OrderNo      string    `json:"order_no"`
	OrigOrderNo  string    `json:"orig_order_no"`
	BranchNo     string    `json:"branch_no"`
	StockCode    string    `json:"stock_code"`
	StockName    string    `json:"stock_name"`
	Side         OrderSide `json:"side"`
	OrderQty     int64     `json:"order_qty"`
	RevisableQty int64     `json:"revisable_qty"`
	OrderPrice   int64     `json:"order_price"`
	OrderTime    string    `json:"order_time"`
}

// Overseas unfilled orders (해외주식 미체결내역)

type overseasOpenResponse struct {
	apiEnvelope
	CtxAreaFK string                 `json:"ctx_area_fk200"`
	CtxAreaNK string                 `json:"ctx_area_nk200"`
	Output    []overseasOpenOrderRow `json:"output"`
}

func (r *overseasOpenResponse) Continuation() (string, string, string) {
	return r.TrCont, r.CtxAreaFK, r.CtxAreaNK
}

func (r *overseasOpenResponse) RowCount() int { return len(r.Output) }

type overseasOpenOrderRow struct {
	OrderNo     string `json:"odno"`
	OrigOrderNo string `json:"orgn_odno"`
	BranchNo    string `json:"ord_gno_brno"`
	StockCode   string `json:"pdno"`
	StockName   string `json:"prdt_name"`
	SideCode    string `json:"sll_buy_dvsn_cd"`
	OrderQty    string `json:"ft_ord_qty"`
	ExecutedQty string `json:"ft_ccld_qty"`
	UnfilledQty string `json:"nccs_qty"`
	OrderPrice  string `json:"ft_ord_unpr3"`
	OrderTime   string `json:"ord_tmd"`
	Exchange    string `json:"ovrs_excg_cd"`
	Currency    string `json:"tr_crcy_cd"`
}

// OverseasOpenOrder is an overseas order with an unfilled remainder.
type OverseasOpenOrder struct {
	Market      Market    `json:"market"`
	Currency    string    `json:"currency"`
	OrderNo     string    `json:"order_no"`
	OrigOrderNo string    `json:"orig_order_no"`
	BranchNo    string    `json:"branch_no"`
	StockCode   string    `json:"stock_code"`
	StockName   string    `json:"stock_name"`
	Side        OrderSide `json:"side"`
	OrderQty    int64     `json:"order_qty"`
	ExecutedQty int64     `json:"executed_qty"`
	UnfilledQty int64     `json:"unfilled_qty"`
	OrderPrice  float64   `json:"order_price"`
	OrderTime   string    `json:"order_time"`
}

// ---------------------------------------------------------------------------
// Numeric field parsing. The gateway sends every number as a string,
// occasionally empty.

func parseInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some integer fields arrive with a decimal point
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
