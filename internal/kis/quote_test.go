package kis

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestDomesticPrice(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathDomesticPrice {
			t.Fatalf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("FID_COND_MRKT_DIV_CODE") != "J" || q.Get("FID_INPUT_ISCD") != "005930" {
			t.Errorf("Query params wrong: %v", q)
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output":{
			"stck_prpr":"71000","stck_oprc":"70500","stck_hgpr":"71500","stck_lwpr":"70200",
			"stck_mxpr":"91500","stck_llam":"49300","stck_sdpr":"70400",
			"prdy_vrss":"600","prdy_ctrt":"0.85","acml_vol":"12345678","acml_tr_pbmn":"876543210000"}}`)
	})

	quote, err := client.DomesticPrice(context.Background(), "005930")
	if err != nil {
		t.Fatalf("DomesticPrice failed: %v", err)
	}
	if quote.Price != 71000 || quote.UpperLimit != 91500 || quote.LowerLimit != 49300 {
		t.Errorf("Quote not parsed: %+v", quote)
	}
	if quote.ChangeRate != 0.85 || quote.Volume != 12345678 {
		t.Errorf("Quote not parsed: %+v", quote)
	}
	if quote.StockCode != "005930" {
		t.Errorf("StockCode = %q", quote.StockCode)
	}
}

func TestDomesticDailyPrices(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathDomesticDaily {
			t.Fatalf("Unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("FID_PERIOD_DIV_CODE"); got != "W" {
			t.Errorf("Period = %q, want W", got)
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output":[
			{"stck_bsop_date":"20260828","stck_oprc":"70000","stck_hgpr":"71500","stck_lwpr":"69800","stck_clpr":"71000","acml_vol":"11111111"},
			{"stck_bsop_date":"20260821","stck_oprc":"69000","stck_hgpr":"70500","stck_lwpr":"68800","stck_clpr":"70000","acml_vol":"22222222"},
			{"stck_bsop_date":"","stck_oprc":"","stck_hgpr":"","stck_lwpr":"","stck_clpr":"","acml_vol":""}
		]}`)
	})

	candles, err := client.DomesticDailyPrices(context.Background(), "005930", PeriodWeek)
	if err != nil {
		t.Fatalf("DomesticDailyPrices failed: %v", err)
	}

	// The trailing empty-date padding row is dropped
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}
	if candles[0].Date != "20260828" || candles[0].Close != 71000 {
		t.Errorf("Candle not parsed: %+v", candles[0])
	}
}

func TestOverseasPrice(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathOverseasPrice {
			t.Fatalf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		// The quotation endpoint takes the 3-letter exchange code
		if q.Get("EXCD") != "NAS" || q.Get("SYMB") != "AAPL" {
			t.Errorf("Query params wrong: %v", q)
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output":{
			"rsym":"DNASAAPL","zdiv":"4","base":"150.00","last":"155.25",
			"sign":"2","diff":"5.25","rate":"3.50","tvol":"98765432","tamt":"1234567890"}}`)
	})

	quote, err := client.OverseasPrice(context.Background(), MarketNASD, "AAPL")
	if err != nil {
		t.Fatalf("OverseasPrice failed: %v", err)
	}
	if quote.Last != 155.25 || quote.PrevClose != 150.0 || quote.ChangeRate != 3.5 {
		t.Errorf("Quote not parsed: %+v", quote)
	}
	if quote.Currency != "USD" || quote.Market != MarketNASD {
		t.Errorf("Market metadata wrong: %+v", quote)
	}
}

func TestOverseasPriceUnknownMarket(t *testing.T) {
	client, _ := newTestClient(t, false, nil)
	if _, err := client.OverseasPrice(context.Background(), Market("MOON"), "X"); err == nil {
		t.Fatal("Expected error for unknown market")
	}
}

func TestParseHelpers(t *testing.T) {
	tests := []struct {
		in      string
		wantInt int64
	}{
		{"", 0},
		{" 42 ", 42},
		{"-7", -7},
		{"123.00", 123},
		{"abc", 0},
	}
	for _, tt := range tests {
		if got := parseInt(tt.in); got != tt.wantInt {
			t.Errorf("parseInt(%q) = %d, want %d", tt.in, got, tt.wantInt)
		}
	}

	if got := parseFloat("3.50"); got != 3.5 {
		t.Errorf("parseFloat = %v", got)
	}
	if got := parseFloat(""); got != 0 {
		t.Errorf("parseFloat empty = %v", got)
	}
}
