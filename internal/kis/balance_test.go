package kis

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
)

func TestDomesticBalancePagination(t *testing.T) {
	// Page 1 holds A and B with a live cursor; page 2 repeats B at
	// the boundary and adds C, then terminates.
	var calls int32
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathDomesticBalance {
			t.Fatalf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("CANO") != "12345678" || q.Get("ACNT_PRDT_CD") != "01" {
			t.Errorf("Account params wrong: %v", q)
		}

		switch atomic.AddInt32(&calls, 1) {
		case 1:
			if r.Header.Get("tr_cont") != "" {
				t.Error("First page request must not set tr_cont")
			}
			if q.Get("CTX_AREA_FK100") != "" || q.Get("CTX_AREA_NK100") != "" {
				t.Errorf("First page cursor must be empty: %v", q)
			}
			w.Header().Set("tr_cont", "F")
			fmt.Fprint(w, `{
				"rt_cd":"0","msg_cd":"OK","msg1":"",
				"ctx_area_fk100":"FK-PAGE1","ctx_area_nk100":"NK-PAGE1",
				"output1":[
					{"pdno":"005930","prdt_name":"삼성전자","hldg_qty":"10","ord_psbl_qty":"10","pchs_avg_pric":"70000.00","pchs_amt":"700000","prpr":"71000","evlu_amt":"710000","evlu_pfls_amt":"10000","evlu_pfls_rt":"1.43"},
					{"pdno":"000660","prdt_name":"SK하이닉스","hldg_qty":"5","ord_psbl_qty":"5","pchs_avg_pric":"120000.00","pchs_amt":"600000","prpr":"125000","evlu_amt":"625000","evlu_pfls_amt":"25000","evlu_pfls_rt":"4.17"}
				],
				"output2":[{"dnca_tot_amt":"1000000","prvs_rcdl_excc_amt":"990000","pchs_amt_smtl_amt":"1300000","evlu_amt_smtl_amt":"1335000","evlu_pfls_smtl_amt":"35000","nass_amt":"2335000","tot_evlu_amt":"2335000"}]
			}`)
		case 2:
			if r.Header.Get("tr_cont") != "N" {
				t.Errorf("Continuation request tr_cont = %q, want N", r.Header.Get("tr_cont"))
			}
			if q.Get("CTX_AREA_FK100") != "FK-PAGE1" || q.Get("CTX_AREA_NK100") != "NK-PAGE1" {
				t.Errorf("Cursor not echoed verbatim: %v", q)
			}
			w.Header().Set("tr_cont", "D")
			fmt.Fprint(w, `{
				"rt_cd":"0","msg_cd":"OK","msg1":"",
				"ctx_area_fk100":"","ctx_area_nk100":"",
				"output1":[
					{"pdno":"000660","prdt_name":"SK하이닉스","hldg_qty":"5","ord_psbl_qty":"5","pchs_avg_pric":"120000.00","pchs_amt":"600000","prpr":"125000","evlu_amt":"625000","evlu_pfls_amt":"25000","evlu_pfls_rt":"4.17"},
					{"pdno":"035420","prdt_name":"NAVER","hldg_qty":"2","ord_psbl_qty":"2","pchs_avg_pric":"200000.00","pchs_amt":"400000","prpr":"195000","evlu_amt":"390000","evlu_pfls_amt":"-10000","evlu_pfls_rt":"-2.50"}
				],
				"output2":[{"dnca_tot_amt":"1000000"}]
			}`)
		default:
			t.Error("Too many page requests")
		}
	})

	bal, positions, err := client.DomesticBalance(context.Background())
	if err != nil {
		t.Fatalf("DomesticBalance failed: %v", err)
	}

	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("Expected 2 page fetches, got %d", calls)
	}

	// Boundary duplicate removed, order preserved
	if len(positions) != 3 {
		t.Fatalf("Expected 3 positions after dedupe, got %d", len(positions))
	}
	wantCodes := []string{"005930", "000660", "035420"}
	for i, want := range wantCodes {
		if positions[i].StockCode != want {
			t.Errorf("Position %d = %s, want %s", i, positions[i].StockCode, want)
		}
	}

	if positions[0].Quantity != 10 || positions[0].AvgBuyPrice != 70000 {
		t.Errorf("Position fields not parsed: %+v", positions[0])
	}
	if bal.TotalDeposit != 1000000 || bal.TotalAsset != 2335000 {
		t.Errorf("Balance summary not parsed: %+v", bal)
	}
}

func TestDomesticBalanceEmpty(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"",
			"ctx_area_fk100":"","ctx_area_nk100":"",
			"output1":[],
			"output2":[{"dnca_tot_amt":"500000","tot_evlu_amt":"500000"}]}`)
	})

	bal, positions, err := client.DomesticBalance(context.Background())
	if err != nil {
		t.Fatalf("DomesticBalance failed: %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("Expected no positions, got %d", len(positions))
	}
	if bal.TotalDeposit != 500000 {
		t.Errorf("TotalDeposit = %d", bal.TotalDeposit)
	}
}

func TestDomesticBalanceAbortsOnPageError(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("tr_cont", "F")
			fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"",
				"ctx_area_fk100":"FK","ctx_area_nk100":"NK",
				"output1":[{"pdno":"005930"}],"output2":[{}]}`)
			return
		}
		fmt.Fprint(w, `{"rt_cd":"1","msg_cd":"EGW00121","msg1":"유효하지 않은 token 입니다."}`)
	})

	_, _, err := client.DomesticBalance(context.Background())
	if err == nil {
		t.Fatal("Expected error from failing continuation page")
	}
}

func TestDomesticDeposit(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		// A live cursor that must NOT be followed for a deposit query
		w.Header().Set("tr_cont", "F")
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"",
			"ctx_area_fk100":"FK","ctx_area_nk100":"NK",
			"output1":[{"pdno":"005930"}],
			"output2":[{"dnca_tot_amt":"1234567"}]}`)
	})

	deposit, err := client.DomesticDeposit(context.Background())
	if err != nil {
		t.Fatalf("DomesticDeposit failed: %v", err)
	}
	if deposit != 1234567 {
		t.Errorf("Deposit = %d, want 1234567", deposit)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Deposit must fetch only the first page, got %d fetches", calls)
	}
}

func TestBuyableCash(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathBuyableCash {
			t.Fatalf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("ORD_DVSN") != "02" || q.Get("CMA_EVLU_AMT_ICLD_YN") != "Y" {
			t.Errorf("Query params wrong: %v", q)
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output":{"ord_psbl_cash":"7777777"}}`)
	})

	cash, err := client.BuyableCash(context.Background())
	if err != nil {
		t.Fatalf("BuyableCash failed: %v", err)
	}
	if cash != 7777777 {
		t.Errorf("Cash = %d", cash)
	}
}

func TestOverseasBalance(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathOverseasBalance {
			t.Fatalf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("OVRS_EXCG_CD") != "NASD" || q.Get("TR_CRCY_CD") != "USD" {
			t.Errorf("Market params wrong: %v", q)
		}

		switch atomic.AddInt32(&calls, 1) {
		case 1:
			if q.Get("CTX_AREA_FK200") != "" || q.Get("CTX_AREA_NK200") != "" {
				t.Errorf("First page overseas cursor must be empty: %v", q)
			}
			w.Header().Set("tr_cont", "M")
			fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"",
				"ctx_area_fk200":"OFK","ctx_area_nk200":"ONK",
				"output1":[
					{"ovrs_pdno":"AAPL","ovrs_item_name":"애플","ovrs_cblc_qty":"3","ord_psbl_qty":"3","frcr_pchs_amt1":"450.00","now_pric2":"155.00","evlu_pfls_rt":"3.33","ovrs_excg_cd":"NASD","tr_crcy_cd":"USD"},
					{"ovrs_pdno":"ZERO","ovrs_item_name":"청산완료","ovrs_cblc_qty":"0","ord_psbl_qty":"0","frcr_pchs_amt1":"0","now_pric2":"0","evlu_pfls_rt":"0","ovrs_excg_cd":"NASD","tr_crcy_cd":"USD"}
				]}`)
		case 2:
			if q.Get("CTX_AREA_FK200") != "OFK" || q.Get("CTX_AREA_NK200") != "ONK" {
				t.Errorf("Overseas cursor not echoed: %v", q)
			}
			if q.Get("CTX_AREA_FK100") != "" {
				t.Error("Overseas query must not carry the domestic cursor family")
			}
			fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"",
				"ctx_area_fk200":"","ctx_area_nk200":"",
				"output1":[{"ovrs_pdno":"TSLA","ovrs_item_name":"테슬라","ovrs_cblc_qty":"1","ord_psbl_qty":"1","frcr_pchs_amt1":"250.00","now_pric2":"240.00","evlu_pfls_rt":"-4.00","ovrs_excg_cd":"NASD","tr_crcy_cd":"USD"}]}`)
		default:
			t.Error("Too many page requests")
		}
	})

	positions, err := client.OverseasBalance(context.Background(), MarketNASD)
	if err != nil {
		t.Fatalf("OverseasBalance failed: %v", err)
	}

	// Zero-quantity rows are dropped
	if len(positions) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(positions))
	}
	if positions[0].StockCode != "AAPL" || positions[1].StockCode != "TSLA" {
		t.Errorf("Unexpected positions: %+v", positions)
	}
	if positions[0].Market != MarketNASD || positions[0].Currency != "USD" {
		t.Errorf("Market metadata missing: %+v", positions[0])
	}
	if positions[0].CurrentPrice != 155.0 {
		t.Errorf("CurrentPrice = %v", positions[0].CurrentPrice)
	}
}

func TestOverseasDepositReal(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pathPSAmount {
			t.Fatalf("Unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output":{"ovrs_ord_psbl_amt":"0","frcr_ord_psbl_amt1":"100.50","exrt":"1300.00"}}`)
	})

	deposit, err := client.OverseasDeposit(context.Background())
	if err != nil {
		t.Fatalf("OverseasDeposit failed: %v", err)
	}
	if want := 100.50 * 1300.00; deposit != want {
		t.Errorf("Deposit = %v, want %v", deposit, want)
	}
}

func TestOverseasDepositVirtualFallsBack(t *testing.T) {
	client, _ := newTestClient(t, true, func(w http.ResponseWriter, r *http.Request) {
		// The virtual domain must use the domestic balance endpoint
		if r.URL.Path != pathDomesticBalance {
			t.Fatalf("Unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"",
			"ctx_area_fk100":"","ctx_area_nk100":"",
			"output1":[],"output2":[{"dnca_tot_amt":"500000"}]}`)
	})

	deposit, err := client.OverseasDeposit(context.Background())
	if err != nil {
		t.Fatalf("OverseasDeposit failed: %v", err)
	}
	if deposit != 500000 {
		t.Errorf("Deposit = %v, want 500000", deposit)
	}
}
