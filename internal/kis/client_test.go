package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/wonny/kis-go/pkg/config"
	"github.com/wonny/kis-go/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "error", // Reduce log noise
		LogFormat: "json",
	})
}

// newTestClient wires a client against a fake gateway. handler serves
// everything except the token and hashkey endpoints, which the
// harness answers itself.
func newTestClient(t *testing.T, virtual bool, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()

	var tokenCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/tokenP", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenCalls, 1)
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":86400}`)
	})
	mux.HandleFunc("/uapi/hashkey", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"HASH":"test-hash"}`)
	})
	if handler != nil {
		mux.HandleFunc("/", handler)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.KISConfig{
		AppKey:    "app-key",
		AppSecret: "app-secret",
		AccountNo: "1234567801",
		BaseURL:   server.URL,
		IsVirtual: virtual,
	}
	client := NewClient(cfg, testLogger())
	client.httpClient.DisableRetry()
	return client, &tokenCalls
}

func TestGetTokenCached(t *testing.T) {
	client, tokenCalls := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output":{}}`)
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		var res priceResponse
		if err := client.getJSON(ctx, pathDomesticPrice, trIDDomesticPrice, nil, Cursor{}, &res); err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
	}

	if n := atomic.LoadInt32(tokenCalls); n != 1 {
		t.Errorf("Expected 1 token request, got %d", n)
	}
}

func TestGetJSONHeaders(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("authorization"); got != "Bearer test-token" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("appkey"); got != "app-key" {
			t.Errorf("appkey = %q", got)
		}
		if got := r.Header.Get("appsecret"); got != "app-secret" {
			t.Errorf("appsecret = %q", got)
		}
		if got := r.Header.Get("custtype"); got != "P" {
			t.Errorf("custtype = %q", got)
		}
		if got := r.Header.Get("tr_id"); got != trIDDomesticBalance {
			t.Errorf("tr_id = %q", got)
		}
		if r.Header.Get("tr_cont") != "" {
			t.Error("First request must not carry tr_cont")
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output1":[],"output2":[]}`)
	})

	var res balanceResponse
	if err := client.getJSON(context.Background(), pathDomesticBalance, trIDDomesticBalance, nil, Cursor{}, &res); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
}

func TestGetJSONVirtualTRID(t *testing.T) {
	client, _ := newTestClient(t, true, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("tr_id"); got != "VTTC8434R" {
			t.Errorf("Virtual tr_id = %q, want VTTC8434R", got)
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output1":[],"output2":[]}`)
	})

	var res balanceResponse
	if err := client.getJSON(context.Background(), pathDomesticBalance, trIDDomesticBalance, nil, Cursor{}, &res); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
}

func TestGetJSONTrContHeader(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("tr_cont", "F ")
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output1":[],"output2":[]}`)
	})

	var res balanceResponse
	if err := client.getJSON(context.Background(), pathDomesticBalance, trIDDomesticBalance, nil, Cursor{}, &res); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if res.TrCont != "F" {
		t.Errorf("TrCont = %q, want trimmed F", res.TrCont)
	}
}

func TestGetJSONContinuationRequest(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("tr_cont"); got != "N" {
			t.Errorf("tr_cont = %q, want N", got)
		}
		if got := r.URL.Query().Get("CTX_AREA_FK100"); got != "FWD" {
			t.Errorf("CTX_AREA_FK100 = %q", got)
		}
		if got := r.URL.Query().Get("CTX_AREA_NK100"); got != "NEXT" {
			t.Errorf("CTX_AREA_NK100 = %q", got)
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output1":[],"output2":[]}`)
	})

	cur := Cursor{ForwardKey: "FWD", NextKey: "NEXT", more: true}
	q := url.Values{}
	cur.apply(ScopeDomestic, q)

	var res balanceResponse
	if err := client.getJSON(context.Background(), pathDomesticBalance, trIDDomesticBalance, q, cur, &res); err != nil {
		t.Fatalf("Request failed: %v", err)
	}
}

func TestGetJSONAPIError(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rt_cd":"1","msg_cd":"EGW00123","msg1":"기간이 만료된 token 입니다."}`)
	})

	var res priceResponse
	err := client.getJSON(context.Background(), pathDomesticPrice, trIDDomesticPrice, nil, Cursor{}, &res)
	if err == nil {
		t.Fatal("Expected API error")
	}
}

func TestPostJSONHashkey(t *testing.T) {
	client, _ := newTestClient(t, false, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("hashkey"); got != "test-hash" {
			t.Errorf("hashkey = %q, want test-hash", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Body decode failed: %v", err)
		}
		if body["PDNO"] != "005930" {
			t.Errorf("PDNO = %q", body["PDNO"])
		}
		fmt.Fprint(w, `{"rt_cd":"0","msg_cd":"OK","msg1":"","output":{"ODNO":"1234"}}`)
	})

	var res placeOrderResponse
	err := client.postJSON(context.Background(), pathDomesticOrder, trIDDomesticBuy, map[string]string{"PDNO": "005930"}, &res)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if res.Output.OrderNo != "1234" {
		t.Errorf("OrderNo = %q", res.Output.OrderNo)
	}
}

func TestRequireAccount(t *testing.T) {
	cfg := config.KISConfig{AppKey: "k", AppSecret: "s"}
	client := NewClient(cfg, testLogger())

	if _, _, err := client.DomesticBalance(context.Background()); err != ErrNoAccount {
		t.Errorf("Expected ErrNoAccount, got %v", err)
	}
	if _, err := client.DomesticOpenOrders(context.Background()); err != ErrNoAccount {
		t.Errorf("Expected ErrNoAccount, got %v", err)
	}
	if _, err := client.PlaceDomesticOrder(context.Background(), DomesticOrderRequest{
		StockCode: "005930", Side: SideBuy, Quantity: 1, Price: 50000,
	}); err != ErrNoAccount {
		t.Errorf("Expected ErrNoAccount, got %v", err)
	}
}
