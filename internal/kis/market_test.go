package kis

import "testing"

func TestMarketTables(t *testing.T) {
	tests := []struct {
		market    Market
		priceCode string
		country   Country
		currency  string
	}{
		{MarketNASD, "NAS", CountryUSA, "USD"},
		{MarketNYSE, "NYS", CountryUSA, "USD"},
		{MarketAMEX, "AMS", CountryUSA, "USD"},
		{MarketSEHK, "HKS", CountryHK, "HKD"},
		{MarketTKSE, "TSE", CountryJP, "JPY"},
		{MarketSHAA, "SHS", CountryCNSHA, "CNY"},
		{MarketSZAA, "SZS", CountryCNSZX, "CNY"},
		{MarketHASE, "HNX", CountryVN, "VND"},
		{MarketVNSE, "HSX", CountryVN, "VND"},
	}

	for _, tt := range tests {
		t.Run(string(tt.market), func(t *testing.T) {
			if !tt.market.Valid() {
				t.Fatal("Market should be valid")
			}
			if got := tt.market.PriceCode(); got != tt.priceCode {
				t.Errorf("PriceCode = %q, want %q", got, tt.priceCode)
			}
			if got := tt.market.Country(); got != tt.country {
				t.Errorf("Country = %q, want %q", got, tt.country)
			}
			if got := tt.market.Currency(); got != tt.currency {
				t.Errorf("Currency = %q, want %q", got, tt.currency)
			}
		})
	}
}

func TestParseMarket(t *testing.T) {
	// Both the 4-letter trading code and 3-letter quotation alias
	for _, code := range []string{"NASD", "NAS"} {
		m, err := ParseMarket(code)
		if err != nil {
			t.Fatalf("ParseMarket(%q) failed: %v", code, err)
		}
		if m != MarketNASD {
			t.Errorf("ParseMarket(%q) = %q, want NASD", code, m)
		}
	}

	if _, err := ParseMarket("KOSPI"); err == nil {
		t.Error("Expected error for unknown market code")
	}
}

func TestAllMarketsStable(t *testing.T) {
	a := AllMarkets()
	b := AllMarkets()
	if len(a) != 9 {
		t.Fatalf("Expected 9 markets, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("AllMarkets order must be stable")
		}
	}

	// Mutating the returned slice must not affect the table
	a[0] = Market("XXXX")
	if AllMarkets()[0] != MarketNASD {
		t.Error("AllMarkets must return a copy")
	}
}

func TestOrderTRIDs(t *testing.T) {
	tests := []struct {
		market Market
		buy    string
		sell   string
		rvse   string
	}{
		{MarketNASD, "TTTT1002U", "TTTT1006U", "TTTT1004U"},
		{MarketNYSE, "TTTT1002U", "TTTT1006U", "TTTT1004U"},
		{MarketSEHK, "TTTS1002U", "TTTS1001U", "TTTS1003U"},
		{MarketTKSE, "TTTS0308U", "TTTS0307U", "TTTS0309U"},
		{MarketSHAA, "TTTS0202U", "TTTS1005U", "TTTS0302U"},
		{MarketSZAA, "TTTS0305U", "TTTS0304U", "TTTS0306U"},
		{MarketVNSE, "TTTS0311U", "TTTS0310U", "TTTS0312U"},
	}

	for _, tt := range tests {
		t.Run(string(tt.market), func(t *testing.T) {
			if got := tt.market.orderTRID(SideBuy); got != tt.buy {
				t.Errorf("buy TR ID = %q, want %q", got, tt.buy)
			}
			if got := tt.market.orderTRID(SideSell); got != tt.sell {
				t.Errorf("sell TR ID = %q, want %q", got, tt.sell)
			}
			if got := tt.market.reviseCancelTRID(); got != tt.rvse {
				t.Errorf("revise/cancel TR ID = %q, want %q", got, tt.rvse)
			}
		})
	}
}
