package kis

import "fmt"

// Market is a KIS overseas exchange code (4-letter form used by
// trading endpoints).
type Market string

// Supported overseas exchanges.
const (
	MarketNASD Market = "NASD" // 나스닥
	MarketNYSE Market = "NYSE" // 뉴욕
	MarketAMEX Market = "AMEX" // 아멕스
	MarketSEHK Market = "SEHK" // 홍콩
	MarketTKSE Market = "TKSE" // 도쿄
	MarketSHAA Market = "SHAA" // 상해
	MarketSZAA Market = "SZAA" // 심천
	MarketHASE Market = "HASE" // 하노이
	MarketVNSE Market = "VNSE" // 호치민
)

// Country groups markets that share order TR IDs and settlement
// currency rules.
type Country string

const (
	CountryUSA   Country = "USA"
	CountryHK    Country = "HK"
	CountryJP    Country = "JP"
	CountryCNSHA Country = "CN_SHA"
	CountryCNSZX Country = "CN_SZX"
	CountryVN    Country = "VN"
)

// marketInfo is the per-exchange metadata table.
var marketInfo = map[Market]struct {
	priceCode string // 3-letter code used by quotation endpoints
	country   Country
	currency  string
}{
	MarketNASD: {"NAS", CountryUSA, "USD"},
	MarketNYSE: {"NYS", CountryUSA, "USD"},
	MarketAMEX: {"AMS", CountryUSA, "USD"},
	MarketSEHK: {"HKS", CountryHK, "HKD"},
	MarketTKSE: {"TSE", CountryJP, "JPY"},
	MarketSHAA: {"SHS", CountryCNSHA, "CNY"},
	MarketSZAA: {"SZS", CountryCNSZX, "CNY"},
	MarketHASE: {"HNX", CountryVN, "VND"},
	MarketVNSE: {"HSX", CountryVN, "VND"},
}

// allMarkets lists every supported exchange in a stable order. Account
// queries that span all exchanges iterate this slice.
var allMarkets = []Market{
	MarketNASD, MarketNYSE, MarketAMEX,
	MarketSEHK, MarketTKSE,
	MarketSHAA, MarketSZAA,
	MarketHASE, MarketVNSE,
}

// AllMarkets returns every supported overseas exchange.
func AllMarkets() []Market {
	out := make([]Market, len(allMarkets))
	copy(out, allMarkets)
	return out
}

// ParseMarket accepts a 4-letter exchange code (NASD) or its 3-letter
// quotation alias (NAS) and returns the canonical Market.
func ParseMarket(code string) (Market, error) {
	m := Market(code)
	if _, ok := marketInfo[m]; ok {
		return m, nil
	}
	for mk, info := range marketInfo {
		if info.priceCode == code {
			return mk, nil
		}
	}
	return "", fmt.Errorf("kis: unknown market code %q", code)
}

// Valid reports whether m is a supported exchange.
func (m Market) Valid() bool {
	_, ok := marketInfo[m]
	return ok
}

// PriceCode returns the 3-letter exchange code used by quotation
// endpoints (EXCD parameter).
func (m Market) PriceCode() string {
	return marketInfo[m].priceCode
}

// Country returns the country grouping for order TR ID selection.
func (m Market) Country() Country {
	return marketInfo[m].country
}

// Currency returns the ISO currency the exchange settles in.
func (m Market) Currency() string {
	return marketInfo[m].currency
}

// orderTRID returns the real-domain TR ID for placing an order on this
// market. Domain.AdjustTRID converts it for the virtual gateway.
var orderTRIDs = map[Country]struct{ buy, sell string }{
	CountryUSA:   {"TTTT1002U", "TTTT1006U"},
	CountryHK:    {"TTTS1002U", "TTTS1001U"},
	CountryJP:    {"TTTS0308U", "TTTS0307U"},
	CountryCNSHA: {"TTTS0202U", "TTTS1005U"},
	CountryCNSZX: {"TTTS0305U", "TTTS0304U"},
	CountryVN:    {"TTTS0311U", "TTTS0310U"},
}

func (m Market) orderTRID(side OrderSide) string {
	ids := orderTRIDs[m.Country()]
	if side == SideBuy {
		return ids.buy
	}
	return ids.sell
}

// reviseCancelTRID returns the real-domain TR ID for revising or
// cancelling an order on this market.
var reviseCancelTRIDs = map[Country]string{
	CountryUSA:   "TTTT1004U",
	CountryHK:    "TTTS1003U",
	CountryJP:    "TTTS0309U",
	CountryCNSHA: "TTTS0302U",
	CountryCNSZX: "TTTS0306U",
	CountryVN:    "TTTS0312U",
}

func (m Market) reviseCancelTRID() string {
	return reviseCancelTRIDs[m.Country()]
}
