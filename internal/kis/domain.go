package kis

import "strings"

// Gateway endpoints for the real and virtual (모의투자) trading domains.
const (
	RealBaseURL    = "https://openapi.koreainvestment.com:9443"
	VirtualBaseURL = "https://openapivts.koreainvestment.com:29443"

	RealWSURL    = "ws://ops.koreainvestment.com:21000"
	VirtualWSURL = "ws://ops.koreainvestment.com:31000"
)

// Domain selects between the real and virtual trading gateways and
// rewrites TR IDs accordingly.
// ⭐ SSOT: 실전/모의 도메인 분기는 여기서만
type Domain struct {
	virtual bool
	baseURL string
	wsURL   string
}

// NewDomain builds a Domain. The overrides replace the default REST
// and websocket URLs when non-empty (used for tests against a local
// server).
func NewDomain(virtual bool, overrideURL, overrideWSURL string) Domain {
	d := Domain{virtual: virtual, wsURL: overrideWSURL}
	switch {
	case overrideURL != "":
		d.baseURL = strings.TrimRight(overrideURL, "/")
	case virtual:
		d.baseURL = VirtualBaseURL
	default:
		d.baseURL = RealBaseURL
	}
	return d
}

// IsVirtual reports whether this domain targets the virtual gateway.
func (d Domain) IsVirtual() bool {
	return d.virtual
}

// URL joins the base URL with an API path.
func (d Domain) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return d.baseURL + path
}

// WSURL returns the websocket endpoint for this domain.
func (d Domain) WSURL() string {
	if d.wsURL != "" {
		return d.wsURL
	}
	if d.virtual {
		return VirtualWSURL
	}
	return RealWSURL
}

// AdjustTRID rewrites a trading TR ID for the virtual domain: the
// leading T, J or C becomes V. Quotation TR IDs (FHKST..., HHDFS...)
// are identical on both domains and pass through unchanged.
func (d Domain) AdjustTRID(trID string) string {
	if !d.virtual || trID == "" {
		return trID
	}
	switch trID[0] {
	case 'T', 'J', 'C':
		return "V" + trID[1:]
	}
	return trID
}
