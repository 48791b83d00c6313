package kis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/wonny/kis-go/pkg/config"
	"github.com/wonny/kis-go/pkg/httputil"
	"github.com/wonny/kis-go/pkg/logger"
)

// API paths.
const (
	pathToken   = "/oauth2/tokenP"
	pathHashkey = "/uapi/hashkey"

	pathDomesticPrice    = "/uapi/domestic-stock/v1/quotations/inquire-price"
	pathDomesticDaily    = "/uapi/domestic-stock/v1/quotations/inquire-daily-price"
	pathOverseasPrice    = "/uapi/overseas-price/v1/quotations/price"
	pathDomesticBalance  = "/uapi/domestic-stock/v1/trading/inquire-balance"
	pathBuyableCash      = "/uapi/domestic-stock/v1/trading/inquire-psbl-order"
	pathOverseasBalance  = "/uapi/overseas-stock/v1/trading/inquire-balance"
	pathPSAmount         = "/uapi/overseas-stock/v1/trading/inquire-psamount"
	pathDomesticOrder    = "/uapi/domestic-stock/v1/trading/order-cash"
	pathDomesticRvseCncl = "/uapi/domestic-stock/v1/trading/order-rvsecncl"
	pathDomesticHistory  = "/uapi/domestic-stock/v1/trading/inquire-daily-ccld"
	pathDomesticOpen     = "/uapi/domestic-stock/v1/trading/inquire-psbl-rvsecncl"
	pathOverseasOrder    = "/uapi/overseas-stock/v1/trading/order"
	pathOverseasRvseCncl = "/uapi/overseas-stock/v1/trading/order-rvsecncl"
	pathOverseasHistory  = "/uapi/overseas-stock/v1/trading/inquire-ccnl"
	pathOverseasOpen     = "/uapi/overseas-stock/v1/trading/inquire-nccs"
)

// ErrNoAccount is returned by account operations when no account
// number is configured.
var ErrNoAccount = errors.New("kis: account not configured (set KIS_ACCOUNT_NO)")

// ErrMarketOrderUnsupported is returned when a market order is
// requested for an overseas exchange, which only accepts limit orders.
var ErrMarketOrderUnsupported = errors.New("kis: overseas exchanges accept limit orders only")

// Client talks to the KIS Open API REST gateway
// ⭐ SSOT: KIS API 호출은 이 클라이언트를 통해서만
type Client struct {
	cfg        config.KISConfig
	domain     Domain
	httpClient *httputil.Client
	logger     *logger.Logger

	accessToken string
	tokenExpiry time.Time
	tokenMu     sync.RWMutex
}

// NewClient creates a KIS API client. The rate limit is chosen by
// domain: the real gateway allows 20 req/s, the virtual gateway 2.
func NewClient(cfg config.KISConfig, log *logger.Logger) *Client {
	rps := httputil.RealRateLimit
	if cfg.IsVirtual {
		rps = httputil.VirtualRateLimit
	}

	return &Client{
		cfg:        cfg,
		domain:     NewDomain(cfg.IsVirtual, cfg.BaseURL, cfg.WSURL),
		httpClient: httputil.New(log).WithRateLimit(rps),
		logger:     log.WithField("component", "kis_client"),
	}
}

// Domain exposes the resolved gateway domain.
func (c *Client) Domain() Domain {
	return c.domain
}

// HasAccount reports whether account operations are available.
func (c *Client) HasAccount() bool {
	return c.cfg.HasAccount()
}

func (c *Client) requireAccount() error {
	if !c.cfg.HasAccount() {
		return ErrNoAccount
	}
	return nil
}

// getToken returns a cached access token, requesting a new one when
// the cached token is within a minute of expiry.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.RLock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		token := c.accessToken
		c.tokenMu.RUnlock()
		return token, nil
	}
	c.tokenMu.RUnlock()

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Another goroutine may have refreshed while we waited
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	resp, err := c.httpClient.PostJSON(ctx, c.domain.URL(pathToken), map[string]string{
		"grant_type": "client_credentials",
		"appkey":     c.cfg.AppKey,
		"appsecret":  c.cfg.AppSecret,
	})
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("token decode failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.accessToken = tok.AccessToken
	// Refresh a minute early to avoid using a token mid-expiry
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)

	c.logger.Info("KIS access token refreshed")
	return c.accessToken, nil
}

// hashkey obtains the server-side hash required on order POST bodies.
func (c *Client) hashkey(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.domain.URL(pathHashkey), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("hashkey request build failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("hashkey request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("hashkey returned %d: %s", resp.StatusCode, string(b))
	}

	var hk hashkeyResponse
	if err := json.NewDecoder(resp.Body).Decode(&hk); err != nil {
		return "", fmt.Errorf("hashkey decode failed: %w", err)
	}
	if hk.Hash == "" {
		return "", fmt.Errorf("hashkey response missing HASH")
	}
	return hk.Hash, nil
}

// setHeaders applies the common authenticated headers. The TR ID is
// rewritten for the virtual domain.
func (c *Client) setHeaders(req *http.Request, trID, token string) {
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)
	req.Header.Set("custtype", "P")
	req.Header.Set("tr_id", c.domain.AdjustTRID(trID))
}

// getJSON performs an authenticated GET, decodes the body into out,
// copies the tr_cont response header into the envelope and converts a
// non-zero rt_cd into an error.
func (c *Client) getJSON(ctx context.Context, path, trID string, q url.Values, cur Cursor, out apiResponse) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return err
	}

	u := c.domain.URL(path)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("request build failed: %w", err)
	}
	c.setHeaders(req, trID, token)
	if tc := cur.trCont(); tc != "" {
		req.Header.Set("tr_cont", tc)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("kis: %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("response decode failed: %w", err)
	}
	out.setTrCont(resp.Header.Get("tr_cont"))

	return out.apiError()
}

// postJSON performs an authenticated POST with the mandatory hashkey
// header. The envelope is decoded but a non-zero rt_cd is NOT turned
// into an error: order endpoints report rejections there and callers
// surface them in the result.
func (c *Client) postJSON(ctx context.Context, path, trID string, body any, out apiResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("request marshal failed: %w", err)
	}

	hash, err := c.hashkey(ctx, payload)
	if err != nil {
		return err
	}

	token, err := c.getToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.domain.URL(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request build failed: %w", err)
	}
	c.setHeaders(req, trID, token)
	req.Header.Set("hashkey", hash)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("kis: %s returned %d: %s", path, resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("response decode failed: %w", err)
	}
	out.setTrCont(resp.Header.Get("tr_cont"))
	return nil
}

// accountParams seeds query parameters with the account split.
func (c *Client) accountParams() url.Values {
	q := url.Values{}
	q.Set("CANO", c.cfg.CANO())
	q.Set("ACNT_PRDT_CD", c.cfg.ProductCode())
	return q
}
