package kis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/kis-go/pkg/config"
	"github.com/wonny/kis-go/pkg/logger"
)

// Realtime TR IDs.
const (
	wsTRIDTick          = "H0STCNT0" // 실시간 체결가
	wsTRIDExecution     = "H0STCNI0" // 체결통보 (실전)
	wsTRIDExecutionDemo = "H0STCNI9" // 체결통보 (모의)

	pathApproval = "/oauth2/Approval"
)

// TickData is one realtime trade tick for a domestic stock.
type TickData struct {
	StockCode  string
	Time       string // HHMMSS
	Price      int64
	Change     int64
	ChangeRate float64
	Volume     int64
	AccVolume  int64
}

// ExecutionData is one order execution notice pushed for the account.
type ExecutionData struct {
	OrderNo     string
	OrigOrderNo string
	StockCode   string
	StockName   string
	Side        OrderSide
	ExecQty     int64
	ExecPrice   int64
	OrderQty    int64
	OrderPrice  int64
	Time        string
	Rejected    bool
}

// TickHandler receives realtime ticks.
type TickHandler func(TickData)

// ExecutionHandler receives execution notices.
type ExecutionHandler func(ExecutionData)

// WSClient maintains the realtime websocket session
// ⭐ SSOT: 실시간 시세 수신은 이 클라이언트를 통해서만
type WSClient struct {
	cfg    config.KISConfig
	domain Domain
	rest   *Client
	logger *logger.Logger

	conn        *websocket.Conn
	approvalKey string

	mu            sync.Mutex
	subscriptions map[string]TickHandler
	execHandler   ExecutionHandler
	aesKey        []byte
	aesIV         []byte

	done      chan struct{}
	closeOnce sync.Once
}

// NewWSClient creates a realtime client sharing the REST client's
// credentials and domain.
func NewWSClient(rest *Client, log *logger.Logger) *WSClient {
	return &WSClient{
		cfg:           rest.cfg,
		domain:        rest.domain,
		rest:          rest,
		logger:        log.WithField("component", "kis_ws"),
		subscriptions: make(map[string]TickHandler),
		done:          make(chan struct{}),
	}
}

// getApprovalKey obtains the websocket approval key. Unlike REST
// tokens it uses secretkey, not appsecret, in the request body.
func (w *WSClient) getApprovalKey(ctx context.Context) (string, error) {
	resp, err := w.rest.httpClient.PostJSON(ctx, w.domain.URL(pathApproval), map[string]string{
		"grant_type": "client_credentials",
		"appkey":     w.cfg.AppKey,
		"secretkey":  w.cfg.AppSecret,
	})
	if err != nil {
		return "", fmt.Errorf("approval key request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("approval key request returned %d", resp.StatusCode)
	}

	var out struct {
		ApprovalKey string `json:"approval_key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("approval key decode failed: %w", err)
	}
	if out.ApprovalKey == "" {
		return "", fmt.Errorf("approval response missing approval_key")
	}
	return out.ApprovalKey, nil
}

// Connect dials the websocket gateway and starts the read and ping
// loops.
func (w *WSClient) Connect(ctx context.Context) error {
	key, err := w.getApprovalKey(ctx)
	if err != nil {
		return err
	}
	w.approvalKey = key

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.domain.WSURL(), nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()

	// The loops are bound to this conn; when a reconnect installs a
	// fresh conn they notice and exit instead of piling up.
	go w.readLoop(conn)
	go w.pingLoop(conn)

	w.logger.Info("realtime websocket connected")
	return nil
}

// Close shuts the session down.
func (w *WSClient) Close() error {
	w.closeOnce.Do(func() { close(w.done) })

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

type wsRequest struct {
	Header wsHeader `json:"header"`
	Body   wsBody   `json:"body"`
}

type wsHeader struct {
	ApprovalKey string `json:"approval_key"`
	CustType    string `json:"custtype"`
	TrType      string `json:"tr_type"` // 1 subscribe, 2 unsubscribe
	ContentType string `json:"content-type"`
}

type wsBody struct {
	Input wsInput `json:"input"`
}

type wsInput struct {
	TrID  string `json:"tr_id"`
	TrKey string `json:"tr_key"`
}

func (w *WSClient) send(trType, trID, trKey string) error {
	msg := wsRequest{
		Header: wsHeader{
			ApprovalKey: w.approvalKey,
			CustType:    "P",
			TrType:      trType,
			ContentType: "utf-8",
		},
		Body: wsBody{Input: wsInput{TrID: trID, TrKey: trKey}},
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	return w.conn.WriteJSON(msg)
}

// writeMessage writes one frame to the current connection. All writes
// go through w.mu: gorilla connections support only one concurrent
// writer.
func (w *WSClient) writeMessage(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	return w.conn.WriteMessage(messageType, data)
}

// SubscribeTicks registers a handler for realtime ticks on a domestic
// stock.
func (w *WSClient) SubscribeTicks(stockCode string, h TickHandler) error {
	if err := w.send("1", wsTRIDTick, stockCode); err != nil {
		return err
	}
	w.mu.Lock()
	w.subscriptions[stockCode] = h
	w.mu.Unlock()

	w.logger.WithField("stock_code", stockCode).Info("tick subscription requested")
	return nil
}

// UnsubscribeTicks drops a tick subscription.
func (w *WSClient) UnsubscribeTicks(stockCode string) error {
	w.mu.Lock()
	delete(w.subscriptions, stockCode)
	w.mu.Unlock()
	return w.send("2", wsTRIDTick, stockCode)
}

// SubscribeExecutions registers a handler for the account's execution
// notices. Requires the HTS ID in config.
func (w *WSClient) SubscribeExecutions(h ExecutionHandler) error {
	if w.cfg.HtsID == "" {
		return fmt.Errorf("kis: HTS ID not configured (set KIS_HTS_ID)")
	}

	trID := wsTRIDExecution
	if w.domain.IsVirtual() {
		trID = wsTRIDExecutionDemo
	}
	if err := w.send("1", trID, w.cfg.HtsID); err != nil {
		return err
	}

	w.mu.Lock()
	w.execHandler = h
	w.mu.Unlock()
	return nil
}

func (w *WSClient) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}

			// A newer conn means another loop already reconnected
			w.mu.Lock()
			stale := w.conn != conn
			w.mu.Unlock()
			if stale {
				return
			}

			w.logger.WithError(err).Warn("websocket read failed")
			w.reconnect(conn)
			return
		}

		w.handleMessage(string(data))
	}
}

func (w *WSClient) handleMessage(msg string) {
	// Control messages are JSON, data frames are pipe-delimited
	if strings.HasPrefix(msg, "{") {
		w.handleControl(msg)
		return
	}

	// Frame layout: encrypted|TR_ID|record count|payload
	parts := strings.SplitN(msg, "|", 4)
	if len(parts) < 4 {
		w.logger.WithField("frame", msg).Warn("malformed websocket frame")
		return
	}

	encrypted := parts[0] == "1"
	trID := parts[1]
	payload := parts[3]

	if encrypted {
		plain, err := w.decrypt(payload)
		if err != nil {
			w.logger.WithError(err).Warn("frame decrypt failed")
			return
		}
		payload = plain
	}

	switch trID {
	case wsTRIDTick:
		w.dispatchTick(payload)
	case wsTRIDExecution, wsTRIDExecutionDemo:
		w.dispatchExecution(payload)
	}
}

type wsControl struct {
	Header struct {
		TrID  string `json:"tr_id"`
		TrKey string `json:"tr_key"`
	} `json:"header"`
	Body struct {
		RtCd   string `json:"rt_cd"`
		Msg1   string `json:"msg1"`
		Output struct {
			IV  string `json:"iv"`
			Key string `json:"key"`
		} `json:"output"`
	} `json:"body"`
}

func (w *WSClient) handleControl(msg string) {
	var ctl wsControl
	if err := json.Unmarshal([]byte(msg), &ctl); err != nil {
		w.logger.WithError(err).Warn("control message decode failed")
		return
	}

	if ctl.Header.TrID == "PINGPONG" {
		if err := w.writeMessage(websocket.TextMessage, []byte(msg)); err != nil {
			w.logger.WithError(err).Warn("pingpong echo failed")
		}
		return
	}

	// Subscribe acks for encrypted channels deliver the AES key/iv
	if ctl.Body.Output.Key != "" {
		w.mu.Lock()
		w.aesKey = []byte(ctl.Body.Output.Key)
		w.aesIV = []byte(ctl.Body.Output.IV)
		w.mu.Unlock()
	}

	w.logger.WithFields(map[string]interface{}{
		"tr_id": ctl.Header.TrID,
		"rt_cd": ctl.Body.RtCd,
		"msg":   ctl.Body.Msg1,
	}).Debug("websocket control message")
}

// dispatchTick parses caret-separated tick records. Several records
// may be packed into one frame.
func (w *WSClient) dispatchTick(payload string) {
	fields := strings.Split(payload, "^")
	const recordLen = 46
	for len(fields) >= 14 {
		tick := TickData{
			StockCode:  fields[0],
			Time:       fields[1],
			Price:      parseInt(fields[2]),
			Change:     parseInt(fields[4]),
			ChangeRate: parseFloat(fields[5]),
			Volume:     parseInt(fields[12]),
			AccVolume:  parseInt(fields[13]),
		}

		w.mu.Lock()
		h := w.subscriptions[tick.StockCode]
		w.mu.Unlock()
		if h != nil {
			h(tick)
		}

		if len(fields) <= recordLen {
			break
		}
		fields = fields[recordLen:]
	}
}

func (w *WSClient) dispatchExecution(payload string) {
	fields := strings.Split(payload, "^")
	if len(fields) < 23 {
		w.logger.WithField("field_count", len(fields)).Warn("short execution notice")
		return
	}

	exec := ExecutionData{
		OrderNo:     fields[2],
		OrigOrderNo: fields[3],
		Side:        sideFromCode(fields[4]),
		StockCode:   strings.TrimPrefix(fields[8], "A"),
		ExecQty:     parseInt(fields[9]),
		ExecPrice:   parseInt(fields[10]),
		Time:        fields[11],
		Rejected:    fields[12] == "1",
		OrderQty:    parseInt(fields[16]),
		StockName:   fields[21],
		OrderPrice:  parseInt(fields[22]),
	}

	w.mu.Lock()
	h := w.execHandler
	w.mu.Unlock()
	if h != nil {
		h(exec)
	}
}

// decrypt decodes a base64 AES-256-CBC payload using the key/iv from
// the subscribe ack.
func (w *WSClient) decrypt(payload string) (string, error) {
	w.mu.Lock()
	key, iv := w.aesKey, w.aesIV
	w.mu.Unlock()
	if len(key) == 0 || len(iv) == 0 {
		return "", fmt.Errorf("no AES key received yet")
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("base64 decode failed: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("cipher init failed: %w", err)
	}
	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return "", fmt.Errorf("ciphertext not block-aligned")
	}

	plain := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, raw)

	return string(pkcs7Unpad(plain)), nil
}

func pkcs7Unpad(data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	pad := int(data[len(data)-1])
	if pad <= 0 || pad > len(data) {
		return data
	}
	return data[:len(data)-pad]
}

func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			if w.conn != conn {
				// Replaced by a reconnect; the new conn has its own loop
				w.mu.Unlock()
				return
			}
			err := conn.WriteMessage(websocket.PingMessage, nil)
			w.mu.Unlock()
			if err != nil {
				w.logger.WithError(err).Warn("websocket ping failed")
				return
			}
		}
	}
}

// reconnect redials with backoff and restores subscriptions. failed is
// the conn whose read broke; a concurrent reconnect that already
// replaced it wins.
func (w *WSClient) reconnect(failed *websocket.Conn) {
	w.mu.Lock()
	if w.conn != failed {
		w.mu.Unlock()
		return
	}
	w.conn.Close()
	w.conn = nil
	subs := make([]string, 0, len(w.subscriptions))
	for code := range w.subscriptions {
		subs = append(subs, code)
	}
	execHandler := w.execHandler
	w.mu.Unlock()

	delay := time.Second
	for attempt := 1; attempt <= 5; attempt++ {
		select {
		case <-w.done:
			return
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := w.Connect(ctx)
		cancel()
		if err == nil {
			for _, code := range subs {
				w.mu.Lock()
				h := w.subscriptions[code]
				w.mu.Unlock()
				if err := w.SubscribeTicks(code, h); err != nil {
					w.logger.WithError(err).Warn("resubscribe failed")
				}
			}
			if execHandler != nil {
				if err := w.SubscribeExecutions(execHandler); err != nil {
					w.logger.WithError(err).Warn("execution resubscribe failed")
				}
			}
			w.logger.WithField("attempt", attempt).Info("websocket reconnected")
			return
		}

		w.logger.WithError(err).WithField("attempt", attempt).Warn("reconnect failed")
		delay *= 2
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
	}

	w.logger.Error("websocket reconnect attempts exhausted")
}
