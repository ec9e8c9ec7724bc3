package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"medassist/internal/config"
	"medassist/internal/models"

	"github.com/shopspring/decimal"
)

const mpesaTimestampLayout = "20060102150405"

// PaymentRequest asks the payer's phone to approve a charge.
type PaymentRequest struct {
	PhoneNumber      string
	Amount           decimal.Decimal
	AccountReference string
	Description      string
}

// PaymentInitiation is the gateway's synchronous answer to a payment request.
type PaymentInitiation struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Accepted reports whether the prompt was delivered to the payer.
func (p *PaymentInitiation) Accepted() bool {
	return p.ResponseCode == "0"
}

type PaymentGateway interface {
	Initiate(ctx context.Context, req *PaymentRequest) (*PaymentInitiation, error)
	Query(ctx context.Context, checkoutRequestID string) (map[string]interface{}, error)
}

type mpesaGateway struct {
	cfg     config.MpesaConfig
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewMpesaGateway creates a Daraja STK push client. now supplies the
// timestamps embedded in request passwords.
func NewMpesaGateway(cfg config.MpesaConfig, now func() time.Time) PaymentGateway {
	return &mpesaGateway{
		cfg:     cfg,
		baseURL: mpesaBaseURL(cfg.Environment),
		http:    &http.Client{Timeout: 30 * time.Second},
		now:     now,
	}
}

func mpesaBaseURL(environment string) string {
	if environment == "production" {
		return "https://api.safaricom.co.ke"
	}
	return "https://sandbox.safaricom.co.ke"
}

type mpesaTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken fetches a client-credentials token, reusing it until shortly
// before it expires.
func (g *mpesaGateway) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && time.Now().Before(g.tokenExpiry) {
		return g.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(g.cfg.ConsumerKey, g.cfg.ConsumerSecret)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get M-Pesa access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("failed to get M-Pesa access token: status %d: %s", resp.StatusCode, body)
	}

	var tr mpesaTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode M-Pesa access token: %w", err)
	}

	ttl := time.Hour
	if secs, err := strconv.Atoi(tr.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	g.token = tr.AccessToken
	g.tokenExpiry = time.Now().Add(ttl - time.Minute)
	return g.token, nil
}

func (g *mpesaGateway) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(g.cfg.BusinessShortCode + g.cfg.Passkey + timestamp))
}

func (g *mpesaGateway) post(ctx context.Context, path string, payload, out interface{}) error {
	token, err := g.accessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("M-Pesa %s returned status %d: %s", path, resp.StatusCode, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *mpesaGateway) Initiate(ctx context.Context, r *PaymentRequest) (*PaymentInitiation, error) {
	timestamp := g.now().Format(mpesaTimestampLayout)
	payload := map[string]interface{}{
		"BusinessShortCode": g.cfg.BusinessShortCode,
		"Password":          g.password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            r.Amount.Ceil().IntPart(),
		"PartyA":            r.PhoneNumber,
		"PartyB":            g.cfg.BusinessShortCode,
		"PhoneNumber":       r.PhoneNumber,
		"CallBackURL":       g.cfg.CallbackURL,
		"AccountReference":  r.AccountReference,
		"TransactionDesc":   r.Description,
	}

	var out PaymentInitiation
	if err := g.post(ctx, "/mpesa/stkpush/v1/processrequest", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *mpesaGateway) Query(ctx context.Context, checkoutRequestID string) (map[string]interface{}, error) {
	timestamp := g.now().Format(mpesaTimestampLayout)
	payload := map[string]interface{}{
		"BusinessShortCode": g.cfg.BusinessShortCode,
		"Password":          g.password(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	out := map[string]interface{}{}
	if err := g.post(ctx, "/mpesa/stkpushquery/v1/query", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// STKCallback is the body the gateway posts to the callback URL.
type STKCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  *struct {
				Item []STKCallbackItem `json:"Item"`
			} `json:"CallbackMetadata,omitempty"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// Settlement flattens the callback. TransactionDate is read in loc.
func (c *STKCallback) Settlement(loc *time.Location) *models.PaymentSettlement {
	cb := c.Body.StkCallback
	s := &models.PaymentSettlement{
		CheckoutRequestID: cb.CheckoutRequestID,
		MerchantRequestID: cb.MerchantRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}
	if cb.CallbackMetadata == nil {
		return s
	}

	for _, item := range cb.CallbackMetadata.Item {
		value := metadataString(item.Value)
		switch item.Name {
		case "Amount":
			if d, err := decimal.NewFromString(value); err == nil {
				s.Amount = d
			}
		case "MpesaReceiptNumber":
			s.ReceiptNumber = value
		case "TransactionDate":
			if t, err := time.ParseInLocation(mpesaTimestampLayout, value, loc); err == nil {
				s.TransactionDate = &t
			}
		case "PhoneNumber":
			s.PhoneNumber = value
		}
	}
	return s
}

// metadataString renders numeric metadata without exponent notation.
func metadataString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
