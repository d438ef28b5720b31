// Package easy is a client for the DIBS Easy (Nets) payment REST API.
package easy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-dibs/app/money"
)

const (
	TestBaseURL = "https://test.api.dibspayment.eu"
	LiveBaseURL = "https://api.dibspayment.eu"

	testKeyPrefix = "test-secret-key-"
	liveKeyPrefix = "live-secret-key-"
)

var ErrPaymentNotFound = errors.New("payment not found")

// RequestError is returned for any non-2xx gateway response.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("easy request failed: method=%s path=%s status=%d body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

type Config struct {
	BaseURL     string
	SecretKey   string
	HTTPTimeout time.Duration
}

// ConfigFor selects the environment's base URL and secret key. The key is
// sent without its environment prefix.
func ConfigFor(testMode bool, testKey, liveKey string) Config {
	if testMode {
		return Config{BaseURL: TestBaseURL, SecretKey: strings.TrimPrefix(strings.TrimSpace(testKey), testKeyPrefix)}
	}
	return Config{BaseURL: LiveBaseURL, SecretKey: strings.TrimPrefix(strings.TrimSpace(liveKey), liveKeyPrefix)}
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = TestBaseURL
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest) (*CreatePaymentResult, error) {
	if req.Order.Amount < 0 {
		return nil, money.ErrInvalidAmount
	}

	var result CreatePaymentResult
	if err := c.do(ctx, http.MethodPost, "/v1/payments/", req, &result); err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.PaymentID) == "" {
		return nil, errors.New("easy payment id missing")
	}
	return &result, nil
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, ErrPaymentNotFound
	}

	var payload struct {
		Payment *Payment `json:"payment"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &payload)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payload.Payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payload.Payment, nil
}

func (c *Client) CancelPayment(ctx context.Context, paymentID string, amount int64) error {
	if strings.TrimSpace(paymentID) == "" {
		return ErrPaymentNotFound
	}
	if amount < 0 {
		return money.ErrInvalidAmount
	}
	return c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/cancels", &amountRequest{Amount: amount}, nil)
}

func (c *Client) ChargePayment(ctx context.Context, paymentID string, amount int64) (string, error) {
	if strings.TrimSpace(paymentID) == "" {
		return "", ErrPaymentNotFound
	}
	if amount < 0 {
		return "", money.ErrInvalidAmount
	}

	var payload struct {
		ChargeID string `json:"chargeId"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/charges", &amountRequest{Amount: amount}, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.ChargeID), nil
}

func (c *Client) RefundPayment(ctx context.Context, chargeID string, amount int64) (string, error) {
	if strings.TrimSpace(chargeID) == "" {
		return "", ErrPaymentNotFound
	}
	if amount < 0 {
		return "", money.ErrInvalidAmount
	}

	var payload struct {
		RefundID string `json:"refundId"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/charges/"+url.PathEscape(chargeID)+"/refunds", &amountRequest{Amount: amount}, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.RefundID), nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	return json.Unmarshal(respBody, out)
}
