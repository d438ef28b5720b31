package legacy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-dibs/app/signature"
)

const DefaultBaseURL = "https://payment.architrade.com"

type RequestError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("dibs request failed: path=%s status=%d body=%s", e.Path, e.StatusCode, e.Body)
}

// RejectedError is a well-formed reply whose result code is not accepted.
type RejectedError struct {
	Operation string
	Result    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("dibs %s rejected: result=%s", e.Operation, e.Result)
}

type Config struct {
	BaseURL     string
	Merchant    string
	MD5Key1     string
	MD5Key2     string
	APIUsername string
	APIPassword string
	HTTPTimeout time.Duration
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
		cfg.BaseURL = DefaultBaseURL
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// PayInfo returns the raw status code of a transaction.
func (c *Client) PayInfo(ctx context.Context, transact string) (string, error) {
	values := url.Values{}
	values.Set("transact", transact)

	reply, err := c.postForm(ctx, "/cgi-adm/payinfo.cgi", values, true)
	if err != nil {
		return "", err
	}
	return reply.Get("status"), nil
}

func (c *Client) Cancel(ctx context.Context, orderID, transact string) error {
	md5key, err := signature.Sign(signature.CancelFields(c.cfg.Merchant, orderID, transact), c.cfg.MD5Key1, c.cfg.MD5Key2)
	if err != nil {
		return err
	}

	values := c.baseValues(orderID, transact)
	values.Set("md5key", md5key)
	return c.expectAccepted(ctx, "cancel", "/cgi-adm/cancel.cgi", values, true)
}

func (c *Client) Capture(ctx context.Context, orderID, transact string, amountMinor int64) error {
	amount := strconv.FormatInt(amountMinor, 10)
	md5key, err := signature.Sign(signature.CaptureFields(c.cfg.Merchant, orderID, transact, amount), c.cfg.MD5Key1, c.cfg.MD5Key2)
	if err != nil {
		return err
	}

	values := c.baseValues(orderID, transact)
	values.Set("amount", amount)
	values.Set("md5key", md5key)
	return c.expectAccepted(ctx, "capture", "/cgi-bin/capture.cgi", values, false)
}

func (c *Client) Refund(ctx context.Context, orderID, transact string, amountMinor int64, currencyNumeric string) error {
	amount := strconv.FormatInt(amountMinor, 10)
	md5key, err := signature.Sign(signature.CaptureFields(c.cfg.Merchant, orderID, transact, amount), c.cfg.MD5Key1, c.cfg.MD5Key2)
	if err != nil {
		return err
	}

	values := c.baseValues(orderID, transact)
	values.Set("amount", amount)
	values.Set("currency", currencyNumeric)
	values.Set("md5key", md5key)
	return c.expectAccepted(ctx, "refund", "/cgi-adm/refund.cgi", values, true)
}

func (c *Client) baseValues(orderID, transact string) url.Values {
	values := url.Values{}
	values.Set("merchant", c.cfg.Merchant)
	values.Set("orderid", orderID)
	values.Set("transact", transact)
	values.Set("textreply", "yes")
	return values
}

func (c *Client) expectAccepted(ctx context.Context, operation, path string, values url.Values, basicAuth bool) error {
	reply, err := c.postForm(ctx, path, values, basicAuth)
	if err != nil {
		return err
	}
	if result := reply.Get("result"); result != "0" {
		return &RejectedError{Operation: operation, Result: result}
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, values url.Values, basicAuth bool) (url.Values, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if basicAuth {
		req.SetBasicAuth(c.cfg.APIUsername, c.cfg.APIPassword)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &RequestError{Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return url.ParseQuery(strings.TrimSpace(string(body)))
}
