package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-dibs/app/entity"
	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/provider"
	"github.com/vibast-solutions/ms-go-dibs/app/repository"
	"github.com/vibast-solutions/ms-go-dibs/app/service"
	"github.com/vibast-solutions/ms-go-dibs/app/signature"
	"github.com/vibast-solutions/ms-go-dibs/app/status"
	"github.com/vibast-solutions/ms-go-dibs/app/types"
)

const (
	testKey1 = "key-one"
	testKey2 = "key-two"
)

type staticHistory struct {
	items []*entity.PaymentCallback
}

func (h *staticHistory) ListByOrder(_ context.Context, orderReference string, _ int32) ([]*entity.PaymentCallback, error) {
	out := make([]*entity.PaymentCallback, 0)
	for _, item := range h.items {
		if item.OrderReference == orderReference {
			out = append(out, item)
		}
	}
	return out, nil
}

func newD2Controller(t *testing.T, adminBaseURL string) (*PaymentController, *repository.OrderRepository) {
	t.Helper()

	d2 := provider.NewD2Provider(provider.D2Settings{
		MerchantID:  "90000",
		MD5Key1:     testKey1,
		MD5Key2:     testKey2,
		APIUsername: "admin",
		APIPassword: "secret",
		BaseURL:     adminBaseURL,
		HTTPTimeout: time.Second,
	})
	svc := service.NewPaymentService(provider.NewRegistry(d2), provider.D2Alias, nil, nil)
	orders := repository.NewOrderRepository(&host.Order{
		OrderNumber:       "1001",
		Currency:          "DKK",
		Language:          "da",
		TotalPrice:        decimal.RequireFromString("117.50"),
		TransactionAmount: decimal.RequireFromString("117.50"),
	})

	return NewPaymentController(svc, orders, "https://shop.example.com/"), orders
}

func callbackBody(t *testing.T, transact, amount, fee, capturenow string, key1, key2 string) string {
	t.Helper()

	total := amount
	if fee != "" {
		a, _ := decimal.NewFromString(amount)
		f, _ := decimal.NewFromString(fee)
		total = a.Add(f).String()
	}
	authkey, err := signature.Sign(signature.CallbackFields(transact, total, "208"), key1, key2)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	values := url.Values{}
	values.Set("transact", transact)
	values.Set("amount", amount)
	values.Set("currency", "208")
	values.Set("authkey", authkey)
	if fee != "" {
		values.Set("fee", fee)
	}
	if capturenow != "" {
		values.Set("capturenow", capturenow)
	}
	return values.Encode()
}

func TestHealth(t *testing.T) {
	c, _ := newD2Controller(t, "")
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := c.Health(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp types.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || len(resp.Providers) != 1 || resp.Providers[0] != provider.D2Alias {
		t.Fatalf("unexpected health response %+v", resp)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	c, _ := newD2Controller(t, "")
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/orders/404", nil), rec)
	ctx.SetParamNames("order")
	ctx.SetParamValues("404")

	if err := c.GetOrder(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGenerateFormBuildsSignedLegacyForm(t *testing.T) {
	c, _ := newD2Controller(t, "")
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders/1001/form", strings.NewReader(`{"continue_url":"https://shop.example.com/thanks","cancel_url":"https://shop.example.com/cart"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("order")
	ctx.SetParamValues("1001")

	if err := c.GenerateForm(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp types.FormResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if amount, _ := resp.Form.Value("amount"); amount != "11750" {
		t.Fatalf("expected amount 11750, got %q", amount)
	}
	if callback, _ := resp.Form.Value("callbackurl"); callback != "https://shop.example.com/webhooks/providers/dibs-d2/1001" {
		t.Fatalf("unexpected callback url %q", callback)
	}
	expected, _ := signature.Sign(signature.CreateFields("90000", "1001", "208", "11750"), testKey1, testKey2)
	if md5key, _ := resp.Form.Value("md5key"); md5key != expected {
		t.Fatalf("unexpected md5key %q", md5key)
	}
}

func TestGenerateFormValidation(t *testing.T) {
	c, _ := newD2Controller(t, "")
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders/1001/form", strings.NewReader(`{"continue_url":"/relative"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("order")
	ctx.SetParamValues("1001")

	if err := c.GenerateForm(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func postCallback(t *testing.T, c *PaymentController, providerAlias, order, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/providers/"+providerAlias+"/"+order, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("provider", "order")
	ctx.SetParamValues(providerAlias, order)

	if err := c.HandleProviderCallback(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec
}

func TestHandleProviderCallbackAppliesLegacyCallback(t *testing.T) {
	c, orders := newD2Controller(t, "")

	rec := postCallback(t, c, provider.D2Alias, "1001", callbackBody(t, "777", "11750", "250", "", testKey1, testKey2))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	order, err := orders.Find(context.Background(), "1001")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if order.Transaction.TransactionID != "777" || order.Transaction.PaymentStatus != status.Authorized {
		t.Fatalf("unexpected transaction %+v", order.Transaction)
	}
	if !order.Transaction.AmountAuthorized.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("expected amount plus fee, got %s", order.Transaction.AmountAuthorized)
	}
}

func TestHandleProviderCallbackRejectsBadDigest(t *testing.T) {
	c, orders := newD2Controller(t, "")

	rec := postCallback(t, c, provider.D2Alias, "1001", callbackBody(t, "777", "11750", "", "1", testKey1, "wrong"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "callback rejected") {
		t.Fatalf("expected generic body, got %s", rec.Body.String())
	}

	order, _ := orders.Find(context.Background(), "1001")
	if order.Transaction.PaymentStatus != status.Initialized {
		t.Fatalf("order must be untouched, got %s", order.Transaction.PaymentStatus)
	}
}

func TestHandleProviderCallbackRejectsProviderMismatch(t *testing.T) {
	c, _ := newD2Controller(t, "")

	rec := postCallback(t, c, "dibs-easy", "1001", callbackBody(t, "777", "11750", "", "", testKey1, testKey2))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCaptureAppliesUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/capture.cgi" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("result=0"))
	}))
	defer srv.Close()

	c, orders := newD2Controller(t, srv.URL)
	postCallback(t, c, provider.D2Alias, "1001", callbackBody(t, "777", "11750", "", "", testKey1, testKey2))

	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodPost, "/orders/1001/capture", nil), rec)
	ctx.SetParamNames("order")
	ctx.SetParamValues("1001")

	if err := c.Capture(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp types.OperationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Changed || resp.Order.Transaction.PaymentStatus != status.Captured {
		t.Fatalf("unexpected response %+v", resp)
	}

	order, _ := orders.Find(context.Background(), "1001")
	if order.Transaction.PaymentStatus != status.Captured {
		t.Fatalf("expected stored captured status, got %s", order.Transaction.PaymentStatus)
	}
}

func TestOperationWithoutTransactionFails(t *testing.T) {
	c, _ := newD2Controller(t, "")
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodPost, "/orders/1001/refund", nil), rec)
	ctx.SetParamNames("order")
	ctx.SetParamValues("1001")

	if err := c.Refund(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestListCallbacks(t *testing.T) {
	c, _ := newD2Controller(t, "")
	e := echo.New()

	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/orders/1001/callbacks", nil), rec)
	ctx.SetParamNames("order")
	ctx.SetParamValues("1001")
	if err := c.ListCallbacks(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without journal, got %d", rec.Code)
	}

	paymentStatus := "authorized"
	c.WithCallbackHistory(&staticHistory{items: []*entity.PaymentCallback{{
		ID:             1,
		Provider:       provider.D2Alias,
		OrderReference: "1001",
		RequestID:      "req-1",
		Status:         entity.CallbackStatusProcessed,
		PaymentStatus:  &paymentStatus,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}})

	rec = httptest.NewRecorder()
	ctx = e.NewContext(httptest.NewRequest(http.MethodGet, "/orders/1001/callbacks?limit=5", nil), rec)
	ctx.SetParamNames("order")
	ctx.SetParamValues("1001")
	if err := c.ListCallbacks(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp types.CallbacksResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Callbacks) != 1 || resp.Callbacks[0].Status != "processed" || resp.Callbacks[0].CreatedAt != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected callbacks %+v", resp.Callbacks)
	}
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/providers/dibs-d2/1001", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	var seen string
	handler := RequestID()(func(ctx echo.Context) error {
		seen = ctx.Request().Header.Get(echo.HeaderXRequestID)
		return nil
	})
	if err := handler(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == "" || rec.Header().Get(echo.HeaderXRequestID) != seen {
		t.Fatalf("expected generated request id, got %q / %q", seen, rec.Header().Get(echo.HeaderXRequestID))
	}
}
