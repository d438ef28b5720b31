package types

import (
	"errors"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-dibs/app/host"
)

type HealthResponse struct {
	Status    string   `json:"status"`
	Providers []string `json:"providers"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OrderRequest struct {
	OrderNumber string `param:"order"`
}

func NewOrderRequestFromContext(ctx echo.Context) (*OrderRequest, error) {
	var req OrderRequest
	if err := (&echo.DefaultBinder{}).BindPathParams(ctx, &req); err != nil {
		return nil, err
	}
	req.OrderNumber = strings.TrimSpace(req.OrderNumber)
	return &req, nil
}

func (r *OrderRequest) Validate() error {
	if r.OrderNumber == "" {
		return errors.New("order is required")
	}
	return nil
}

type GenerateFormRequest struct {
	OrderNumber string `param:"order" json:"-"`
	ContinueURL string `json:"continue_url"`
	CancelURL   string `json:"cancel_url"`
	CallbackURL string `json:"callback_url"`
}

func NewGenerateFormRequestFromContext(ctx echo.Context) (*GenerateFormRequest, error) {
	var req GenerateFormRequest
	if err := ctx.Bind(&req); err != nil {
		return nil, err
	}
	req.OrderNumber = strings.TrimSpace(req.OrderNumber)
	req.ContinueURL = strings.TrimSpace(req.ContinueURL)
	req.CancelURL = strings.TrimSpace(req.CancelURL)
	req.CallbackURL = strings.TrimSpace(req.CallbackURL)
	return &req, nil
}

func (r *GenerateFormRequest) Validate() error {
	if r.OrderNumber == "" {
		return errors.New("order is required")
	}
	if r.ContinueURL == "" {
		return errors.New("continue_url is required")
	}
	fields := []struct{ name, value string }{
		{"continue_url", r.ContinueURL},
		{"cancel_url", r.CancelURL},
		{"callback_url", r.CallbackURL},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if u, err := url.Parse(f.value); err != nil || !u.IsAbs() {
			return errors.New(f.name + " must be an absolute url")
		}
	}
	return nil
}

func (r *GenerateFormRequest) URLs() host.CallbackURLs {
	return host.CallbackURLs{Continue: r.ContinueURL, Cancel: r.CancelURL, Callback: r.CallbackURL}
}

type CallbacksRequest struct {
	OrderNumber string `param:"order"`
	Limit       int32  `query:"limit"`
}

func NewCallbacksRequestFromContext(ctx echo.Context) (*CallbacksRequest, error) {
	var req CallbacksRequest
	if err := ctx.Bind(&req); err != nil {
		return nil, err
	}
	req.OrderNumber = strings.TrimSpace(req.OrderNumber)
	return &req, nil
}

func (r *CallbacksRequest) Validate() error {
	if r.OrderNumber == "" {
		return errors.New("order is required")
	}
	if r.Limit < 0 || r.Limit > 500 {
		return errors.New("limit must be between 0 and 500")
	}
	return nil
}

type OrderResponse struct {
	Order *host.Order `json:"order"`
}

type FormResponse struct {
	Order *host.Order      `json:"order"`
	Form  host.PaymentForm `json:"form"`
}

type OperationResponse struct {
	Order   *host.Order `json:"order"`
	Changed bool        `json:"changed"`
}

type CallbackRecord struct {
	ID            uint64 `json:"id"`
	Provider      string `json:"provider"`
	RequestID     string `json:"request_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status,omitempty"`
	Error         string `json:"error,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type CallbacksResponse struct {
	Callbacks []CallbackRecord `json:"callbacks"`
}
