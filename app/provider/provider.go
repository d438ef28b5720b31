package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/webhook"
)

var (
	ErrConfiguration      = errors.New("provider configuration invalid")
	ErrCallbackRejected   = errors.New("callback rejected")
	ErrTransactionMissing = errors.New("order has no gateway transaction")
)

// PaymentGatewayProvider is one gateway variant. Implementations return
// errors; containing them is the caller's job.
type PaymentGatewayProvider interface {
	Alias() string
	GenerateForm(ctx context.Context, order *host.Order, urls host.CallbackURLs) (host.FormResult, error)
	ProcessCallback(ctx context.Context, order *host.Order, delivery *webhook.Delivery) (host.CallbackResult, error)
	FetchStatus(ctx context.Context, order *host.Order) (host.APIResult, error)
	Cancel(ctx context.Context, order *host.Order) (host.APIResult, error)
	Capture(ctx context.Context, order *host.Order) (host.APIResult, error)
	Refund(ctx context.Context, order *host.Order) (host.APIResult, error)
}

func configError(setting string) error {
	return fmt.Errorf("%w: %s is required", ErrConfiguration, setting)
}

func rejected(reason string) error {
	return fmt.Errorf("%w: %s", ErrCallbackRejected, reason)
}
