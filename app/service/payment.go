package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dibs/app/factory"
	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/metrics"
	"github.com/vibast-solutions/ms-go-dibs/app/provider"
	"github.com/vibast-solutions/ms-go-dibs/app/status"
	"github.com/vibast-solutions/ms-go-dibs/app/webhook"
)

const (
	operationGenerateForm = "generate_form"
	operationCallback     = "process_callback"
	operationFetchStatus  = "fetch_status"
	operationCancel       = "cancel"
	operationCapture      = "capture"
	operationRefund       = "refund"

	outcomeOK       = "ok"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
	outcomeIgnored  = "ignored"
)

// PaymentService is what the commerce host talks to. It never returns
// errors: failures are logged and turn into empty or partial results.
type PaymentService struct {
	providers       *provider.Registry
	defaultProvider string
	journal         callbackJournal
	metrics         *metrics.Collectors
	logger          logrus.FieldLogger
	now             func() time.Time
}

func NewPaymentService(
	providers *provider.Registry,
	defaultProvider string,
	journal callbackJournal,
	collectors *metrics.Collectors,
) *PaymentService {
	if journal == nil {
		journal = nopJournal{}
	}
	return &PaymentService{
		providers:       providers,
		defaultProvider: strings.ToLower(strings.TrimSpace(defaultProvider)),
		journal:         journal,
		metrics:         collectors,
		logger:          factory.NewModuleLogger("payment-service"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *PaymentService) GenerateForm(ctx context.Context, order *host.Order, urls host.CallbackURLs) host.FormResult {
	p, logger, err := s.resolve(order, operationGenerateForm)
	if err != nil {
		return host.FormResult{}
	}

	started := s.now()
	result, err := p.GenerateForm(ctx, order, urls)
	if err != nil {
		logger.WithError(err).Error("Payment form generation failed")
		s.metrics.ObserveOperation(p.Alias(), operationGenerateForm, outcomeFailed, s.now().Sub(started))
		return result
	}
	s.metrics.ObserveOperation(p.Alias(), operationGenerateForm, outcomeOK, s.now().Sub(started))

	return result
}

// ProcessCallback handles one inbound gateway delivery for order. The
// returned TransactionInfo already carries the forward-only status.
func (s *PaymentService) ProcessCallback(ctx context.Context, order *host.Order, delivery *webhook.Delivery) host.CallbackResult {
	p, logger, err := s.resolve(order, operationCallback)
	if err != nil {
		return host.RejectedCallback()
	}

	started := s.now()
	result, err := p.ProcessCallback(ctx, order, delivery)
	outcome := outcomeOK
	switch {
	case err != nil && errors.Is(err, provider.ErrCallbackRejected):
		logger.WithError(err).Warn("Gateway callback rejected")
		outcome = outcomeRejected
	case err != nil:
		logger.WithError(err).Error("Gateway callback processing failed")
		outcome = outcomeFailed
	case result.TransactionInfo == nil:
		outcome = outcomeIgnored
	}
	if result.HTTPStatus == 0 {
		result.HTTPStatus = host.EmptyCallback().HTTPStatus
	}
	if result.Rejected() {
		outcome = outcomeRejected
	}

	if info := result.TransactionInfo; info != nil && !result.Rejected() {
		current := order.Transaction.PaymentStatus
		next, changed := status.Advance(current, info.PaymentStatus)
		if !changed && next != info.PaymentStatus {
			logger.WithFields(logrus.Fields{
				"current": current.String(),
				"derived": info.PaymentStatus.String(),
			}).Warn("Dropping backwards status transition")
		}
		guarded := *info
		guarded.PaymentStatus = next
		result.TransactionInfo = &guarded
	}

	s.metrics.ObserveOperation(p.Alias(), operationCallback, outcome, s.now().Sub(started))
	s.metrics.ObserveCallback(p.Alias(), outcome)
	s.record(ctx, p.Alias(), order, delivery, result, outcome, err)

	return result
}

func (s *PaymentService) FetchStatus(ctx context.Context, order *host.Order) host.APIResult {
	return s.call(ctx, order, operationFetchStatus, provider.PaymentGatewayProvider.FetchStatus)
}

func (s *PaymentService) Cancel(ctx context.Context, order *host.Order) host.APIResult {
	return s.call(ctx, order, operationCancel, provider.PaymentGatewayProvider.Cancel)
}

func (s *PaymentService) Capture(ctx context.Context, order *host.Order) host.APIResult {
	return s.call(ctx, order, operationCapture, provider.PaymentGatewayProvider.Capture)
}

func (s *PaymentService) Refund(ctx context.Context, order *host.Order) host.APIResult {
	return s.call(ctx, order, operationRefund, provider.PaymentGatewayProvider.Refund)
}

type apiOperation func(provider.PaymentGatewayProvider, context.Context, *host.Order) (host.APIResult, error)

func (s *PaymentService) call(ctx context.Context, order *host.Order, operation string, fn apiOperation) host.APIResult {
	p, logger, err := s.resolve(order, operation)
	if err != nil {
		return host.APIResult{}
	}

	started := s.now()
	result, err := fn(p, ctx, order)
	if err != nil {
		logger.WithError(err).Error("Gateway operation failed")
		s.metrics.ObserveOperation(p.Alias(), operation, outcomeFailed, s.now().Sub(started))
		return host.APIResult{}
	}
	s.metrics.ObserveOperation(p.Alias(), operation, outcomeOK, s.now().Sub(started))

	if update := result.Transaction; update != nil {
		current := order.Transaction.PaymentStatus
		if next, changed := status.Advance(current, update.PaymentStatus); !changed && next != update.PaymentStatus {
			logger.WithFields(logrus.Fields{
				"current": current.String(),
				"derived": update.PaymentStatus.String(),
			}).Warn("Dropping backwards status transition")
			guarded := *update
			guarded.PaymentStatus = next
			result.Transaction = &guarded
		}
	}

	return result
}

func (s *PaymentService) resolve(order *host.Order, operation string) (provider.PaymentGatewayProvider, logrus.FieldLogger, error) {
	logger := s.logger.WithField("operation", operation)
	if order == nil {
		logger.WithError(ErrOrderRequired).Error("Gateway operation skipped")
		return nil, logger, ErrOrderRequired
	}
	logger = logger.WithField("order", order.OrderNumber)

	alias := s.ProviderAlias(order)
	p, err := s.providers.Get(alias)
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrProviderUnsupported, alias)
		logger.WithError(err).Error("Gateway operation skipped")
		return nil, logger, err
	}

	return p, logger.WithField("provider", p.Alias()), nil
}

// ProviderAlias is the alias the order's operations are routed to.
func (s *PaymentService) ProviderAlias(order *host.Order) string {
	if order != nil {
		if alias := strings.ToLower(strings.TrimSpace(order.PaymentProvider)); alias != "" {
			return alias
		}
	}
	return s.defaultProvider
}

func (s *PaymentService) Providers() []string {
	return s.providers.Aliases()
}
