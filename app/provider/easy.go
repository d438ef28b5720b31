package provider

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dibs/app/easy"
	"github.com/vibast-solutions/ms-go-dibs/app/factory"
	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/money"
	"github.com/vibast-solutions/ms-go-dibs/app/projector"
	"github.com/vibast-solutions/ms-go-dibs/app/status"
	"github.com/vibast-solutions/ms-go-dibs/app/webhook"
)

const (
	EasyAlias = "dibs-easy"

	MetaPaymentID    = "dibsEasyPaymentId"
	MetaWebhookToken = "dibsEasyWebhookToken"
	MetaChargeID     = "dibsEasyChargeId"
	MetaRefundID     = "dibsEasyRefundId"
)

type EasySettings struct {
	TestMode       bool
	TestSecretKey  string
	LiveSecretKey  string
	TermsURL       string
	Language       string
	PaymentMethods []string
	AutoCapture    bool
	BaseURL        string
	HTTPTimeout    time.Duration
}

type EasyProvider struct {
	settings  EasySettings
	client    *easy.Client
	secretKey string
	projector *projector.Projector
	newToken  func() (string, error)
	logger    logrus.FieldLogger
}

func NewEasyProvider(settings EasySettings) *EasyProvider {
	clientCfg := easy.ConfigFor(settings.TestMode, settings.TestSecretKey, settings.LiveSecretKey)
	if strings.TrimSpace(settings.BaseURL) != "" {
		clientCfg.BaseURL = settings.BaseURL
	}
	clientCfg.HTTPTimeout = settings.HTTPTimeout

	return &EasyProvider{
		settings:  settings,
		client:    easy.NewClient(clientCfg),
		secretKey: clientCfg.SecretKey,
		projector: projector.New(),
		newToken:  webhook.NewToken,
		logger:    factory.NewModuleLogger("dibs-easy-provider"),
	}
}

func (p *EasyProvider) Alias() string {
	return EasyAlias
}

// GenerateForm creates the payment at the gateway and returns a GET form to
// its hosted payment page. Whatever was obtained before a failure is
// returned with the error.
func (p *EasyProvider) GenerateForm(ctx context.Context, order *host.Order, urls host.CallbackURLs) (host.FormResult, error) {
	result := host.FormResult{Form: host.PaymentForm{Method: http.MethodGet}, MetaData: map[string]string{}}
	if err := p.validate(); err != nil {
		return result, err
	}

	cur, err := money.Lookup(order.Currency)
	if err != nil {
		return result, err
	}
	projection, err := p.projector.Project(order, cur)
	if err != nil {
		return result, err
	}
	callbackURL, err := webhookURL(urls.Callback)
	if err != nil {
		return result, err
	}
	token, err := p.newToken()
	if err != nil {
		return result, err
	}

	req := &easy.PaymentRequest{
		Order: projection.Order(cur.Code, order.OrderNumber),
		Checkout: easy.Checkout{
			Charge:                      p.settings.AutoCapture,
			IntegrationType:             easy.IntegrationHostedPaymentPage,
			ReturnURL:                   urls.Continue,
			CancelURL:                   urls.Cancel,
			TermsURL:                    p.settings.TermsURL,
			MerchantHandlesConsumerData: true,
		},
		Notifications: &easy.Notifications{},
	}
	if order.Customer.Reference != "" || order.Customer.Email != "" {
		req.Checkout.Consumer = &easy.Consumer{Reference: order.Customer.Reference, Email: order.Customer.Email}
	}
	for _, name := range webhook.HandledEvents {
		req.Notifications.Webhooks = append(req.Notifications.Webhooks, easy.Webhook{
			EventName:     name,
			URL:           callbackURL,
			Authorization: token,
		})
	}
	for _, method := range p.settings.PaymentMethods {
		if method = strings.TrimSpace(method); method != "" {
			req.PaymentMethods = append(req.PaymentMethods, easy.PaymentMethod{Name: method})
		}
	}

	created, err := p.client.CreatePayment(ctx, req)
	if err != nil {
		return result, err
	}
	result.MetaData[MetaPaymentID] = created.PaymentID
	result.MetaData[MetaWebhookToken] = token

	checkoutURL := strings.TrimSpace(created.HostedPaymentPageURL)
	if checkoutURL == "" {
		payment, err := p.client.GetPayment(ctx, created.PaymentID)
		if err != nil {
			return result, err
		}
		checkoutURL = strings.TrimSpace(payment.Checkout.URL)
	}
	action, err := withLanguage(checkoutURL, p.language(order))
	if err != nil {
		return result, err
	}
	result.Form.Action = action

	return result, nil
}

func (p *EasyProvider) ProcessCallback(ctx context.Context, order *host.Order, delivery *webhook.Delivery) (host.CallbackResult, error) {
	if err := p.validate(); err != nil {
		return host.RejectedCallback(), err
	}

	event, err := delivery.AuthenticatedEvent(order.Property(MetaWebhookToken))
	if err != nil {
		return host.RejectedCallback(), rejected(err.Error())
	}

	paymentID := order.Property(MetaPaymentID)
	metaData := map[string]string{}
	if event != nil {
		if !webhook.Handled(event.Name) {
			p.logger.WithField("event", event.Name).Debug("Ignoring unhandled webhook event")
			return host.EmptyCallback(), nil
		}
		if id := event.PaymentID(); id != "" {
			if paymentID != "" && id != paymentID {
				return host.RejectedCallback(), rejected("webhook payment id does not match order")
			}
			paymentID = id
		}
		switch event.Name {
		case webhook.EventChargeCreated:
			if id := event.ChargeID(); id != "" {
				metaData[MetaChargeID] = id
			}
		case webhook.EventRefundCompleted:
			if id := event.RefundID(); id != "" {
				metaData[MetaRefundID] = id
			}
		}
	}
	if paymentID == "" {
		return host.RejectedCallback(), rejected("no payment id for order")
	}

	payment, err := p.client.GetPayment(ctx, paymentID)
	if err != nil {
		return host.EmptyCallback(), err
	}

	metaData[MetaPaymentID] = paymentID
	if _, ok := metaData[MetaChargeID]; !ok && len(payment.Charges) > 0 {
		metaData[MetaChargeID] = payment.Charges[len(payment.Charges)-1].ChargeID
	}

	return host.ProcessedCallback(p.transactionInfo(order, paymentID, payment), metaData), nil
}

func (p *EasyProvider) FetchStatus(ctx context.Context, order *host.Order) (host.APIResult, error) {
	paymentID, err := p.paymentID(order)
	if err != nil {
		return host.APIResult{}, err
	}

	payment, err := p.client.GetPayment(ctx, paymentID)
	if err != nil {
		return host.APIResult{}, err
	}
	return apiResult(paymentID, status.Derive(payment.Summary.Remote())), nil
}

func (p *EasyProvider) Cancel(ctx context.Context, order *host.Order) (host.APIResult, error) {
	paymentID, err := p.paymentID(order)
	if err != nil {
		return host.APIResult{}, err
	}
	amount, err := p.authorizedMinor(order)
	if err != nil {
		return host.APIResult{}, err
	}

	if err := p.client.CancelPayment(ctx, paymentID, amount); err != nil {
		return host.APIResult{}, err
	}
	return p.refreshed(ctx, paymentID, status.Cancelled, nil), nil
}

func (p *EasyProvider) Capture(ctx context.Context, order *host.Order) (host.APIResult, error) {
	paymentID, err := p.paymentID(order)
	if err != nil {
		return host.APIResult{}, err
	}
	amount, err := p.authorizedMinor(order)
	if err != nil {
		return host.APIResult{}, err
	}

	chargeID, err := p.client.ChargePayment(ctx, paymentID, amount)
	if err != nil {
		return host.APIResult{}, err
	}

	var metaData map[string]string
	if chargeID != "" {
		metaData = map[string]string{MetaChargeID: chargeID}
	}
	return p.refreshed(ctx, paymentID, status.Captured, metaData), nil
}

func (p *EasyProvider) Refund(ctx context.Context, order *host.Order) (host.APIResult, error) {
	paymentID, err := p.paymentID(order)
	if err != nil {
		return host.APIResult{}, err
	}
	amount, err := p.authorizedMinor(order)
	if err != nil {
		return host.APIResult{}, err
	}

	chargeID := order.Property(MetaChargeID)
	if chargeID == "" {
		payment, err := p.client.GetPayment(ctx, paymentID)
		if err != nil {
			return host.APIResult{}, err
		}
		if len(payment.Charges) == 0 {
			return host.APIResult{}, errors.New("payment has no charge to refund")
		}
		chargeID = payment.Charges[len(payment.Charges)-1].ChargeID
	}

	refundID, err := p.client.RefundPayment(ctx, chargeID, amount)
	if err != nil {
		return host.APIResult{}, err
	}

	metaData := map[string]string{MetaChargeID: chargeID}
	if refundID != "" {
		metaData[MetaRefundID] = refundID
	}
	return p.refreshed(ctx, paymentID, status.Refunded, metaData), nil
}

// refreshed re-derives the status after an accepted mutation. When the
// re-fetch fails the mutation's target status is reported.
func (p *EasyProvider) refreshed(ctx context.Context, paymentID string, target status.PaymentStatus, metaData map[string]string) host.APIResult {
	paymentStatus := target
	payment, err := p.client.GetPayment(ctx, paymentID)
	if err != nil {
		p.logger.WithError(err).WithField("payment_id", paymentID).Warn("Payment re-fetch failed after accepted operation")
	} else {
		paymentStatus = status.Derive(payment.Summary.Remote())
	}

	result := apiResult(paymentID, paymentStatus)
	result.MetaData = metaData
	return result
}

func (p *EasyProvider) transactionInfo(order *host.Order, paymentID string, payment *easy.Payment) *host.TransactionInfo {
	info := &host.TransactionInfo{
		TransactionID: paymentID,
		PaymentStatus: status.Derive(payment.Summary.Remote()),
	}

	code := order.Currency
	if code == "" {
		code = payment.OrderDetails.Currency
	}
	cur, err := money.Lookup(code)
	if err != nil {
		info.AmountAuthorized = order.Transaction.AmountAuthorized
		return info
	}

	amount := payment.Summary.ReservedAmount
	if amount == 0 {
		amount = payment.OrderDetails.Amount
	}
	info.AmountAuthorized = money.FromMinorUnits(amount, cur)
	return info
}

func (p *EasyProvider) paymentID(order *host.Order) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	if id := order.Property(MetaPaymentID); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(order.Transaction.TransactionID); id != "" {
		return id, nil
	}
	return "", ErrTransactionMissing
}

func (p *EasyProvider) authorizedMinor(order *host.Order) (int64, error) {
	cur, err := money.Lookup(order.Currency)
	if err != nil {
		return 0, err
	}
	amount := order.Transaction.AmountAuthorized
	if amount.IsZero() {
		amount = order.TransactionAmount
	}
	return money.ToNonNegativeMinorUnits(amount, cur)
}

func (p *EasyProvider) validate() error {
	if p.secretKey == "" {
		if p.settings.TestMode {
			return configError("test secret key")
		}
		return configError("live secret key")
	}
	if strings.TrimSpace(p.settings.TermsURL) == "" {
		return configError("terms url")
	}
	return nil
}

func (p *EasyProvider) language(order *host.Order) string {
	if lang := strings.TrimSpace(order.Language); lang != "" {
		return lang
	}
	return strings.TrimSpace(p.settings.Language)
}

// webhookURL forces https; the gateway refuses plain-http webhook targets.
func webhookURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") {
		raw = "https://" + strings.TrimPrefix(raw, "http://")
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return "", configError("https callback url")
	}
	return parsed.String(), nil
}

func withLanguage(checkoutURL, language string) (string, error) {
	if checkoutURL == "" {
		return "", errors.New("checkout url missing")
	}
	if language == "" {
		return checkoutURL, nil
	}
	parsed, err := url.Parse(checkoutURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("language", language)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
