package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/legacy"
	"github.com/vibast-solutions/ms-go-dibs/app/money"
	"github.com/vibast-solutions/ms-go-dibs/app/signature"
	"github.com/vibast-solutions/ms-go-dibs/app/status"
	"github.com/vibast-solutions/ms-go-dibs/app/webhook"
)

const D2Alias = "dibs-d2"

var d2Languages = map[string]bool{
	"da": true, "en": true, "de": true, "es": true, "fi": true, "fo": true, "fr": true,
	"it": true, "nl": true, "no": true, "pl": true, "sv": true, "kl": true,
}

type D2Settings struct {
	MerchantID  string
	MD5Key1     string
	MD5Key2     string
	APIUsername string
	APIPassword string
	Lang        string
	PayTypes    []string
	CalcFee     bool
	Capture     bool
	TestMode    bool
	BaseURL     string
	HTTPTimeout time.Duration
}

type D2Provider struct {
	settings D2Settings
	client   *legacy.Client
}

func NewD2Provider(settings D2Settings) *D2Provider {
	settings.MerchantID = strings.TrimSpace(settings.MerchantID)
	settings.Lang = strings.ToLower(strings.TrimSpace(settings.Lang))

	return &D2Provider{
		settings: settings,
		client: legacy.NewClient(legacy.Config{
			BaseURL:     settings.BaseURL,
			Merchant:    settings.MerchantID,
			MD5Key1:     settings.MD5Key1,
			MD5Key2:     settings.MD5Key2,
			APIUsername: settings.APIUsername,
			APIPassword: settings.APIPassword,
			HTTPTimeout: settings.HTTPTimeout,
		}),
	}
}

func (p *D2Provider) Alias() string {
	return D2Alias
}

func (p *D2Provider) GenerateForm(_ context.Context, order *host.Order, urls host.CallbackURLs) (host.FormResult, error) {
	if err := p.validate(); err != nil {
		return host.FormResult{}, err
	}
	if strings.TrimSpace(order.OrderNumber) == "" {
		return host.FormResult{}, fmt.Errorf("%w: order number", signature.ErrInputMissing)
	}

	cur, err := p.currency(order)
	if err != nil {
		return host.FormResult{}, err
	}
	amount, err := money.ToNonNegativeMinorUnits(order.TransactionAmount, cur)
	if err != nil {
		return host.FormResult{}, err
	}

	form, err := legacy.BuildForm(legacy.FormInput{
		Merchant:        p.settings.MerchantID,
		OrderID:         order.OrderNumber,
		AmountMinor:     amount,
		CurrencyNumeric: cur.Numeric,
		AcceptURL:       urls.Continue,
		CancelURL:       urls.Cancel,
		CallbackURL:     urls.Callback,
		Lang:            p.language(order),
		PayTypes:        p.settings.PayTypes,
		CaptureNow:      p.settings.Capture,
		CalcFee:         p.settings.CalcFee,
		Test:            p.settings.TestMode,
	}, p.settings.MD5Key1, p.settings.MD5Key2)
	if err != nil {
		return host.FormResult{}, err
	}

	return host.FormResult{Form: *form}, nil
}

func (p *D2Provider) ProcessCallback(_ context.Context, order *host.Order, delivery *webhook.Delivery) (host.CallbackResult, error) {
	if err := p.validate(); err != nil {
		return host.RejectedCallback(), err
	}

	form, err := delivery.Form()
	if err != nil {
		return host.RejectedCallback(), rejected("callback form could not be parsed")
	}

	authkey := strings.TrimSpace(form.Get("authkey"))
	transact := strings.TrimSpace(form.Get("transact"))
	currencyCode := strings.TrimSpace(form.Get("currency"))
	fee := strings.TrimSpace(form.Get("fee"))
	if fee == "" {
		fee = "0"
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(form.Get("amount")), 10, 64)
	if err != nil {
		return host.RejectedCallback(), rejected("callback amount is invalid")
	}
	feeAmount, err := strconv.ParseInt(fee, 10, 64)
	if err != nil {
		return host.RejectedCallback(), rejected("callback fee is invalid")
	}
	total := amount + feeAmount

	cur, err := p.currency(order)
	if err != nil {
		return host.RejectedCallback(), err
	}
	if currencyCode != cur.Numeric {
		return host.RejectedCallback(), rejected("callback currency does not match order")
	}

	fields := signature.CallbackFields(transact, strconv.FormatInt(total, 10), currencyCode)
	if !signature.Verify(fields, authkey, p.settings.MD5Key1, p.settings.MD5Key2) {
		return host.RejectedCallback(), rejected("md5 check failed")
	}

	paymentStatus := status.Authorized
	if form.Get("capturenow") == "1" {
		paymentStatus = status.Captured
	}

	return host.ProcessedCallback(&host.TransactionInfo{
		TransactionID:    transact,
		AmountAuthorized: money.FromMinorUnits(total, cur),
		PaymentStatus:    paymentStatus,
	}, nil), nil
}

func (p *D2Provider) FetchStatus(ctx context.Context, order *host.Order) (host.APIResult, error) {
	transact, err := p.apiPrecheck(order)
	if err != nil {
		return host.APIResult{}, err
	}

	code, err := p.client.PayInfo(ctx, transact)
	if err != nil {
		return host.APIResult{}, err
	}
	paymentStatus, _ := status.FromLegacyCode(code)

	return apiResult(transact, paymentStatus), nil
}

func (p *D2Provider) Cancel(ctx context.Context, order *host.Order) (host.APIResult, error) {
	transact, err := p.apiPrecheck(order)
	if err != nil {
		return host.APIResult{}, err
	}
	if err := p.client.Cancel(ctx, order.OrderNumber, transact); err != nil {
		return host.APIResult{}, err
	}
	return apiResult(transact, status.Cancelled), nil
}

func (p *D2Provider) Capture(ctx context.Context, order *host.Order) (host.APIResult, error) {
	transact, err := p.transaction(order)
	if err != nil {
		return host.APIResult{}, err
	}
	cur, err := p.currency(order)
	if err != nil {
		return host.APIResult{}, err
	}
	amount, err := money.ToNonNegativeMinorUnits(order.Transaction.AmountAuthorized, cur)
	if err != nil {
		return host.APIResult{}, err
	}

	if err := p.client.Capture(ctx, order.OrderNumber, transact, amount); err != nil {
		return host.APIResult{}, err
	}
	return apiResult(transact, status.Captured), nil
}

func (p *D2Provider) Refund(ctx context.Context, order *host.Order) (host.APIResult, error) {
	transact, err := p.apiPrecheck(order)
	if err != nil {
		return host.APIResult{}, err
	}
	cur, err := p.currency(order)
	if err != nil {
		return host.APIResult{}, err
	}
	amount, err := money.ToNonNegativeMinorUnits(order.Transaction.AmountAuthorized, cur)
	if err != nil {
		return host.APIResult{}, err
	}

	if err := p.client.Refund(ctx, order.OrderNumber, transact, amount, cur.Numeric); err != nil {
		return host.APIResult{}, err
	}
	return apiResult(transact, status.Refunded), nil
}

func (p *D2Provider) validate() error {
	switch {
	case p.settings.MerchantID == "":
		return configError("merchant id")
	case strings.TrimSpace(p.settings.MD5Key1) == "":
		return configError("md5 key 1")
	case strings.TrimSpace(p.settings.MD5Key2) == "":
		return configError("md5 key 2")
	}
	return nil
}

// apiPrecheck covers endpoints behind the merchant admin login.
func (p *D2Provider) apiPrecheck(order *host.Order) (string, error) {
	if strings.TrimSpace(p.settings.APIUsername) == "" || strings.TrimSpace(p.settings.APIPassword) == "" {
		return "", configError("api credentials")
	}
	return p.transaction(order)
}

func (p *D2Provider) transaction(order *host.Order) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	transact := strings.TrimSpace(order.Transaction.TransactionID)
	if transact == "" {
		return "", ErrTransactionMissing
	}
	return transact, nil
}

func (p *D2Provider) currency(order *host.Order) (money.Currency, error) {
	cur, err := money.Lookup(order.Currency)
	if err != nil {
		return money.Currency{}, err
	}
	if cur.Numeric == "" {
		return money.Currency{}, money.ErrUnsupportedCurrency
	}
	return cur, nil
}

func (p *D2Provider) language(order *host.Order) string {
	if lang := strings.ToLower(strings.TrimSpace(order.Language)); d2Languages[lang] {
		return lang
	}
	if d2Languages[p.settings.Lang] {
		return p.settings.Lang
	}
	return "en"
}

func apiResult(transactionID string, paymentStatus status.PaymentStatus) host.APIResult {
	return host.APIResult{
		Transaction: &host.TransactionUpdate{
			TransactionID: transactionID,
			PaymentStatus: paymentStatus,
		},
	}
}
