// Package legacy talks to the DIBS D2 gateway: the signed redirect form and
// the merchant admin API.
package legacy

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/signature"
)

const StartURL = "https://payment.architrade.com/paymentweb/start.action"

type FormInput struct {
	Merchant        string
	OrderID         string
	AmountMinor     int64
	CurrencyNumeric string
	AcceptURL       string
	CancelURL       string
	CallbackURL     string
	Lang            string
	PayTypes        []string
	CaptureNow      bool
	CalcFee         bool
	Test            bool
}

// BuildForm renders the redirect form. Optional inputs are omitted when unset.
func BuildForm(in FormInput, key1, key2 string) (*host.PaymentForm, error) {
	amount := strconv.FormatInt(in.AmountMinor, 10)
	md5key, err := signature.Sign(signature.CreateFields(in.Merchant, in.OrderID, in.CurrencyNumeric, amount), key1, key2)
	if err != nil {
		return nil, err
	}

	form := &host.PaymentForm{Action: StartURL, Method: http.MethodPost}
	add := func(name, value string) {
		form.Inputs = append(form.Inputs, host.FormInput{Name: name, Value: value})
	}

	add("orderid", in.OrderID)
	add("merchant", in.Merchant)
	add("amount", amount)
	add("currency", in.CurrencyNumeric)
	add("accepturl", in.AcceptURL)
	add("cancelurl", in.CancelURL)
	add("callbackurl", in.CallbackURL)
	add("lang", in.Lang)

	payTypes := make([]string, 0, len(in.PayTypes))
	for _, p := range in.PayTypes {
		if p = strings.TrimSpace(p); p != "" {
			payTypes = append(payTypes, p)
		}
	}
	if len(payTypes) > 0 {
		add("paytype", strings.Join(payTypes, ","))
	}
	if in.CaptureNow {
		add("capturenow", "yes")
	}
	if in.CalcFee {
		add("calcfee", "yes")
	}
	if in.Test {
		add("test", "yes")
	}
	add("md5key", md5key)

	return form, nil
}
