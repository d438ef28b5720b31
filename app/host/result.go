package host

import (
	"net/http"

	"github.com/vibast-solutions/ms-go-dibs/app/status"
)

type CallbackURLs struct {
	Continue string
	Cancel   string
	Callback string
}

type FormInput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PaymentForm is the redirect the payer is sent through. An empty Action is a
// failed form.
type PaymentForm struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Inputs []FormInput `json:"inputs"`
}

func (f PaymentForm) Value(name string) (string, bool) {
	for _, in := range f.Inputs {
		if in.Name == name {
			return in.Value, true
		}
	}
	return "", false
}

type FormResult struct {
	Form     PaymentForm       `json:"form"`
	MetaData map[string]string `json:"metadata,omitempty"`
}

type CallbackResult struct {
	TransactionInfo *TransactionInfo  `json:"transaction,omitempty"`
	MetaData        map[string]string `json:"metadata,omitempty"`
	HTTPStatus      int               `json:"-"`
}

func EmptyCallback() CallbackResult {
	return CallbackResult{HTTPStatus: http.StatusOK}
}

func ProcessedCallback(info *TransactionInfo, metaData map[string]string) CallbackResult {
	return CallbackResult{TransactionInfo: info, MetaData: metaData, HTTPStatus: http.StatusOK}
}

func RejectedCallback() CallbackResult {
	return CallbackResult{HTTPStatus: http.StatusBadRequest}
}

func (r CallbackResult) Rejected() bool {
	return r.HTTPStatus >= http.StatusBadRequest
}

type TransactionUpdate struct {
	TransactionID string               `json:"transaction_id,omitempty"`
	PaymentStatus status.PaymentStatus `json:"payment_status"`
}

// APIResult is the outcome of an outbound operation. A nil Transaction is the
// empty result: nothing changed.
type APIResult struct {
	Transaction *TransactionUpdate `json:"transaction,omitempty"`
	MetaData    map[string]string  `json:"metadata,omitempty"`
}

func (r APIResult) Empty() bool {
	return r.Transaction == nil
}
