// Package webhook parses and authenticates gateway webhook deliveries.
package webhook

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

const (
	EventCheckoutCompleted = "payment.checkout.completed"
	EventChargeCreated     = "payment.charge.created"
	EventRefundCompleted   = "payment.refund.completed"
	EventCancelCreated     = "payment.cancel.created"
)

// HandledEvents are registered for every payment and drive state changes.
var HandledEvents = []string{
	EventCheckoutCompleted,
	EventChargeCreated,
	EventRefundCompleted,
	EventCancelCreated,
}

var (
	ErrParseFailed  = errors.New("webhook payload could not be parsed")
	ErrUnauthorized = errors.New("webhook authorization failed")
)

type Event struct {
	ID         string          `json:"id"`
	MerchantID json.RawMessage `json:"merchantId"`
	Timestamp  string          `json:"timestamp"`
	Name       string          `json:"event"`
	Data       json.RawMessage `json:"data"`
}

func (e *Event) PaymentID() string {
	return e.dataString("paymentId")
}

func (e *Event) ChargeID() string {
	return e.dataString("chargeId")
}

func (e *Event) RefundID() string {
	return e.dataString("refundId")
}

func (e *Event) dataString(key string) string {
	if e == nil || len(e.Data) == 0 {
		return ""
	}
	var data map[string]interface{}
	if json.Unmarshal(e.Data, &data) != nil {
		return ""
	}
	if s, ok := data[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func Handled(name string) bool {
	for _, h := range HandledEvents {
		if h == name {
			return true
		}
	}
	return false
}

// Parse decodes a delivery body. An empty body is a bare notification and
// yields no event and no error.
func Parse(body []byte) (*Event, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, ErrParseFailed
	}
	event.Name = strings.TrimSpace(event.Name)
	if event.Name == "" {
		return nil, ErrParseFailed
	}
	return &event, nil
}

// Authenticate compares the received authorization header with the token
// registered for the payment. A missing header never authenticates.
func Authenticate(header string, present bool, expected string) bool {
	if !present || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(expected)) == 1
}

// NewToken returns a fresh 128-bit authorization token, hex encoded.
func NewToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
