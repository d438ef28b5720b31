// Package host holds the read model of an order as presented by the commerce
// host, and the results handed back to it.
package host

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-dibs/app/status"
)

type Price struct {
	WithoutTax decimal.Decimal `json:"without_tax"`
	Tax        decimal.Decimal `json:"tax"`
	WithTax    decimal.Decimal `json:"with_tax"`
}

func (p Price) IsZero() bool {
	return p.WithoutTax.IsZero() && p.Tax.IsZero() && p.WithTax.IsZero()
}

type OrderLine struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice Price           `json:"unit_price"`
	// TaxRate is a fraction, 0.25 for 25%.
	TaxRate    decimal.Decimal `json:"tax_rate"`
	TotalPrice Price           `json:"total_price"`
}

type AdjustmentKind string

const (
	PriceAdjustment    AdjustmentKind = "price"
	DiscountAdjustment AdjustmentKind = "discount"
	GiftCardAdjustment AdjustmentKind = "giftcard"
)

var ErrUnknownAdjustmentKind = errors.New("unknown adjustment kind")

func (k *AdjustmentKind) UnmarshalText(text []byte) error {
	switch AdjustmentKind(strings.ToLower(strings.TrimSpace(string(text)))) {
	case PriceAdjustment:
		*k = PriceAdjustment
	case DiscountAdjustment:
		*k = DiscountAdjustment
	case GiftCardAdjustment, "gift_card":
		*k = GiftCardAdjustment
	default:
		return ErrUnknownAdjustmentKind
	}
	return nil
}

type Adjustment struct {
	Kind      AdjustmentKind `json:"kind"`
	Reference string         `json:"reference"`
	Name      string         `json:"name"`
	Price     Price          `json:"price"`
}

type Shipping struct {
	Alias string `json:"alias"`
	Name  string `json:"name"`
	Price Price  `json:"price"`
}

type Customer struct {
	Reference string `json:"reference"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"order_number"`
	// PaymentProvider selects the gateway variant; empty means the configured default.
	PaymentProvider string      `json:"payment_provider"`
	Currency        string      `json:"currency"`
	Language        string      `json:"language"`
	Lines           []OrderLine `json:"lines"`
	Shipping        *Shipping   `json:"shipping,omitempty"`

	SubtotalAdjustments    []Adjustment `json:"subtotal_adjustments"`
	TotalAdjustments       []Adjustment `json:"total_adjustments"`
	TransactionAdjustments []Adjustment `json:"transaction_adjustments"`

	TotalPrice Price `json:"total_price"`
	// TransactionAmount is what the payer is charged, after gift cards.
	TransactionAmount decimal.Decimal `json:"transaction_amount"`

	Customer    Customer          `json:"customer"`
	Properties  map[string]string `json:"properties"`
	Transaction TransactionInfo   `json:"transaction"`
}

func (o *Order) Property(key string) string {
	if o == nil || o.Properties == nil {
		return ""
	}
	return strings.TrimSpace(o.Properties[key])
}

type TransactionInfo struct {
	TransactionID    string               `json:"transaction_id"`
	AmountAuthorized decimal.Decimal      `json:"amount_authorized"`
	PaymentStatus    status.PaymentStatus `json:"payment_status"`
}

// Clone copies the order deeply enough that mutating the copy's transaction
// and properties leaves the original untouched.
func (o *Order) Clone() *Order {
	clone := *o
	clone.Properties = make(map[string]string, len(o.Properties))
	for k, v := range o.Properties {
		clone.Properties[k] = v
	}
	return &clone
}

func (o *Order) MergeMetaData(metaData map[string]string) {
	if len(metaData) == 0 {
		return
	}
	if o.Properties == nil {
		o.Properties = make(map[string]string, len(metaData))
	}
	for k, v := range metaData {
		if v != "" {
			o.Properties[k] = v
		}
	}
}

// ApplyTransaction records a callback outcome. The status only moves
// forward; it reports whether it moved.
func (o *Order) ApplyTransaction(info *TransactionInfo) bool {
	if info == nil {
		return false
	}
	if info.TransactionID != "" {
		o.Transaction.TransactionID = info.TransactionID
	}
	if !info.AmountAuthorized.IsZero() {
		o.Transaction.AmountAuthorized = info.AmountAuthorized
	}
	next, changed := status.Advance(o.Transaction.PaymentStatus, info.PaymentStatus)
	o.Transaction.PaymentStatus = next
	return changed
}

func (o *Order) ApplyUpdate(update *TransactionUpdate) bool {
	if update == nil {
		return false
	}
	if update.TransactionID != "" {
		o.Transaction.TransactionID = update.TransactionID
	}
	next, changed := status.Advance(o.Transaction.PaymentStatus, update.PaymentStatus)
	o.Transaction.PaymentStatus = next
	return changed
}
