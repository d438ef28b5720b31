package easy

import "github.com/vibast-solutions/ms-go-dibs/app/status"

const (
	IntegrationHostedPaymentPage = "HostedPaymentPage"
	UnitPieces                   = "pcs"
)

// OrderItem amounts are in minor units; TaxRate is basis points x100 (25% -> 2500).
type OrderItem struct {
	Reference        string `json:"reference"`
	Name             string `json:"name"`
	Quantity         int64  `json:"quantity"`
	Unit             string `json:"unit"`
	UnitPrice        int64  `json:"unitPrice"`
	TaxRate          int64  `json:"taxRate"`
	TaxAmount        int64  `json:"taxAmount"`
	GrossTotalAmount int64  `json:"grossTotalAmount"`
	NetTotalAmount   int64  `json:"netTotalAmount"`
}

type Order struct {
	Items     []OrderItem `json:"items"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Reference string      `json:"reference"`
}

type Consumer struct {
	Reference string `json:"reference,omitempty"`
	Email     string `json:"email,omitempty"`
}

type Checkout struct {
	Charge                      bool      `json:"charge"`
	IntegrationType             string    `json:"integrationType"`
	ReturnURL                   string    `json:"returnUrl"`
	CancelURL                   string    `json:"cancelUrl,omitempty"`
	TermsURL                    string    `json:"termsUrl"`
	MerchantHandlesConsumerData bool      `json:"merchantHandlesConsumerData"`
	Consumer                    *Consumer `json:"consumer,omitempty"`
}

type Webhook struct {
	EventName     string `json:"eventName"`
	URL           string `json:"url"`
	Authorization string `json:"authorization"`
}

type Notifications struct {
	Webhooks []Webhook `json:"webhooks"`
}

type PaymentMethod struct {
	Name string `json:"name"`
}

type PaymentRequest struct {
	Order          Order           `json:"order"`
	Checkout       Checkout        `json:"checkout"`
	Notifications  *Notifications  `json:"notifications,omitempty"`
	PaymentMethods []PaymentMethod `json:"paymentMethods,omitempty"`
}

type CreatePaymentResult struct {
	PaymentID            string `json:"paymentId"`
	HostedPaymentPageURL string `json:"hostedPaymentPageUrl"`
}

type Summary struct {
	ReservedAmount  int64 `json:"reservedAmount"`
	ChargedAmount   int64 `json:"chargedAmount"`
	RefundedAmount  int64 `json:"refundedAmount"`
	CancelledAmount int64 `json:"cancelledAmount"`
}

func (s Summary) Remote() status.Summary {
	return status.Summary{
		Reserved:  s.ReservedAmount,
		Charged:   s.ChargedAmount,
		Cancelled: s.CancelledAmount,
		Refunded:  s.RefundedAmount,
	}
}

type OrderDetails struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

type PaymentCheckout struct {
	URL string `json:"url"`
}

type Charge struct {
	ChargeID string `json:"chargeId"`
	Amount   int64  `json:"amount"`
}

type Refund struct {
	RefundID string `json:"refundId"`
	Amount   int64  `json:"amount"`
}

type Payment struct {
	PaymentID    string          `json:"paymentId"`
	Summary      Summary         `json:"summary"`
	OrderDetails OrderDetails    `json:"orderDetails"`
	Checkout     PaymentCheckout `json:"checkout"`
	Charges      []Charge        `json:"charges"`
	Refunds      []Refund        `json:"refunds"`
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}
