package entity

import "time"

const (
	CallbackStatusProcessed int32 = 10
	CallbackStatusIgnored   int32 = 15
	CallbackStatusRejected  int32 = 20
)

// PaymentCallback is one inbound gateway delivery as it was handled.
type PaymentCallback struct {
	ID uint64

	Provider       string
	OrderReference string
	RequestID      string
	PayloadJSON    string
	Status         int32
	PaymentStatus  *string
	Error          *string

	CreatedAt time.Time
}
