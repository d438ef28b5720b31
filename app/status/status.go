package status

import (
	"errors"
	"strings"
)

type PaymentStatus int32

const (
	Initialized PaymentStatus = iota
	Authorized
	Captured
	Cancelled
	Refunded
)

var ErrUnknownStatus = errors.New("unknown payment status")

func (s PaymentStatus) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Authorized:
		return "authorized"
	case Captured:
		return "captured"
	case Cancelled:
		return "cancelled"
	case Refunded:
		return "refunded"
	default:
		return "unknown"
	}
}

func (s PaymentStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *PaymentStatus) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "initialized":
		return Initialized, nil
	case "authorized":
		return Authorized, nil
	case "captured":
		return Captured, nil
	case "cancelled", "canceled":
		return Cancelled, nil
	case "refunded":
		return Refunded, nil
	default:
		return Initialized, ErrUnknownStatus
	}
}

func (s PaymentStatus) Terminal() bool {
	return s == Cancelled || s == Refunded
}

// Summary holds the gateway's cumulative amounts for a payment, in minor units.
type Summary struct {
	Reserved  int64
	Charged   int64
	Cancelled int64
	Refunded  int64
}

// Derive picks the status from the remote summary. Precedence:
// refunded > cancelled > charged > reserved.
func Derive(s Summary) PaymentStatus {
	switch {
	case s.Refunded > 0:
		return Refunded
	case s.Cancelled > 0:
		return Cancelled
	case s.Charged > 0:
		return Captured
	case s.Reserved > 0:
		return Authorized
	default:
		return Initialized
	}
}

var transitions = map[PaymentStatus][]PaymentStatus{
	Initialized: {Authorized, Captured, Cancelled, Refunded},
	Authorized:  {Captured, Cancelled, Refunded},
	Captured:    {Refunded, Cancelled},
}

// CanTransition reports whether a local transaction may move from one status
// to another. Staying in place is always allowed.
func CanTransition(from, to PaymentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Advance applies a derived status to the current one. A derivation that
// would move backwards keeps current.
func Advance(current, derived PaymentStatus) (PaymentStatus, bool) {
	if current == derived || !CanTransition(current, derived) {
		return current, false
	}
	return derived, true
}

// FromLegacyCode maps payinfo status codes of the legacy admin API.
func FromLegacyCode(code string) (PaymentStatus, bool) {
	switch strings.TrimSpace(code) {
	case "2":
		return Authorized, true
	case "5":
		return Captured, true
	case "6":
		return Cancelled, true
	case "11":
		return Refunded, true
	default:
		return Initialized, false
	}
}
