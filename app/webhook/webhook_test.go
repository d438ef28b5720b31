package webhook

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

const checkoutCompletedBody = `{"id":"evt_1","merchantId":100017120,"timestamp":"2024-05-01T10:00:00.000+02:00","event":"payment.checkout.completed","data":{"paymentId":"pay_1","order":{"amount":{"amount":12345,"currency":"DKK"}}}}`

type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func TestParse(t *testing.T) {
	event, err := Parse([]byte(checkoutCompletedBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Name != EventCheckoutCompleted || event.ID != "evt_1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.PaymentID() != "pay_1" {
		t.Fatalf("unexpected payment id: %q", event.PaymentID())
	}
	if event.ChargeID() != "" {
		t.Fatalf("expected no charge id, got %q", event.ChargeID())
	}
}

func TestParseEmptyBody(t *testing.T) {
	for _, body := range []string{"", "   \n"} {
		event, err := Parse([]byte(body))
		if err != nil || event != nil {
			t.Fatalf("%q: expected no event and no error, got %+v %v", body, event, err)
		}
	}
}

func TestParseMalformedBody(t *testing.T) {
	for _, body := range []string{"{", "[]", `{"id":"evt_1"}`, "not json"} {
		if _, err := Parse([]byte(body)); !errors.Is(err, ErrParseFailed) {
			t.Fatalf("%q: expected ErrParseFailed, got %v", body, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	if Authenticate("", false, "token") {
		t.Fatal("expected missing header to fail")
	}
	if Authenticate("", true, "") {
		t.Fatal("expected empty expected token to fail")
	}
	if Authenticate("tokeN", true, "token") {
		t.Fatal("expected one character difference to fail")
	}
	if Authenticate("token ", true, "token") {
		t.Fatal("expected trailing whitespace to fail")
	}
	if !Authenticate("token", true, "token") {
		t.Fatal("expected exact match to pass")
	}
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := NewToken()
	if len(a) != 32 {
		t.Fatalf("expected 32 hex characters, got %d", len(a))
	}
	if a == b {
		t.Fatal("expected distinct tokens")
	}
}

func TestHandled(t *testing.T) {
	for _, name := range HandledEvents {
		if !Handled(name) {
			t.Fatalf("expected %s to be handled", name)
		}
	}
	if Handled("payment.reservation.created") {
		t.Fatal("expected unregistered event to be unhandled")
	}
}

func TestDeliveryReadsBodyOnce(t *testing.T) {
	reader := &countingReader{r: strings.NewReader(checkoutCompletedBody)}
	req := httptest.NewRequest("POST", "/callbacks/dibs-easy/ORD-1", reader)
	req.Header.Set("Authorization", "token")
	delivery := NewDelivery(req)

	first, err := delivery.AuthenticatedEvent("token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	readsAfterFirst := reader.reads

	second, err := delivery.AuthenticatedEvent("token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected the memoized event to be returned")
	}
	if again, _ := delivery.Event(); again != first {
		t.Fatal("expected Event to share the parsed result")
	}
	if reader.reads != readsAfterFirst {
		t.Fatalf("expected no further reads, got %d then %d", readsAfterFirst, reader.reads)
	}
}

func TestDeliveryMemoizesFailure(t *testing.T) {
	req := httptest.NewRequest("POST", "/callbacks/dibs-easy/ORD-1", strings.NewReader(checkoutCompletedBody))
	req.Header.Set("Authorization", "forged")
	delivery := NewDelivery(req)

	if _, err := delivery.AuthenticatedEvent("token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	req.Header.Set("Authorization", "token")
	if _, err := delivery.AuthenticatedEvent("token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected memoized ErrUnauthorized, got %v", err)
	}
}

func TestDeliveryMissingHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/callbacks/dibs-easy/ORD-1", strings.NewReader(checkoutCompletedBody))
	if _, err := NewDelivery(req).AuthenticatedEvent("token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDeliveryForm(t *testing.T) {
	req := httptest.NewRequest("POST", "/callbacks/dibs-d2/ORD-1?orderid=ORD-1&transact=ignored", strings.NewReader("transact=777&amount=12345&currency=208"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	delivery := NewDelivery(req)

	form, err := delivery.Form()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Get("transact") != "777" || form.Get("amount") != "12345" || form.Get("orderid") != "ORD-1" {
		t.Fatalf("unexpected form: %v", form)
	}
	body, _ := delivery.Body()
	if string(body) != "transact=777&amount=12345&currency=208" {
		t.Fatalf("expected body to remain available, got %q", string(body))
	}
}
