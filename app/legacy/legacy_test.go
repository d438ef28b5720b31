package legacy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vibast-solutions/ms-go-dibs/app/signature"
)

func TestBuildFormFieldOrder(t *testing.T) {
	form, err := BuildForm(FormInput{
		Merchant:        "90000",
		OrderID:         "ORD-1",
		AmountMinor:     12345,
		CurrencyNumeric: "208",
		AcceptURL:       "https://shop.example/accept",
		CancelURL:       "https://shop.example/cancel",
		CallbackURL:     "https://shop.example/callback",
		Lang:            "da",
		PayTypes:        []string{"VISA", " ", "MC"},
		CaptureNow:      true,
		Test:            true,
	}, "k1", "k2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if form.Action != StartURL || form.Method != http.MethodPost {
		t.Fatalf("unexpected form target: %s %s", form.Method, form.Action)
	}

	want := []string{"orderid", "merchant", "amount", "currency", "accepturl", "cancelurl", "callbackurl", "lang", "paytype", "capturenow", "test", "md5key"}
	if len(form.Inputs) != len(want) {
		t.Fatalf("expected %d inputs, got %d: %+v", len(want), len(form.Inputs), form.Inputs)
	}
	for i, name := range want {
		if form.Inputs[i].Name != name {
			t.Fatalf("input %d: expected %s, got %s", i, name, form.Inputs[i].Name)
		}
	}

	if v, _ := form.Value("paytype"); v != "VISA,MC" {
		t.Fatalf("unexpected paytype: %q", v)
	}
	expected, _ := signature.Sign(signature.CreateFields("90000", "ORD-1", "208", "12345"), "k1", "k2")
	if v, _ := form.Value("md5key"); v != expected {
		t.Fatalf("unexpected md5key: %s", v)
	}
	if _, ok := form.Value("calcfee"); ok {
		t.Fatal("expected calcfee to be omitted")
	}
}

func TestBuildFormRequiresKeys(t *testing.T) {
	_, err := BuildForm(FormInput{Merchant: "90000", OrderID: "ORD-1", AmountMinor: 100, CurrencyNumeric: "208"}, "", "k2")
	if !errors.Is(err, signature.ErrInputMissing) {
		t.Fatalf("expected ErrInputMissing, got %v", err)
	}
}

func TestPayInfoUsesBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-adm/payinfo.cgi" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "api" || pass != "secret" {
			t.Fatalf("unexpected basic auth: %q %q %v", user, pass, ok)
		}
		_ = r.ParseForm()
		if r.PostForm.Get("transact") != "777" {
			t.Fatalf("unexpected transact: %q", r.PostForm.Get("transact"))
		}
		_, _ = w.Write([]byte("status=5&transact=777"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIUsername: "api", APIPassword: "secret"})
	code, err := client.PayInfo(context.Background(), "777")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "5" {
		t.Fatalf("expected status 5, got %q", code)
	}
}

func TestCaptureSignsAndParsesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/capture.cgi" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if _, _, ok := r.BasicAuth(); ok {
			t.Fatal("capture must not send basic auth")
		}
		_ = r.ParseForm()
		expected, _ := signature.Sign(signature.CaptureFields("90000", "ORD-1", "777", "12345"), "k1", "k2")
		if r.PostForm.Get("md5key") != expected || r.PostForm.Get("textreply") != "yes" {
			t.Fatalf("unexpected form: %v", r.PostForm)
		}
		_, _ = w.Write([]byte("result=0"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Merchant: "90000", MD5Key1: "k1", MD5Key2: "k2"})
	if err := client.Capture(context.Background(), "ORD-1", "777", 12345); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRefundSendsCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.URL.Path != "/cgi-adm/refund.cgi" || r.PostForm.Get("currency") != "208" {
			t.Fatalf("unexpected refund request: %s %v", r.URL.Path, r.PostForm)
		}
		_, _ = w.Write([]byte("result=0"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Merchant: "90000", MD5Key1: "k1", MD5Key2: "k2"})
	if err := client.Refund(context.Background(), "ORD-1", "777", 12345, "208"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCancelRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("result=2&message=declined"))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Merchant: "90000", MD5Key1: "k1", MD5Key2: "k2"})
	err := client.Cancel(context.Background(), "ORD-1", "777")

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.Result != "2" || rejected.Operation != "cancel" {
		t.Fatalf("unexpected rejection: %+v", rejected)
	}
}

func TestPostFormRequestError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL})
	_, err := client.PayInfo(context.Background(), "777")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 RequestError, got %v", err)
	}
}
