package host

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-dibs/app/status"
)

func TestApplyTransactionIsForwardOnly(t *testing.T) {
	order := &Order{OrderNumber: "1001"}

	changed := order.ApplyTransaction(&TransactionInfo{
		TransactionID:    "777",
		AmountAuthorized: decimal.RequireFromString("120"),
		PaymentStatus:    status.Captured,
	})
	if !changed || order.Transaction.PaymentStatus != status.Captured || order.Transaction.TransactionID != "777" {
		t.Fatalf("unexpected transaction %+v", order.Transaction)
	}

	if order.ApplyTransaction(&TransactionInfo{PaymentStatus: status.Authorized}) {
		t.Fatal("backwards transition must not apply")
	}
	if order.Transaction.PaymentStatus != status.Captured || !order.Transaction.AmountAuthorized.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("transaction was overwritten: %+v", order.Transaction)
	}
	if order.ApplyTransaction(nil) {
		t.Fatal("nil info must not apply")
	}
}

func TestApplyUpdate(t *testing.T) {
	order := &Order{Transaction: TransactionInfo{TransactionID: "tx", PaymentStatus: status.Captured}}

	if !order.ApplyUpdate(&TransactionUpdate{PaymentStatus: status.Refunded}) {
		t.Fatal("expected refund to apply")
	}
	if order.ApplyUpdate(&TransactionUpdate{PaymentStatus: status.Cancelled}) {
		t.Fatal("terminal status must not move")
	}
	if order.Transaction.TransactionID != "tx" || order.Transaction.PaymentStatus != status.Refunded {
		t.Fatalf("unexpected transaction %+v", order.Transaction)
	}
}

func TestMergeMetaDataAndClone(t *testing.T) {
	order := &Order{}
	order.MergeMetaData(map[string]string{"dibsEasyPaymentId": "pay_1", "empty": ""})
	if order.Property("dibsEasyPaymentId") != "pay_1" {
		t.Fatalf("expected merged property, got %+v", order.Properties)
	}
	if _, ok := order.Properties["empty"]; ok {
		t.Fatal("empty values must not be merged")
	}

	clone := order.Clone()
	clone.Properties["dibsEasyPaymentId"] = "pay_2"
	if order.Property("dibsEasyPaymentId") != "pay_1" {
		t.Fatal("clone shares properties with original")
	}
}

func TestCallbackResults(t *testing.T) {
	if EmptyCallback().Rejected() || !RejectedCallback().Rejected() {
		t.Fatal("unexpected rejection flags")
	}
	if !(APIResult{}).Empty() {
		t.Fatal("zero api result must be empty")
	}
	form := PaymentForm{Inputs: []FormInput{{Name: "amount", Value: "100"}}}
	if v, ok := form.Value("amount"); !ok || v != "100" {
		t.Fatalf("unexpected form value %q", v)
	}
	if _, ok := form.Value("missing"); ok {
		t.Fatal("missing input must not be found")
	}
}
