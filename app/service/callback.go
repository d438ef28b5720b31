package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-dibs/app/entity"
	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/repository"
	"github.com/vibast-solutions/ms-go-dibs/app/webhook"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorLength  = 1024
)

type callbackJournal interface {
	Create(ctx context.Context, callback *entity.PaymentCallback) error
}

type nopJournal struct{}

func (nopJournal) Create(context.Context, *entity.PaymentCallback) error { return nil }

func (s *PaymentService) record(
	ctx context.Context,
	providerAlias string,
	order *host.Order,
	delivery *webhook.Delivery,
	result host.CallbackResult,
	outcome string,
	callbackErr error,
) {
	var payload []byte
	var requestID string
	if delivery != nil {
		payload, _ = delivery.Body()
		requestID, _ = delivery.Header(requestIDHeader)
	}

	item := &entity.PaymentCallback{
		Provider:       providerAlias,
		OrderReference: order.OrderNumber,
		RequestID:      strings.TrimSpace(requestID),
		PayloadJSON:    string(payload),
		Status:         journalStatus(outcome, result),
		CreatedAt:      s.now(),
	}
	if item.RequestID == "" {
		item.RequestID = uuid.NewString()
	}
	if info := result.TransactionInfo; info != nil {
		paymentStatus := info.PaymentStatus.String()
		item.PaymentStatus = &paymentStatus
	}
	if callbackErr != nil {
		reason := truncate(callbackErr.Error(), maxErrorLength)
		item.Error = &reason
	}

	if err := s.journal.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrCallbackAlreadyRecorded) {
			s.logger.WithField("request_id", item.RequestID).Debug("Callback delivery already journaled")
			return
		}
		s.logger.WithError(err).WithField("order", order.OrderNumber).Warn("Failed to journal callback")
	}
}

func journalStatus(outcome string, result host.CallbackResult) int32 {
	switch {
	case outcome == outcomeRejected || result.HTTPStatus >= http.StatusBadRequest:
		return entity.CallbackStatusRejected
	case result.TransactionInfo == nil:
		return entity.CallbackStatusIgnored
	default:
		return entity.CallbackStatusProcessed
	}
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
