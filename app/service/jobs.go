package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/provider"
)

type orderBook interface {
	List(ctx context.Context) []*host.Order
	Update(ctx context.Context, orderNumber string, fn func(order *host.Order) error) (*host.Order, error)
}

type ReconcileReport struct {
	Checked int
	Updated int
	Failed  int
}

// RunReconcileBatch re-fetches the gateway status of every open order that
// has a transaction and applies forward transitions. It covers webhooks that
// were missed or answered while the gateway was unreachable.
func (s *PaymentService) RunReconcileBatch(ctx context.Context, orders orderBook) (ReconcileReport, error) {
	var (
		report   ReconcileReport
		firstErr error
	)

	for _, order := range orders.List(ctx) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if order.Transaction.PaymentStatus.Terminal() || !hasGatewayReference(order) {
			continue
		}

		report.Checked++
		result := s.FetchStatus(ctx, order)
		if result.Empty() {
			report.Failed++
			continue
		}

		changed := false
		_, err := orders.Update(ctx, order.OrderNumber, func(current *host.Order) error {
			changed = current.ApplyUpdate(result.Transaction)
			current.MergeMetaData(result.MetaData)
			return nil
		})
		if err != nil {
			report.Failed++
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if changed {
			report.Updated++
			s.logger.WithFields(logrus.Fields{
				"order":  order.OrderNumber,
				"status": result.Transaction.PaymentStatus.String(),
			}).Info("Order status reconciled")
		}
	}

	return report, firstErr
}

func hasGatewayReference(order *host.Order) bool {
	return strings.TrimSpace(order.Transaction.TransactionID) != "" || order.Property(provider.MetaPaymentID) != ""
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
