// Package projector turns a host order into the gateway's order model.
package projector

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-dibs/app/easy"
	"github.com/vibast-solutions/ms-go-dibs/app/factory"
	"github.com/vibast-solutions/ms-go-dibs/app/host"
	"github.com/vibast-solutions/ms-go-dibs/app/money"
)

var hundred = decimal.NewFromInt(100)

type Projection struct {
	Items           []easy.OrderItem
	AmountMinor     int64
	ItemsTotalMinor int64
}

// Reconciled reports whether the items add up to the order amount.
func (p *Projection) Reconciled() bool {
	return p.AmountMinor == p.ItemsTotalMinor
}

func (p *Projection) Order(currency, reference string) easy.Order {
	return easy.Order{
		Items:     p.Items,
		Amount:    p.AmountMinor,
		Currency:  currency,
		Reference: reference,
	}
}

type Projector struct {
	logger logrus.FieldLogger
}

func New() *Projector {
	return &Projector{logger: factory.NewModuleLogger("order-projector")}
}

// Project emits order lines, then shipping, then subtotal, total and
// transaction adjustments, in that order.
func (p *Projector) Project(order *host.Order, cur money.Currency) (*Projection, error) {
	amount, err := money.ToNonNegativeMinorUnits(order.TransactionAmount, cur)
	if err != nil {
		return nil, err
	}

	items := make([]easy.OrderItem, 0, len(order.Lines)+1+len(order.SubtotalAdjustments)+len(order.TotalAdjustments)+len(order.TransactionAdjustments))
	for _, line := range order.Lines {
		item, err := lineItem(line, cur)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if order.Shipping != nil && !order.Shipping.Price.IsZero() {
		reference := strings.TrimSpace(order.Shipping.Alias)
		if reference == "" {
			reference = "shipping"
		}
		item, err := syntheticItem(reference, order.Shipping.Name, order.Shipping.Price, cur)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	for _, group := range [][]host.Adjustment{order.SubtotalAdjustments, order.TotalAdjustments, order.TransactionAdjustments} {
		for _, adj := range group {
			price := signedPrice(adj)
			if price.WithTax.IsZero() && price.WithoutTax.IsZero() {
				continue
			}
			item, err := syntheticItem(adjustmentReference(adj), adj.Name, price, cur)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}

	var total int64
	for _, item := range items {
		total += item.GrossTotalAmount
	}

	projection := &Projection{Items: items, AmountMinor: amount, ItemsTotalMinor: total}
	if !projection.Reconciled() {
		p.logger.WithFields(logrus.Fields{
			"order_number": order.OrderNumber,
			"amount":       amount,
			"items_total":  total,
		}).Warn("Order items do not add up to the order amount")
	}

	return projection, nil
}

func lineItem(line host.OrderLine, cur money.Currency) (easy.OrderItem, error) {
	unitPrice, err := money.ToMinorUnits(line.UnitPrice.WithoutTax, cur)
	if err != nil {
		return easy.OrderItem{}, err
	}
	net, err := money.ToMinorUnits(line.TotalPrice.WithoutTax, cur)
	if err != nil {
		return easy.OrderItem{}, err
	}
	tax, err := money.ToMinorUnits(line.TotalPrice.Tax, cur)
	if err != nil {
		return easy.OrderItem{}, err
	}
	rate, err := money.TaxRateToMinor(line.TaxRate.Mul(hundred))
	if err != nil {
		return easy.OrderItem{}, err
	}

	return easy.OrderItem{
		Reference:        line.SKU,
		Name:             line.Name,
		Quantity:         line.Quantity.Round(0).IntPart(),
		Unit:             easy.UnitPieces,
		UnitPrice:        unitPrice,
		TaxRate:          rate,
		TaxAmount:        tax,
		NetTotalAmount:   net,
		GrossTotalAmount: net + tax,
	}, nil
}

func syntheticItem(reference, name string, price host.Price, cur money.Currency) (easy.OrderItem, error) {
	net, err := money.ToMinorUnits(price.WithoutTax, cur)
	if err != nil {
		return easy.OrderItem{}, err
	}
	tax, err := money.ToMinorUnits(price.Tax, cur)
	if err != nil {
		return easy.OrderItem{}, err
	}

	return easy.OrderItem{
		Reference:        reference,
		Name:             name,
		Quantity:         1,
		Unit:             easy.UnitPieces,
		UnitPrice:        net,
		TaxRate:          DerivedTaxRate(price.Tax, price.WithoutTax),
		TaxAmount:        tax,
		NetTotalAmount:   net,
		GrossTotalAmount: net + tax,
	}, nil
}

// DerivedTaxRate computes (tax / withoutTax) * 100 in the gateway's tax-rate
// minor unit, rounding half to even. Zero when withoutTax is zero.
func DerivedTaxRate(tax, withoutTax decimal.Decimal) int64 {
	if withoutTax.IsZero() {
		return 0
	}
	percent := tax.Abs().DivRound(withoutTax.Abs(), 8).Mul(hundred)
	return percent.Shift(2).RoundBank(0).IntPart()
}

// Discounts and gift cards always reduce the total; price adjustments keep their sign.
func signedPrice(adj host.Adjustment) host.Price {
	if adj.Kind != host.DiscountAdjustment && adj.Kind != host.GiftCardAdjustment {
		return adj.Price
	}
	price := host.Price{
		WithoutTax: adj.Price.WithoutTax.Abs().Neg(),
		Tax:        adj.Price.Tax.Abs().Neg(),
		WithTax:    adj.Price.WithTax.Abs().Neg(),
	}
	if adj.Kind == host.GiftCardAdjustment && price.WithoutTax.IsZero() {
		price.WithoutTax = price.WithTax
	}
	return price
}

func adjustmentReference(adj host.Adjustment) string {
	if ref := strings.TrimSpace(adj.Reference); ref != "" {
		return ref
	}
	return string(adj.Kind)
}
