package repository

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/vibast-solutions/ms-go-dibs/app/host"
)

// OrderRepository is an in-memory order book standing in for the commerce
// host. Callers always receive copies.
type OrderRepository struct {
	mu     sync.Mutex
	orders map[string]*host.Order
}

func NewOrderRepository(orders ...*host.Order) *OrderRepository {
	items := make(map[string]*host.Order, len(orders))
	for _, o := range orders {
		items[strings.TrimSpace(o.OrderNumber)] = o.Clone()
	}
	return &OrderRepository{orders: items}
}

// LoadOrdersFile reads a JSON array of orders. An empty path yields an empty book.
func LoadOrdersFile(path string) (*OrderRepository, error) {
	if strings.TrimSpace(path) == "" {
		return NewOrderRepository(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var orders []*host.Order
	if err := json.Unmarshal(raw, &orders); err != nil {
		return nil, err
	}
	return NewOrderRepository(orders...), nil
}

func (r *OrderRepository) Find(_ context.Context, orderNumber string) (*host.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[strings.TrimSpace(orderNumber)]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return order.Clone(), nil
}

// Update applies fn to a copy and stores it only when fn succeeds.
func (r *OrderRepository) Update(_ context.Context, orderNumber string, fn func(order *host.Order) error) (*host.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.TrimSpace(orderNumber)
	current, ok := r.orders[key]
	if !ok {
		return nil, ErrOrderNotFound
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.orders[key] = next
	return next.Clone(), nil
}

func (r *OrderRepository) List(_ context.Context) []*host.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]*host.Order, 0, len(r.orders))
	for _, o := range r.orders {
		items = append(items, o.Clone())
	}
	sort.Slice(items, func(i, j int) bool { return items[i].OrderNumber < items[j].OrderNumber })
	return items
}
