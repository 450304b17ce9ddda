package memory

import (
	"context"
	"fmt"

	orderdomain "github.com/tair/gadget-inventory/internal/order/domain"
	"github.com/tair/gadget-inventory/internal/pipeline"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
)

// OrderRepository implements orderdomain.OrderRepository
type OrderRepository struct {
	store *Store
}

var _ orderdomain.OrderRepository = (*OrderRepository)(nil)

// WithinTransaction runs fn against staged writes that are applied only when
// fn succeeds and every staged decrement still holds.
func (r *OrderRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx orderdomain.Tx) error) error {
	s := r.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memTx{store: s, decrements: map[string]int{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

// SalesReport runs stages over orders with products available to Lookup
func (r *OrderRepository) SalesReport(ctx context.Context, stages []pipeline.Stage) ([]orderdomain.SalesBucket, error) {
	s := r.store
	s.mu.RLock()
	orders := make([]pipeline.Document, 0, len(s.orderOrder))
	for _, id := range s.orderOrder {
		orders = append(orders, s.orders[id].Document())
	}
	products := s.productDocs()
	s.mu.RUnlock()

	out, err := pipeline.Execute(orders, stages, pipeline.Sources{orderdomain.ProductsSource: products})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	resolve := s.resolver()
	buckets := make([]orderdomain.SalesBucket, 0, len(out))
	for _, doc := range out {
		b, err := orderdomain.BucketFromDocument(doc, resolve)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

func (s *Store) resolver() orderdomain.RecordResolver {
	return orderdomain.RecordResolver{
		Order: func(id string) (*orderdomain.SalesOrder, bool) {
			o, ok := s.orders[id]
			return o, ok
		},
		Product: func(id string) (*productdomain.Product, bool) {
			p, ok := s.products[id]
			return p, ok
		},
	}
}

type memTx struct {
	store      *Store
	decrements map[string]int
	inserted   []*orderdomain.SalesOrder
}

func (t *memTx) FindProductForUpdate(ctx context.Context, id string) (*productdomain.Product, error) {
	s := t.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok || p.IsDeleted {
		return nil, productdomain.ErrProductNotFound
	}
	cp := *p
	cp.Quantity -= t.decrements[id]
	return &cp, nil
}

func (t *memTx) DecrementStock(ctx context.Context, productID string, quantity int) error {
	s := t.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok || p.IsDeleted || p.Quantity-t.decrements[productID] < quantity {
		return orderdomain.ErrInsufficientStock
	}
	t.decrements[productID] += quantity
	return nil
}

func (t *memTx) InsertOrder(ctx context.Context, order *orderdomain.SalesOrder) error {
	cp := *order
	t.inserted = append(t.inserted, &cp)
	return nil
}

func (t *memTx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range t.decrements {
		p, ok := s.products[id]
		if !ok || p.IsDeleted || p.Quantity < n {
			return orderdomain.ErrInsufficientStock
		}
	}
	for _, o := range t.inserted {
		if _, exists := s.orders[o.ID]; exists {
			return fmt.Errorf("failed to insert order: duplicate id %s", o.ID)
		}
	}

	now := s.now()
	for id, n := range t.decrements {
		p := s.products[id]
		p.Quantity -= n
		p.UpdatedAt = now
	}
	for _, o := range t.inserted {
		s.orders[o.ID] = o
		s.orderOrder = append(s.orderOrder, o.ID)
	}
	return nil
}
