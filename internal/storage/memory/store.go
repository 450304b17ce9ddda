// Package memory is an in-process document store implementing the product
// and order repositories. Queries run through the pipeline executor.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	orderdomain "github.com/tair/gadget-inventory/internal/order/domain"
	"github.com/tair/gadget-inventory/internal/pipeline"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
)

// Store holds products and orders. The zero value is not usable; call NewStore.
type Store struct {
	mu sync.RWMutex
	// txMu serialises order transactions
	txMu sync.Mutex

	products     map[string]*productdomain.Product
	productOrder []string
	orders       map[string]*orderdomain.SalesOrder
	orderOrder   []string

	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products: map[string]*productdomain.Product{},
		orders:   map[string]*orderdomain.SalesOrder{},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Products returns the product repository view of the store
func (s *Store) Products() *ProductRepository {
	return &ProductRepository{store: s}
}

// Orders returns the order repository view of the store
func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{store: s}
}

// productDocs snapshots every product, deleted ones included. Caller holds mu.
func (s *Store) productDocs() []pipeline.Document {
	docs := make([]pipeline.Document, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		docs = append(docs, s.products[id].Document())
	}
	return docs
}

// activeSlugTaken reports whether another non-deleted product uses slug. Caller holds mu.
func (s *Store) activeSlugTaken(slug, exceptID string) bool {
	for _, p := range s.products {
		if !p.IsDeleted && p.Slug == slug && p.ID != exceptID {
			return true
		}
	}
	return false
}

// ProductRepository implements productdomain.ProductRepository
type ProductRepository struct {
	store *Store
}

var _ productdomain.ProductRepository = (*ProductRepository)(nil)

// Create inserts a product
func (r *ProductRepository) Create(ctx context.Context, product *productdomain.Product) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return fmt.Errorf("failed to create product: duplicate id %s", product.ID)
	}
	if !product.IsDeleted && s.activeSlugTaken(product.Slug, product.ID) {
		return productdomain.ErrSlugTaken
	}

	cp := *product
	s.products[cp.ID] = &cp
	s.productOrder = append(s.productOrder, cp.ID)
	return nil
}

// FindByID finds a non-deleted product
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*productdomain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok || p.IsDeleted {
		return nil, productdomain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

// FindByIDs finds the non-deleted products among ids
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]productdomain.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []productdomain.Product
	seen := map[string]bool{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok && !p.IsDeleted && !seen[id] {
			seen[id] = true
			out = append(out, *p)
		}
	}
	return out, nil
}

// Update merges the listed fields into a non-deleted product
func (r *ProductRepository) Update(ctx context.Context, product *productdomain.Product, fields []string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.products[product.ID]
	if !ok || current.IsDeleted {
		return productdomain.ErrProductNotFound
	}
	if containsField(fields, "slug") && s.activeSlugTaken(product.Slug, product.ID) {
		return productdomain.ErrSlugTaken
	}

	cp := *current
	cp.CopyFields(product, fields)
	s.products[cp.ID] = &cp
	return nil
}

func containsField(fields []string, f string) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

// SoftDelete marks a product deleted
func (r *ProductRepository) SoftDelete(ctx context.Context, id string) error {
	n, err := r.SoftDeleteMany(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return productdomain.ErrProductNotFound
	}
	return nil
}

// SoftDeleteMany marks every listed non-deleted product deleted
func (r *ProductRepository) SoftDeleteMany(ctx context.Context, ids []string) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for _, id := range ids {
		if p, ok := s.products[id]; ok && !p.IsDeleted {
			p.IsDeleted = true
			p.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// SlugExists reports whether a non-deleted product uses slug
func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeSlugTaken(slug, ""), nil
}

// SlugsWithPrefix lists non-deleted slugs starting with prefix, ignoring case
func (r *ProductRepository) SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(prefix)
	var out []string
	for _, id := range s.productOrder {
		p := s.products[id]
		if !p.IsDeleted && strings.HasPrefix(strings.ToLower(p.Slug), lower) {
			out = append(out, p.Slug)
		}
	}
	return out, nil
}

// Aggregate runs stages over all products in insertion order
func (r *ProductRepository) Aggregate(ctx context.Context, stages []pipeline.Stage) ([]pipeline.Document, error) {
	s := r.store
	s.mu.RLock()
	docs := s.productDocs()
	s.mu.RUnlock()

	out, err := pipeline.Execute(docs, stages, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate products: %w", err)
	}
	return out, nil
}

// Distinct lists sorted distinct non-empty string values of field
func (r *ProductRepository) Distinct(ctx context.Context, field string) ([]string, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := map[string]bool{}
	for _, p := range s.products {
		if p.IsDeleted {
			continue
		}
		if v, ok := p.Document().Lookup(field); ok {
			if str, ok := v.(string); ok && str != "" {
				set[str] = true
			}
		}
	}

	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
