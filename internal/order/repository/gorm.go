package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/gadget-inventory/internal/order/domain"
	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/internal/pipeline/gormpipe"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
)

var orderColumns = map[string]string{
	"_id":           "id",
	"product":       "product_id",
	"seller":        "seller_id",
	"quantity":      "quantity",
	"buyerName":     "buyer_name",
	"contactNumber": "contact_number",
	"soldDate":      "sold_date",
	"totalAmount":   "total_amount",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
}

// OrderColumn resolves an API field path of a sales order to its column
func OrderColumn(path string) (string, bool) {
	c, ok := orderColumns[path]
	return c, ok
}

// GormOrderRepository stores sales orders in PostgreSQL
type GormOrderRepository struct {
	db *gorm.DB
}

var _ domain.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new gorm order repository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate creates or updates the sales_orders table
func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.SalesOrder{})
}

// WithinTransaction runs fn inside a database transaction
func (r *GormOrderRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormTx{db: tx})
	})
}

// SalesReport pushes leading Match stages down to SQL and runs the remaining
// stages in process, with the referenced products available to Lookup.
func (r *GormOrderRepository) SalesReport(ctx context.Context, stages []pipeline.Stage) ([]domain.SalesBucket, error) {
	q := r.db.WithContext(ctx).Model(&domain.SalesOrder{})

	rest := stages
	for len(rest) > 0 {
		m, ok := rest[0].(pipeline.Match)
		if !ok {
			break
		}
		var err error
		if q, err = gormpipe.ApplyMatch(q, m, OrderColumn); err != nil {
			return nil, fmt.Errorf("failed to build sales filter: %w", err)
		}
		rest = rest[1:]
	}

	var orders []domain.SalesOrder
	if err := q.Order("sold_date").Order("id").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load sales orders: %w", err)
	}

	byOrder := make(map[string]*domain.SalesOrder, len(orders))
	docs := make([]pipeline.Document, 0, len(orders))
	productIDs := make([]string, 0, len(orders))
	seen := map[string]bool{}
	for i := range orders {
		o := &orders[i]
		byOrder[o.ID] = o
		docs = append(docs, o.Document())
		if !seen[o.ProductID] {
			seen[o.ProductID] = true
			productIDs = append(productIDs, o.ProductID)
		}
	}

	// Deleted products are still joined so historical orders keep their details.
	var products []productdomain.Product
	if len(productIDs) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return nil, fmt.Errorf("failed to load ordered products: %w", err)
		}
	}
	byProduct := make(map[string]*productdomain.Product, len(products))
	productDocs := make([]pipeline.Document, 0, len(products))
	for i := range products {
		byProduct[products[i].ID] = &products[i]
		productDocs = append(productDocs, products[i].Document())
	}

	out, err := pipeline.Execute(docs, rest, pipeline.Sources{domain.ProductsSource: productDocs})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}

	resolve := domain.RecordResolver{
		Order: func(id string) (*domain.SalesOrder, bool) {
			o, ok := byOrder[id]
			return o, ok
		},
		Product: func(id string) (*productdomain.Product, bool) {
			p, ok := byProduct[id]
			return p, ok
		},
	}
	buckets := make([]domain.SalesBucket, 0, len(out))
	for _, doc := range out {
		b, err := domain.BucketFromDocument(doc, resolve)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) FindProductForUpdate(ctx context.Context, id string) (*productdomain.Product, error) {
	var product productdomain.Product
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productdomain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return &product, nil
}

func (t *gormTx) DecrementStock(ctx context.Context, productID string, quantity int) error {
	res := t.db.WithContext(ctx).
		Model(&productdomain.Product{}).
		Where("id = ? AND is_deleted = ? AND quantity >= ?", productID, false, quantity).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (t *gormTx) InsertOrder(ctx context.Context, order *domain.SalesOrder) error {
	if err := t.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to insert sales order: %w", err)
	}
	return nil
}
