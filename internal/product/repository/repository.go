package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/internal/pipeline/gormpipe"
	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/pkg/database"
)

// GormProductRepository stores products in PostgreSQL
type GormProductRepository struct {
	db *gorm.DB
}

var _ domain.ProductRepository = (*GormProductRepository)(nil)

// NewGormProductRepository creates a new gorm product repository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// AutoMigrate creates or updates the products table
func (r *GormProductRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Product{})
}

// ProductColumn resolves an API field path to its column
func ProductColumn(path string) (string, bool) {
	f, ok := domain.LookupField(path)
	if !ok {
		return "", false
	}
	return f.Column, true
}

func (r *GormProductRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Product{}).Where("is_deleted = ?", false)
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := r.active(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []domain.Product
	if err := r.active(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

func (r *GormProductRepository) Update(ctx context.Context, product *domain.Product, fields []string) error {
	updates := make(map[string]any, len(fields))
	doc := product.Document()
	for _, f := range fields {
		col, ok := ProductColumn(f)
		if !ok || col == "id" || col == "created_at" {
			return fmt.Errorf("unsupported update field %q", f)
		}
		v, _ := doc.Lookup(f)
		updates[col] = v
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.active(ctx).
		Where("id = ?", product.ID).
		Updates(updates)
	if res.Error != nil {
		if database.IsUniqueViolation(res.Error) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *GormProductRepository) SoftDelete(ctx context.Context, id string) error {
	n, err := r.SoftDeleteMany(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *GormProductRepository) SoftDeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.active(ctx).
		Where("id IN ?", ids).
		Updates(map[string]any{"is_deleted": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.active(ctx).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}

func (r *GormProductRepository) SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var slugs []string
	err := r.active(ctx).
		Where("slug ILIKE ?", gormpipe.EscapeLike(prefix)+"%").
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}
	return slugs, nil
}

func (r *GormProductRepository) Distinct(ctx context.Context, field string) ([]string, error) {
	col, ok := ProductColumn(field)
	if !ok {
		return nil, fmt.Errorf("unsupported distinct field %q", field)
	}

	var values []string
	err := r.active(ctx).
		Where(col+" <> ''").
		Distinct().
		Order(col).
		Pluck(col, &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}
	return values, nil
}

// Aggregate runs filters, sort and pagination in SQL and applies projection to the rows.
// Stages other than Project may not follow Paginate.
func (r *GormProductRepository) Aggregate(ctx context.Context, stages []pipeline.Stage) ([]pipeline.Document, error) {
	q := r.db.WithContext(ctx).Model(&domain.Product{})

	var (
		sorts   []pipeline.Sort
		page    *pipeline.Paginate
		project []pipeline.Project
		err     error
	)
	for i, st := range stages {
		if page != nil {
			if _, ok := st.(pipeline.Project); !ok {
				return nil, fmt.Errorf("stage %d: %s after paginate is not supported", i, pipeline.Name(st))
			}
		}

		switch s := st.(type) {
		case pipeline.Match:
			q, err = gormpipe.ApplyMatch(q, s, ProductColumn)
		case pipeline.RangeFilter:
			q, err = gormpipe.ApplyConditions(q, s.Conditions(), ProductColumn)
		case pipeline.Sort:
			sorts = append(sorts, s)
		case pipeline.Paginate:
			p := s
			page = &p
		case pipeline.Project:
			project = append(project, s)
		default:
			err = fmt.Errorf("unsupported stage %T", st)
		}
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if page != nil {
		if err := q.Count(&total).Error; err != nil {
			return nil, fmt.Errorf("failed to count products: %w", err)
		}
	}

	if len(sorts) == 0 {
		sorts = []pipeline.Sort{{}}
	}
	// The last sort wins, as it would when stages run in sequence.
	ordered, err := gormpipe.ApplySort(q, sorts[len(sorts)-1], ProductColumn, "id")
	if err != nil {
		return nil, err
	}
	if page != nil {
		ordered = ordered.Offset(page.Skip()).Limit(page.Limit)
	}

	var products []domain.Product
	if err := ordered.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	docs := make([]pipeline.Document, 0, len(products))
	for i := range products {
		docs = append(docs, products[i].Document())
	}

	if page != nil {
		meta := []pipeline.Document{}
		if total > 0 {
			meta = append(meta, pipeline.Document{"total": total, "page": page.Page})
		}
		docs = []pipeline.Document{{"meta": meta, "data": docs}}
	}
	for _, p := range project {
		for i := range docs {
			docs[i] = p.Apply(docs[i])
		}
	}
	return docs, nil
}
