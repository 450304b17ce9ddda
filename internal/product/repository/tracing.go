package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/internal/product/domain"
)

var tracer = otel.Tracer("product-repository")

// TracingProductRepository wraps a ProductRepository with a span per call
type TracingProductRepository struct {
	next    domain.ProductRepository
	backend string
}

var _ domain.ProductRepository = (*TracingProductRepository)(nil)

// NewTracingProductRepository creates a new repository with tracing
func NewTracingProductRepository(next domain.ProductRepository, backend string) *TracingProductRepository {
	return &TracingProductRepository{next: next, backend: backend}
}

func (r *TracingProductRepository) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", r.backend))
	return tracer.Start(ctx, "repository."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *TracingProductRepository) Create(ctx context.Context, product *domain.Product) (err error) {
	ctx, span := r.start(ctx, "Create",
		attribute.String("product.id", product.ID),
		attribute.String("product.slug", product.Slug),
		attribute.Float64("product.price", product.Price),
		attribute.Int("product.quantity", product.Quantity),
	)
	defer func() { finish(span, err) }()
	return r.next.Create(ctx, product)
}

func (r *TracingProductRepository) FindByID(ctx context.Context, id string) (p *domain.Product, err error) {
	ctx, span := r.start(ctx, "FindByID", attribute.String("product.id", id))
	defer func() { finish(span, err) }()
	return r.next.FindByID(ctx, id)
}

func (r *TracingProductRepository) FindByIDs(ctx context.Context, ids []string) (ps []domain.Product, err error) {
	ctx, span := r.start(ctx, "FindByIDs", attribute.Int("product.ids", len(ids)))
	defer func() {
		span.SetAttributes(attribute.Int("product.found", len(ps)))
		finish(span, err)
	}()
	return r.next.FindByIDs(ctx, ids)
}

func (r *TracingProductRepository) Update(ctx context.Context, product *domain.Product, fields []string) (err error) {
	ctx, span := r.start(ctx, "Update",
		attribute.String("product.id", product.ID),
		attribute.StringSlice("product.fields", fields),
	)
	defer func() { finish(span, err) }()
	return r.next.Update(ctx, product, fields)
}

func (r *TracingProductRepository) SoftDelete(ctx context.Context, id string) (err error) {
	ctx, span := r.start(ctx, "SoftDelete", attribute.String("product.id", id))
	defer func() { finish(span, err) }()
	return r.next.SoftDelete(ctx, id)
}

func (r *TracingProductRepository) SoftDeleteMany(ctx context.Context, ids []string) (n int64, err error) {
	ctx, span := r.start(ctx, "SoftDeleteMany", attribute.Int("product.ids", len(ids)))
	defer func() {
		span.SetAttributes(attribute.Int64("product.deleted", n))
		finish(span, err)
	}()
	return r.next.SoftDeleteMany(ctx, ids)
}

func (r *TracingProductRepository) SlugExists(ctx context.Context, slug string) (ok bool, err error) {
	ctx, span := r.start(ctx, "SlugExists", attribute.String("product.slug", slug))
	defer func() { finish(span, err) }()
	return r.next.SlugExists(ctx, slug)
}

func (r *TracingProductRepository) SlugsWithPrefix(ctx context.Context, prefix string) (slugs []string, err error) {
	ctx, span := r.start(ctx, "SlugsWithPrefix", attribute.String("product.slug_prefix", prefix))
	defer func() { finish(span, err) }()
	return r.next.SlugsWithPrefix(ctx, prefix)
}

func (r *TracingProductRepository) Aggregate(ctx context.Context, stages []pipeline.Stage) (docs []pipeline.Document, err error) {
	names := make([]string, 0, len(stages))
	for _, s := range stages {
		names = append(names, pipeline.Name(s))
	}
	ctx, span := r.start(ctx, "Aggregate", attribute.StringSlice("pipeline.stages", names))
	defer func() { finish(span, err) }()
	return r.next.Aggregate(ctx, stages)
}

func (r *TracingProductRepository) Distinct(ctx context.Context, field string) (values []string, err error) {
	ctx, span := r.start(ctx, "Distinct", attribute.String("product.field", field))
	defer func() {
		span.SetAttributes(attribute.Int("product.values", len(values)))
		finish(span, err)
	}()
	return r.next.Distinct(ctx, field)
}
