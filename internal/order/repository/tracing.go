package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/gadget-inventory/internal/order/domain"
	"github.com/tair/gadget-inventory/internal/pipeline"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
)

var tracer = otel.Tracer("order-repository")

// TracingOrderRepository wraps an OrderRepository with a span per call.
// Transaction steps get child spans of the transaction span.
type TracingOrderRepository struct {
	next    domain.OrderRepository
	backend string
}

var _ domain.OrderRepository = (*TracingOrderRepository)(nil)

// NewTracingOrderRepository creates a new repository with tracing
func NewTracingOrderRepository(next domain.OrderRepository, backend string) *TracingOrderRepository {
	return &TracingOrderRepository{next: next, backend: backend}
}

func start(ctx context.Context, backend, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.system", backend))
	return tracer.Start(ctx, "repository."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *TracingOrderRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) (err error) {
	ctx, span := start(ctx, r.backend, "WithinTransaction")
	defer func() { finish(span, err) }()

	return r.next.WithinTransaction(ctx, func(ctx context.Context, tx domain.Tx) error {
		return fn(ctx, &tracingTx{next: tx, backend: r.backend})
	})
}

func (r *TracingOrderRepository) SalesReport(ctx context.Context, stages []pipeline.Stage) (buckets []domain.SalesBucket, err error) {
	ctx, span := start(ctx, r.backend, "SalesReport", attribute.Int("pipeline.stages", len(stages)))
	defer func() {
		span.SetAttributes(attribute.Int("report.buckets", len(buckets)))
		finish(span, err)
	}()
	return r.next.SalesReport(ctx, stages)
}

type tracingTx struct {
	next    domain.Tx
	backend string
}

func (t *tracingTx) FindProductForUpdate(ctx context.Context, id string) (p *productdomain.Product, err error) {
	ctx, span := start(ctx, t.backend, "FindProductForUpdate", attribute.String("product.id", id))
	defer func() { finish(span, err) }()
	return t.next.FindProductForUpdate(ctx, id)
}

func (t *tracingTx) DecrementStock(ctx context.Context, productID string, quantity int) (err error) {
	ctx, span := start(ctx, t.backend, "DecrementStock",
		attribute.String("product.id", productID),
		attribute.Int("order.quantity", quantity),
	)
	defer func() { finish(span, err) }()
	return t.next.DecrementStock(ctx, productID, quantity)
}

func (t *tracingTx) InsertOrder(ctx context.Context, order *domain.SalesOrder) (err error) {
	ctx, span := start(ctx, t.backend, "InsertOrder",
		attribute.String("order.id", order.ID),
		attribute.Float64("order.total_amount", order.TotalAmount),
	)
	defer func() { finish(span, err) }()
	return t.next.InsertOrder(ctx, order)
}
