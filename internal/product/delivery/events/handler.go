// Package events reacts to sales events published on Kafka.
package events

import (
	"context"
	"fmt"

	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/kafka"
	"github.com/tair/gadget-inventory/pkg/logger"
)

// Invalidator drops cached entries matching a key pattern
type Invalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// StockEventHandler evicts cached catalog reads whenever a sale changes stock
type StockEventHandler struct {
	cache Invalidator
}

// NewStockEventHandler creates a new stock event handler
func NewStockEventHandler(cache Invalidator) *StockEventHandler {
	return &StockEventHandler{cache: cache}
}

// Register subscribes the handler to sales order events
func (h *StockEventHandler) Register(consumer *kafka.Consumer) {
	consumer.RegisterHandler(kafka.EventTypeSalesOrderCreated, h.HandleSalesOrderCreated)
}

// HandleSalesOrderCreated invalidates listings that may show the sold product's old quantity
func (h *StockEventHandler) HandleSalesOrderCreated(ctx context.Context, event kafka.SalesOrderCreatedEvent) error {
	if err := h.cache.Invalidate(ctx, domain.CachePattern); err != nil {
		return fmt.Errorf("failed to invalidate product cache: %w", err)
	}

	logger.Debug(ctx).
		Str("order_id", event.OrderID).
		Str("product_id", event.ProductID).
		Int("quantity", event.Quantity).
		Msg("Product cache invalidated after sale")
	return nil
}
