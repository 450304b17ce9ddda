package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tair/gadget-inventory/internal/order/domain"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/kafka"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/logger"
	"github.com/tair/gadget-inventory/pkg/validation"
)

// EventPublisher announces committed orders
type EventPublisher interface {
	PublishSalesOrderCreated(ctx context.Context, event kafka.SalesOrderCreatedEvent) error
}

// CacheInvalidator drops cached catalog reads matching a key pattern
type CacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// CreateOrderCommand represents the command to record a sale
type CreateOrderCommand struct {
	Caller        auth.Caller
	ProductID     string
	Quantity      int
	BuyerName     string
	ContactNumber string
	// SoldDate defaults to the time of the request
	SoldDate *time.Time
}

// CreateOrderHandler records a sale and decrements stock in one transaction
type CreateOrderHandler struct {
	orders    domain.OrderRepository
	products  productdomain.ProductRepository
	publisher EventPublisher
	cache     CacheInvalidator
	validate  *validator.Validate
	now       func() time.Time
}

// NewCreateOrderHandler creates a new create order handler
func NewCreateOrderHandler(
	orders domain.OrderRepository,
	products productdomain.ProductRepository,
	publisher EventPublisher,
	c CacheInvalidator,
	v *validator.Validate,
) *CreateOrderHandler {
	return &CreateOrderHandler{
		orders:    orders,
		products:  products,
		publisher: publisher,
		cache:     c,
		validate:  v,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var (
	errProductUnavailable = apperror.Unprocessable("Product not found")
	errInsufficientStock  = apperror.Unprocessable("Insufficient inventory")
)

// Handle executes the create order command
func (h *CreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.SalesOrder, error) {
	// Validation
	if cmd.Quantity < 1 {
		return nil, apperror.BadRequest("quantity must be at least 1")
	}

	// Check if product exists before opening the transaction
	if _, err := h.products.FindByID(ctx, cmd.ProductID); err != nil {
		return nil, mapOrderError(err)
	}

	now := h.now()
	soldDate := now
	if cmd.SoldDate != nil {
		soldDate = cmd.SoldDate.UTC()
	}

	// Lock, decrement and insert atomically
	var order *domain.SalesOrder
	err := h.orders.WithinTransaction(ctx, func(ctx context.Context, tx domain.Tx) error {
		product, err := tx.FindProductForUpdate(ctx, cmd.ProductID)
		if err != nil {
			return err
		}
		if product.Quantity < cmd.Quantity {
			return domain.ErrInsufficientStock
		}

		if err := tx.DecrementStock(ctx, product.ID, cmd.Quantity); err != nil {
			return err
		}

		order = &domain.SalesOrder{
			ID:            uuid.NewString(),
			ProductID:     product.ID,
			SellerID:      cmd.Caller.ID,
			Quantity:      cmd.Quantity,
			BuyerName:     strings.TrimSpace(cmd.BuyerName),
			ContactNumber: strings.TrimSpace(cmd.ContactNumber),
			SoldDate:      soldDate,
			TotalAmount:   TotalAmount(product.Price, cmd.Quantity),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := h.validate.Struct(order); err != nil {
			return apperror.Wrap(apperror.KindBadRequest, err, validation.Describe(err))
		}

		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("product_id", cmd.ProductID).
			Int("quantity", cmd.Quantity).
			Msg("Sales order rejected")
		return nil, mapOrderError(err)
	}

	logger.Info(ctx).
		Str("order_id", order.ID).
		Str("product_id", order.ProductID).
		Int("quantity", order.Quantity).
		Float64("total_amount", order.TotalAmount).
		Msg("Sales order created")

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, productdomain.CachePattern); err != nil {
			logger.Warn(ctx).Err(err).Msg("Failed to invalidate product cache")
		}
	}

	h.publish(ctx, order)
	return order, nil
}

func (h *CreateOrderHandler) publish(ctx context.Context, order *domain.SalesOrder) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.PublishSalesOrderCreated(ctx, kafka.SalesOrderCreatedEvent{
		OrderID:     order.ID,
		ProductID:   order.ProductID,
		SellerID:    order.SellerID,
		Quantity:    order.Quantity,
		TotalAmount: order.TotalAmount,
		SoldDate:    order.SoldDate,
	})
	if err != nil {
		logger.Error(ctx).Err(err).Str("order_id", order.ID).Msg("Failed to publish sales order event")
	}
}

// TotalAmount is quantity times unit price rounded to cents
func TotalAmount(price float64, quantity int) float64 {
	total := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	return total.InexactFloat64()
}

// mapOrderError keeps typed errors and turns anything unexpected into a bad request carrying the cause
func mapOrderError(err error) error {
	var appErr *apperror.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, productdomain.ErrProductNotFound):
		return errProductUnavailable
	case errors.Is(err, domain.ErrInsufficientStock):
		return errInsufficientStock
	default:
		return apperror.Wrap(apperror.KindBadRequest, err, fmt.Sprintf("Failed to create order: %v", err))
	}
}
