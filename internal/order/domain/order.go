package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tair/gadget-inventory/internal/pipeline"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
)

// ErrInsufficientStock is returned when a conditional decrement matches no product
var ErrInsufficientStock = errors.New("insufficient stock")

// Collection and source names used by report pipelines
const (
	OrdersSource   = "salesorders"
	ProductsSource = "products"
)

// SalesOrder is an immutable record of a completed sale
type SalesOrder struct {
	ID            string    `json:"_id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	ProductID     string    `json:"product" gorm:"column:product_id;type:varchar(36);not null;index" bson:"product"`
	SellerID      string    `json:"seller" gorm:"column:seller_id;not null;index" bson:"seller"`
	Quantity      int       `json:"quantity" gorm:"not null" bson:"quantity" validate:"gte=1"`
	BuyerName     string    `json:"buyerName" gorm:"not null" bson:"buyerName" validate:"required,notblank"`
	ContactNumber string    `json:"contactNumber" gorm:"not null" bson:"contactNumber" validate:"required,notblank"`
	SoldDate      time.Time `json:"soldDate" gorm:"not null;index" bson:"soldDate"`
	TotalAmount   float64   `json:"totalAmount" gorm:"not null" bson:"totalAmount"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// TableName specifies the table name
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// Document renders the order as a pipeline document keyed by API field names
func (o *SalesOrder) Document() pipeline.Document {
	return pipeline.Document{
		"_id":           o.ID,
		"product":       o.ProductID,
		"seller":        o.SellerID,
		"quantity":      o.Quantity,
		"buyerName":     o.BuyerName,
		"contactNumber": o.ContactNumber,
		"soldDate":      o.SoldDate.UTC(),
		"totalAmount":   o.TotalAmount,
		"createdAt":     o.CreatedAt,
		"updatedAt":     o.UpdatedAt,
	}
}

// SalesOrderView is an order joined with its product
type SalesOrderView struct {
	SalesOrder     `bson:",inline"`
	ProductDetails *productdomain.Product `json:"productDetails,omitempty" bson:"productDetails,omitempty"`
}

// SalesBucket aggregates the orders of one reporting period
type SalesBucket struct {
	Year          int              `json:"year" bson:"year"`
	Month         int              `json:"month,omitempty" bson:"month,omitempty"`
	Week          int              `json:"week,omitempty" bson:"week,omitempty"`
	Day           int              `json:"day,omitempty" bson:"day,omitempty"`
	TotalCount    int64            `json:"totalCount" bson:"totalCount"`
	TotalQuantity int64            `json:"totalQuantity" bson:"totalQuantity"`
	TotalAmount   float64          `json:"totalAmount" bson:"totalAmount"`
	Data          []SalesOrderView `json:"data" bson:"data"`
}

// Period is a reporting granularity
type Period string

const (
	PeriodYearly  Period = "yearly"
	PeriodMonthly Period = "monthly"
	PeriodWeekly  Period = "weekly"
	PeriodDaily   Period = "daily"
)

// ParsePeriod maps raw input to a period. Unknown values mean yearly.
func ParsePeriod(raw string) Period {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case PeriodMonthly, PeriodWeekly, PeriodDaily:
		return p
	default:
		return PeriodYearly
	}
}

// Parts lists the calendar components that identify a bucket of the period
func (p Period) Parts() []pipeline.DatePart {
	switch p {
	case PeriodMonthly:
		return []pipeline.DatePart{pipeline.PartYear, pipeline.PartMonth}
	case PeriodWeekly:
		return []pipeline.DatePart{pipeline.PartYear, pipeline.PartMonth, pipeline.PartISOWeek}
	case PeriodDaily:
		return []pipeline.DatePart{pipeline.PartYear, pipeline.PartMonth, pipeline.PartISOWeek, pipeline.PartDay}
	default:
		return []pipeline.DatePart{pipeline.PartYear}
	}
}

// Tx is the set of writes available inside an order transaction
type Tx interface {
	// FindProductForUpdate rereads a non-deleted product and holds it until the transaction ends
	FindProductForUpdate(ctx context.Context, id string) (*productdomain.Product, error)
	// DecrementStock subtracts quantity only when at least quantity units remain,
	// returning ErrInsufficientStock otherwise
	DecrementStock(ctx context.Context, productID string, quantity int) error
	InsertOrder(ctx context.Context, order *SalesOrder) error
}

// OrderRepository defines the contract for sales order data access
type OrderRepository interface {
	// WithinTransaction commits only when fn returns nil; every other exit rolls back
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// SalesReport runs a reporting pipeline over the orders collection
	SalesReport(ctx context.Context, stages []pipeline.Stage) ([]SalesBucket, error)
}
