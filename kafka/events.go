package kafka

import "time"

// SalesOrderCreatedEvent is published after a sales order commits
type SalesOrderCreatedEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OrderID     string    `json:"order_id"`
	ProductID   string    `json:"product_id"`
	SellerID    string    `json:"seller_id"`
	Quantity    int       `json:"quantity"`
	TotalAmount float64   `json:"total_amount"`
	SoldDate    time.Time `json:"sold_date"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeSalesOrderCreated = "sales_order.created"
)

// Kafka topics
const (
	TopicSalesOrders = "sales-orders"
)
