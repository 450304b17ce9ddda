package domain

import (
	"fmt"

	"github.com/tair/gadget-inventory/internal/pipeline"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
)

// RecordResolver returns the stored records behind the ids carried in grouped
// report documents
type RecordResolver struct {
	Order   func(id string) (*SalesOrder, bool)
	Product func(id string) (*productdomain.Product, bool)
}

// BucketFromDocument converts a Group output document into a typed bucket.
// Each grouped entry is replaced by the stored order and its joined product.
func BucketFromDocument(doc pipeline.Document, resolve RecordResolver) (SalesBucket, error) {
	b := SalesBucket{
		Year:          int(number(doc["year"])),
		Month:         int(number(doc["month"])),
		Week:          int(number(doc["week"])),
		Day:           int(number(doc["day"])),
		TotalCount:    int64(number(doc["totalCount"])),
		TotalQuantity: int64(number(doc["totalQuantity"])),
		TotalAmount:   number(doc["totalAmount"]),
		Data:          []SalesOrderView{},
	}

	data, err := pipeline.Documents(doc["data"])
	if err != nil {
		return b, fmt.Errorf("failed to decode sales bucket: %w", err)
	}
	for _, d := range data {
		id, _ := d["_id"].(string)
		o, ok := resolve.Order(id)
		if !ok {
			return b, fmt.Errorf("failed to decode sales bucket: unknown order %q", id)
		}
		view := SalesOrderView{SalesOrder: *o}
		if joined, ok := d["productDetails"].(pipeline.Document); ok {
			if pid, _ := joined["_id"].(string); pid != "" {
				if p, ok := resolve.Product(pid); ok {
					cp := *p
					view.ProductDetails = &cp
				}
			}
		}
		b.Data = append(b.Data, view)
	}
	return b, nil
}

func number(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
