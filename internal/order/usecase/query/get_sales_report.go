package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tair/gadget-inventory/internal/order/domain"
	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/logger"
)

// GetSalesReportQuery represents the query to aggregate sales by period.
// Dates are raw request values; empty means unbounded.
type GetSalesReportQuery struct {
	Period    string
	StartDate string
	EndDate   string
}

// SalesReport is the aggregated sales history
type SalesReport struct {
	Period  domain.Period        `json:"period"`
	Buckets []domain.SalesBucket `json:"buckets"`
}

// GetSalesReportHandler handles sales report query
type GetSalesReportHandler struct {
	repo domain.OrderRepository
}

// NewGetSalesReportHandler creates a new sales report handler
func NewGetSalesReportHandler(repo domain.OrderRepository) *GetSalesReportHandler {
	return &GetSalesReportHandler{repo: repo}
}

// Handle executes the sales report query
func (h *GetSalesReportHandler) Handle(ctx context.Context, q GetSalesReportQuery) (*SalesReport, error) {
	period := domain.ParsePeriod(q.Period)

	window, err := soldDateWindow(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}

	buckets, err := h.repo.SalesReport(ctx, BuildSalesPipeline(period, window))
	if err != nil {
		return nil, fmt.Errorf("failed to build sales report: %w", err)
	}

	logger.Debug(ctx).
		Str("period", string(period)).
		Int("buckets", len(buckets)).
		Msg("Sales report built")
	return &SalesReport{Period: period, Buckets: buckets}, nil
}

// BuildSalesPipeline lists the report stages: filter by sold date, join the
// product, group by the period's calendar parts and order buckets chronologically.
func BuildSalesPipeline(period domain.Period, window pipeline.Between) []pipeline.Stage {
	filters := map[string]any{}
	if window.From != nil || window.Until != nil {
		filters["soldDate"] = window
	}

	parts := period.Parts()
	keys := make([]pipeline.SortKey, 0, len(parts))
	for _, p := range parts {
		keys = append(keys, pipeline.SortKey{Field: p.Key()})
	}

	return []pipeline.Stage{
		pipeline.MakeMatch(filters, "", nil),
		pipeline.Lookup{
			From:         domain.ProductsSource,
			LocalField:   "product",
			ForeignField: pipeline.IDField,
			As:           "productDetails",
			Unwind:       true,
		},
		pipeline.Group{
			DateField: "soldDate",
			Parts:     parts,
			CountAs:   "totalCount",
			Sums: []pipeline.Sum{
				{Field: "totalAmount", As: "totalAmount"},
				{Field: "quantity", As: "totalQuantity"},
			},
			PushAs: "data",
		},
		pipeline.Sort{Keys: keys},
	}
}

// soldDateWindow converts the request dates into a half-open interval. A bare
// end date covers that whole day; a timestamp end is inclusive.
func soldDateWindow(startRaw, endRaw string) (pipeline.Between, error) {
	var w pipeline.Between
	var start, end time.Time

	if s := strings.TrimSpace(startRaw); s != "" {
		t, _, err := pipeline.ParseDate(s)
		if err != nil {
			return w, apperror.Wrap(apperror.KindBadRequest, err, "Invalid startDate")
		}
		start = t
		w.From = t
	}

	if s := strings.TrimSpace(endRaw); s != "" {
		t, dateOnly, err := pipeline.ParseDate(s)
		if err != nil {
			return w, apperror.Wrap(apperror.KindBadRequest, err, "Invalid endDate")
		}
		end = t.Add(time.Nanosecond)
		if dateOnly {
			end = pipeline.DayRange(t).Until.(time.Time)
		}
		w.Until = end
	}

	if w.From != nil && w.Until != nil && !start.Before(end) {
		return w, apperror.BadRequest("startDate must not be after endDate")
	}
	return w, nil
}
