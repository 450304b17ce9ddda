package query

import (
	"context"
	"testing"
	"time"

	"github.com/tair/gadget-inventory/internal/order/domain"
	"github.com/tair/gadget-inventory/internal/order/usecase/command"
	"github.com/tair/gadget-inventory/internal/pipeline"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/internal/storage/memory"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/validation"
)

func seedSales(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	for _, p := range []productdomain.Product{
		{ID: "p1", UserID: "u", Name: "Phone", Slug: "phone", Price: 100, Quantity: 100},
		{ID: "p2", UserID: "u", Name: "Tablet", Slug: "tablet", Price: 250, Quantity: 100},
	} {
		p := p
		if err := store.Products().Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}

	create := command.NewCreateOrderHandler(store.Orders(), store.Products(), nil, nil, validation.New())
	sales := []struct {
		product  string
		quantity int
		sold     time.Time
	}{
		{"p1", 1, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)},
		{"p2", 2, time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)},
		{"p1", 3, time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)},
		{"p1", 1, time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)},
	}
	for _, s := range sales {
		sold := s.sold
		_, err := create.Handle(ctx, command.CreateOrderCommand{
			Caller:        auth.Caller{ID: "seller", Role: auth.RoleUser},
			ProductID:     s.product,
			Quantity:      s.quantity,
			BuyerName:     "Buyer",
			ContactNumber: "555",
			SoldDate:      &sold,
		})
		if err != nil {
			t.Fatalf("seed sale: %v", err)
		}
	}
	return store
}

func TestSalesReportMonthly(t *testing.T) {
	store := seedSales(t)
	h := NewGetSalesReportHandler(store.Orders())

	report, err := h.Handle(context.Background(), GetSalesReportQuery{Period: "monthly"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Period != domain.PeriodMonthly {
		t.Errorf("period = %s", report.Period)
	}

	want := []struct {
		year, month int
		count, qty  int64
		amount      float64
	}{
		{2023, 12, 1, 1, 100},
		{2024, 1, 2, 3, 600},
		{2024, 2, 1, 3, 300},
	}
	if len(report.Buckets) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(report.Buckets), len(want))
	}
	for i, w := range want {
		b := report.Buckets[i]
		if b.Year != w.year || b.Month != w.month {
			t.Errorf("bucket %d = %d-%d, want %d-%d", i, b.Year, b.Month, w.year, w.month)
		}
		if b.TotalCount != w.count || b.TotalQuantity != w.qty || b.TotalAmount != w.amount {
			t.Errorf("bucket %d totals = %d/%d/%v, want %d/%d/%v", i, b.TotalCount, b.TotalQuantity, b.TotalAmount, w.count, w.qty, w.amount)
		}
		if int64(len(b.Data)) != w.count {
			t.Errorf("bucket %d has %d orders", i, len(b.Data))
		}
		for _, o := range b.Data {
			if o.ProductDetails == nil || o.ProductDetails.ID != o.ProductID {
				t.Errorf("order %s missing product details", o.ID)
			}
		}
	}
}

func TestSalesReportUnknownPeriodIsYearly(t *testing.T) {
	store := seedSales(t)
	report, err := NewGetSalesReportHandler(store.Orders()).Handle(context.Background(), GetSalesReportQuery{Period: "fortnightly"})
	if err != nil {
		t.Fatal(err)
	}
	if report.Period != domain.PeriodYearly || len(report.Buckets) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Buckets[0].Year != 2023 || report.Buckets[1].Year != 2024 || report.Buckets[1].Month != 0 {
		t.Errorf("unexpected yearly buckets %+v", report.Buckets)
	}
}

func TestSalesReportDateWindow(t *testing.T) {
	store := seedSales(t)
	h := NewGetSalesReportHandler(store.Orders())

	report, err := h.Handle(context.Background(), GetSalesReportQuery{
		Period:    "daily",
		StartDate: "2024-01-05",
		EndDate:   "2024-01-20",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2 (end date is inclusive)", len(report.Buckets))
	}
	if b := report.Buckets[1]; b.Day != 20 || b.Week != 3 {
		t.Errorf("unexpected daily bucket %+v", b)
	}
}

func TestSalesReportRejectsBadDates(t *testing.T) {
	h := NewGetSalesReportHandler(memory.NewStore().Orders())
	tests := []GetSalesReportQuery{
		{StartDate: "yesterday"},
		{EndDate: "2024-13-01"},
		{StartDate: "2024-02-01", EndDate: "2024-01-01"},
	}
	for _, q := range tests {
		if _, err := h.Handle(context.Background(), q); apperror.KindOf(err) != apperror.KindBadRequest {
			t.Errorf("%+v: expected bad request, got %v", q, err)
		}
	}
}

func TestSalesReportEmpty(t *testing.T) {
	report, err := NewGetSalesReportHandler(memory.NewStore().Orders()).Handle(context.Background(), GetSalesReportQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Buckets) != 0 {
		t.Errorf("expected no buckets, got %d", len(report.Buckets))
	}
}

func TestBuildSalesPipeline(t *testing.T) {
	stages := BuildSalesPipeline(domain.PeriodWeekly, pipeline.Between{})
	want := []string{"match", "lookup", "group", "sort"}
	for i, s := range stages {
		if pipeline.Name(s) != want[i] {
			t.Errorf("stage %d = %s, want %s", i, pipeline.Name(s), want[i])
		}
	}

	sort := stages[3].(pipeline.Sort)
	if len(sort.Keys) != 3 || sort.Keys[0].Field != "year" || sort.Keys[2].Field != "week" {
		t.Errorf("unexpected sort keys %+v", sort.Keys)
	}
	if m := stages[0].(pipeline.Match); len(m.Conditions) != 0 {
		t.Errorf("unbounded report must not filter, got %+v", m.Conditions)
	}
}
