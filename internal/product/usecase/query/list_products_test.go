package query

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/internal/storage/memory"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
)

var (
	alice   = auth.Caller{ID: "alice", Role: auth.RoleUser}
	manager = auth.Caller{ID: "boss", Role: auth.RoleManager}
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seed(t *testing.T) *memory.ProductRepository {
	t.Helper()
	repo := memory.NewStore().Products()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	products := []domain.Product{
		{ID: "p1", UserID: "alice", Name: "Galaxy S24", Slug: "galaxy-s24", Price: 900, Quantity: 5, IsAvailable: true,
			Brand: "Samsung", Category: "phone", ReleaseDate: day(2024, 1, 17), Features: domain.Features{ScreenSize: "6.2"}},
		{ID: "p2", UserID: "alice", Name: "Pixel 8", Slug: "pixel-8", Price: 700, Quantity: 0, IsAvailable: false,
			Brand: "Google", Category: "phone", ReleaseDate: day(2023, 10, 4), Features: domain.Features{ScreenSize: "6.2"}},
		{ID: "p3", UserID: "bob", Name: "Galaxy Tab", Slug: "galaxy-tab", Price: 500, Quantity: 12, IsAvailable: true,
			Brand: "Samsung", Category: "tablet", Features: domain.Features{ScreenSize: "11"}},
		{ID: "p4", UserID: "alice", Name: "Old Phone", Slug: "old-phone", Price: 50, Quantity: 1, IsAvailable: true,
			Brand: "Nokia", Category: "phone", IsDeleted: true},
	}
	for i := range products {
		products[i].CreatedAt = base.Add(time.Duration(i) * time.Hour)
		products[i].UpdatedAt = products[i].CreatedAt
		if err := repo.Create(context.Background(), &products[i]); err != nil {
			t.Fatalf("seed %s: %v", products[i].ID, err)
		}
	}
	return repo
}

func ids(docs []pipeline.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["_id"].(string))
	}
	return out
}

func list(t *testing.T, repo domain.ProductRepository, caller auth.Caller, raw string) *ListProductsResult {
	t.Helper()
	params, err := url.ParseQuery(raw)
	if err != nil {
		t.Fatal(err)
	}
	res, err := NewListProductsHandler(repo, nil).Handle(context.Background(), ListProductsQuery{Params: params, Caller: caller})
	if err != nil {
		t.Fatalf("list %q: %v", raw, err)
	}
	return res
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestListProductsScoping(t *testing.T) {
	repo := seed(t)

	mine := list(t, repo, alice, "sortBy=price&sortOrder=asc")
	if got := ids(mine.Data); !equalIDs(got, []string{"p2", "p1"}) {
		t.Errorf("user sees %v, want [p2 p1]", got)
	}
	if mine.Meta.Total != 2 || mine.Meta.Page != 1 || mine.Meta.Limit != 10 {
		t.Errorf("unexpected meta %+v", mine.Meta)
	}

	all := list(t, repo, manager, "sortBy=price&sortOrder=asc")
	if got := ids(all.Data); !equalIDs(got, []string{"p3", "p2", "p1"}) {
		t.Errorf("manager sees %v, want [p3 p2 p1]", got)
	}
}

func TestListProductsUserCannotWidenScope(t *testing.T) {
	repo := seed(t)
	res := list(t, repo, alice, "user_id=bob")
	if len(res.Data) != 0 {
		t.Errorf("expected caller scope to win, got %v", ids(res.Data))
	}
}

func TestListProductsFilters(t *testing.T) {
	repo := seed(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"boolean coercion", "isAvailable=false", []string{"p2"}},
		{"equality", "brand=Samsung", []string{"p3", "p1"}},
		{"nested alias", "screenSize=11", []string{"p3"}},
		{"release date day", "releaseDate=2024-01-17", []string{"p1"}},
		{"price range", "minPrice=600&maxPrice=900", []string{"p2", "p1"}},
		{"quantity range ignores NaN bound", "minQuantity=abc&maxQuantity=5", []string{"p2", "p1"}},
		{"search", "search=galaxy", []string{"p3", "p1"}},
		{"search combined with equality", "search=galaxy&category=tablet", []string{"p3"}},
		{"unknown keys ignored", "color=red", []string{"p3", "p2", "p1"}},
		{"deleted flag cannot be overridden", "isDeleted=true", []string{"p3", "p2", "p1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := list(t, repo, manager, tt.query+"&sortBy=price&sortOrder=desc")
			got := ids(res.Data)
			// sortOrder=desc by price: p1(900) p2(700) p3(500)
			want := orderByPriceDesc(tt.want)
			if !equalIDs(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func orderByPriceDesc(ids []string) []string {
	rank := map[string]int{"p1": 0, "p2": 1, "p3": 2}
	out := append([]string(nil), ids...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && rank[out[j]] < rank[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func TestListProductsPaginationAndProjection(t *testing.T) {
	repo := seed(t)

	res := list(t, repo, manager, "page=2&limit=2&sortBy=price&fields=name,-price")
	if res.Meta.Total != 3 || res.Meta.Page != 2 || res.Meta.Limit != 2 {
		t.Fatalf("unexpected meta %+v", res.Meta)
	}
	if len(res.Data) != 1 {
		t.Fatalf("expected one record on page 2, got %d", len(res.Data))
	}

	doc := res.Data[0]
	if doc["_id"] != "p1" || doc["name"] != "Galaxy S24" {
		t.Errorf("unexpected record %v", doc)
	}
	if _, ok := doc["price"]; !ok {
		t.Error("a leading '-' still includes the field")
	}
	if _, ok := doc["brand"]; ok {
		t.Error("unselected fields must be projected out")
	}
}

func TestListProductsStripsDeletedFlag(t *testing.T) {
	repo := seed(t)
	res := list(t, repo, manager, "")
	for _, doc := range res.Data {
		if _, ok := doc["isDeleted"]; ok {
			t.Fatalf("isDeleted leaked in %v", doc)
		}
	}
}

func TestListProductsEmptyPage(t *testing.T) {
	repo := seed(t)
	res := list(t, repo, manager, "brand=Apple&page=3")
	if res.Meta.Total != 0 || res.Meta.Page != 3 || len(res.Data) != 0 {
		t.Errorf("unexpected empty result %+v", res)
	}
}

func TestListProductsRejectsMalformedValues(t *testing.T) {
	repo := seed(t)
	params, _ := url.ParseQuery("isAvailable=maybe")
	_, err := NewListProductsHandler(repo, nil).Handle(context.Background(), ListProductsQuery{Params: params, Caller: manager})
	if apperror.KindOf(err) != apperror.KindBadRequest {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestBuildListPipelineOrder(t *testing.T) {
	params, _ := url.ParseQuery("minPrice=1&maxQuantity=3&fields=name")
	stages, paging, err := BuildListPipeline(params, manager)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"match", "sort", "rangeFilter", "rangeFilter", "paginate", "project"}
	if len(stages) != len(want) {
		t.Fatalf("got %d stages, want %d", len(stages), len(want))
	}
	for i, s := range stages {
		if pipeline.Name(s) != want[i] {
			t.Errorf("stage %d = %s, want %s", i, pipeline.Name(s), want[i])
		}
	}
	if paging.Page != 1 || paging.Limit != 10 {
		t.Errorf("unexpected paging %+v", paging)
	}
}

func TestGetFilterOptions(t *testing.T) {
	repo := seed(t)
	opts, err := NewGetFilterOptionsHandler(repo, nil).Handle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if got := opts["brand"]; !equalIDs(got, []string{"Google", "Samsung"}) {
		t.Errorf("brand options = %v", got)
	}
	if got := opts["screenSize"]; !equalIDs(got, []string{"11", "6.2"}) {
		t.Errorf("screenSize options = %v", got)
	}
	if got, ok := opts["powerSource"]; !ok || len(got) != 0 {
		t.Errorf("expected empty powerSource options, got %v (present=%v)", got, ok)
	}
}
