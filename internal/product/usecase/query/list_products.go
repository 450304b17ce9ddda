package query

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/cache"
	"github.com/tair/gadget-inventory/pkg/logger"
)

// reservedParams control the listing itself and never become equality filters
var reservedParams = map[string]bool{
	"page":        true,
	"limit":       true,
	"fields":      true,
	"sortBy":      true,
	"sortOrder":   true,
	"minPrice":    true,
	"maxPrice":    true,
	"minQuantity": true,
	"maxQuantity": true,
	"search":      true,
}

// ListProductsQuery represents the query to list products. Params are the raw
// query string values; only the first value of each key is used.
type ListProductsQuery struct {
	Params url.Values
	Caller auth.Caller
}

// ListMeta describes the returned page
type ListMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// ListProductsResult is one page of products
type ListProductsResult struct {
	Meta ListMeta            `json:"meta"`
	Data []pipeline.Document `json:"data"`
}

// ListProductsHandler handles list products query
type ListProductsHandler struct {
	repo  domain.ProductRepository
	cache *cache.Cache
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(repo domain.ProductRepository, c *cache.Cache) *ListProductsHandler {
	return &ListProductsHandler{repo: repo, cache: c}
}

// Handle executes the list products query
func (h *ListProductsHandler) Handle(ctx context.Context, q ListProductsQuery) (*ListProductsResult, error) {
	stages, paging, err := BuildListPipeline(q.Params, q.Caller)
	if err != nil {
		return nil, err
	}

	key := cache.Key(domain.CacheKeyList, scopeOf(q.Caller), q.Params)
	var cached ListProductsResult
	if h.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	docs, err := h.repo.Aggregate(ctx, stages)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	page, err := pipeline.DecodePage(docs, paging.Page)
	if err != nil {
		return nil, fmt.Errorf("failed to decode product page: %w", err)
	}

	data := make([]pipeline.Document, 0, len(page.Data))
	for _, doc := range page.Data {
		data = append(data, doc.Without("isDeleted"))
	}

	result := &ListProductsResult{
		Meta: ListMeta{Page: page.Page, Limit: paging.Limit, Total: page.Total},
		Data: data,
	}
	h.cache.SetJSON(ctx, key, result)

	logger.Debug(ctx).
		Int("page", result.Meta.Page).
		Int64("total", result.Meta.Total).
		Int("returned", len(data)).
		Msg("Products listed")
	return result, nil
}

// BuildListPipeline turns listing parameters into the stage list
// Match, Sort, RangeFilter(price), RangeFilter(quantity), Paginate, Project.
// Range filters without a valid bound are left out.
func BuildListPipeline(params url.Values, caller auth.Caller) ([]pipeline.Stage, pipeline.Paginate, error) {
	filters, err := buildFilters(params, caller)
	if err != nil {
		return nil, pipeline.Paginate{}, err
	}

	stages := []pipeline.Stage{
		pipeline.MakeMatch(filters, strings.TrimSpace(params.Get("search")), domain.SearchableFields),
		pipeline.MakeSort(params.Get("sortBy"), params.Get("sortOrder"), domain.SortableFields),
	}

	ranges := []pipeline.RangeFilter{
		pipeline.MakeRangeFilter("price", pipeline.ParseBound(params.Get("maxPrice")), pipeline.ParseBound(params.Get("minPrice"))),
		pipeline.MakeRangeFilter("quantity", pipeline.ParseBound(params.Get("maxQuantity")), pipeline.ParseBound(params.Get("minQuantity"))),
	}
	for _, r := range ranges {
		if r.HasBounds() {
			stages = append(stages, r)
		}
	}

	paging := pipeline.MakePagination(params.Get("page"), params.Get("limit"))
	stages = append(stages, paging, pipeline.MakeProject(params.Get("fields"), true))
	return stages, paging, nil
}

func buildFilters(params url.Values, caller auth.Caller) (map[string]any, error) {
	filters := map[string]any{}

	for key := range params {
		if reservedParams[key] {
			continue
		}
		raw := params.Get(key)

		path := key
		if alias, ok := domain.NestedAliases[key]; ok {
			path = alias
		}
		field, ok := domain.LookupField(path)
		if !ok {
			continue
		}

		value, err := coerce(field, raw)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindBadRequest, err, fmt.Sprintf("Invalid value for %s", key))
		}
		filters[field.Path] = value
	}

	filters["isDeleted"] = false
	if !caller.IsElevated() {
		filters["user_id"] = caller.ID
	}
	return filters, nil
}

func coerce(field domain.Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch field.Kind {
	case domain.KindBool:
		return strconv.ParseBool(raw)
	case domain.KindNumber:
		return strconv.ParseFloat(raw, 64)
	case domain.KindDate:
		t, dateOnly, err := pipeline.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		if dateOnly {
			return pipeline.DayRange(t), nil
		}
		return t, nil
	default:
		return raw, nil
	}
}

func scopeOf(caller auth.Caller) string {
	if caller.IsElevated() {
		return "all"
	}
	return "user:" + caller.ID
}
