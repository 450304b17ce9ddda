package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/pkg/cache"
)

// GetFilterOptionsHandler reports the distinct facet values of the active catalog
type GetFilterOptionsHandler struct {
	repo  domain.ProductRepository
	cache *cache.Cache
}

// NewGetFilterOptionsHandler creates a new filter options handler
func NewGetFilterOptionsHandler(repo domain.ProductRepository, c *cache.Cache) *GetFilterOptionsHandler {
	return &GetFilterOptionsHandler{repo: repo, cache: c}
}

// Handle executes the filter options query. Nested facets are keyed by their
// flat query name, e.g. features.screenSize becomes screenSize.
func (h *GetFilterOptionsHandler) Handle(ctx context.Context) (domain.FilterOptions, error) {
	var cached domain.FilterOptions
	if h.cache.GetJSON(ctx, domain.CacheKeyFilterOptions, &cached) {
		return cached, nil
	}

	options := make(domain.FilterOptions, len(domain.FacetFields))
	for _, field := range domain.FacetFields {
		values, err := h.repo.Distinct(ctx, field)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s options: %w", field, err)
		}
		if values == nil {
			values = []string{}
		}
		options[flatName(field)] = values
	}

	h.cache.SetJSON(ctx, domain.CacheKeyFilterOptions, options)
	return options, nil
}

func flatName(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}
