package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/cache"
	"github.com/tair/gadget-inventory/pkg/logger"
)

// DeleteProductCommand represents the command to soft-delete a product
type DeleteProductCommand struct {
	ID     string
	Caller auth.Caller
}

// DeleteProductHandler handles product deletion command
type DeleteProductHandler struct {
	repo  domain.ProductRepository
	cache *cache.Cache
}

// NewDeleteProductHandler creates a new delete product handler
func NewDeleteProductHandler(repo domain.ProductRepository, c *cache.Cache) *DeleteProductHandler {
	return &DeleteProductHandler{repo: repo, cache: c}
}

// Handle executes the delete product command
func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) error {
	product, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return apperror.NotFound("Product not found")
		}
		return fmt.Errorf("failed to load product: %w", err)
	}

	if !cmd.Caller.IsElevated() && !product.IsOwnedBy(cmd.Caller.ID) {
		return apperror.Forbidden("You are not allowed to delete this product")
	}

	// Soft delete
	if err := h.repo.SoftDelete(ctx, cmd.ID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return apperror.NotFound("Product not found")
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := h.cache.Invalidate(ctx, domain.CachePattern); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to invalidate product cache")
	}

	logger.Info(ctx).Str("product_id", cmd.ID).Str("user_id", cmd.Caller.ID).Msg("Product deleted")
	return nil
}

// DeleteProductsCommand represents the command to soft-delete several products at once
type DeleteProductsCommand struct {
	IDs    []string
	Caller auth.Caller
}

// DeleteProductsHandler handles bulk deletion. The batch is validated as a
// whole before anything is written.
type DeleteProductsHandler struct {
	repo  domain.ProductRepository
	cache *cache.Cache
}

// NewDeleteProductsHandler creates a new bulk delete handler
func NewDeleteProductsHandler(repo domain.ProductRepository, c *cache.Cache) *DeleteProductsHandler {
	return &DeleteProductsHandler{repo: repo, cache: c}
}

// Handle executes the bulk delete command and returns the number of deleted products
func (h *DeleteProductsHandler) Handle(ctx context.Context, cmd DeleteProductsCommand) (int64, error) {
	ids := dedupe(cmd.IDs)
	if len(ids) == 0 {
		return 0, apperror.BadRequest("productIds must contain at least one id")
	}

	found, err := h.repo.FindByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[string]domain.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	// Every id must exist and belong to the caller
	var invalid []string
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || (!cmd.Caller.IsElevated() && !p.IsOwnedBy(cmd.Caller.ID)) {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return 0, apperror.Unprocessable("Invalid or unauthorized product ids: %s", strings.Join(invalid, ", "))
	}

	// Single write for the whole batch
	n, err := h.repo.SoftDeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}

	if err := h.cache.Invalidate(ctx, domain.CachePattern); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to invalidate product cache")
	}

	logger.Info(ctx).Int64("deleted", n).Str("user_id", cmd.Caller.ID).Msg("Products deleted")
	return n, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
