package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/cache"
	"github.com/tair/gadget-inventory/pkg/logger"
	"github.com/tair/gadget-inventory/pkg/validation"
)

// ProductPatch holds the fields of a partial update. Nil fields are left
// unchanged. Features and Dimension merge per attribute: only non-empty and
// non-zero values overwrite.
type ProductPatch struct {
	Name            *string
	Slug            *string
	Price           *float64
	Quantity        *int
	IsAvailable     *bool
	ReleaseDate     *time.Time
	Brand           *string
	Model           *string
	Category        *string
	OperatingSystem *string
	Connectivity    *string
	PowerSource     *string
	Features        *domain.Features
	Dimension       *domain.Dimension
}

// UpdateProductCommand represents the command to update a product
type UpdateProductCommand struct {
	ID     string
	Caller auth.Caller
	Patch  ProductPatch
}

// UpdateProductHandler handles product update command
type UpdateProductHandler struct {
	repo     domain.ProductRepository
	cache    *cache.Cache
	validate *validator.Validate
	now      func() time.Time
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(repo domain.ProductRepository, c *cache.Cache, v *validator.Validate) *UpdateProductHandler {
	return &UpdateProductHandler{
		repo:     repo,
		cache:    c,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the update product command
func (h *UpdateProductHandler) Handle(ctx context.Context, cmd UpdateProductCommand) (*domain.Product, error) {
	// Load and authorize
	product, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, apperror.NotFound("Product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	if !cmd.Caller.IsElevated() && !product.IsOwnedBy(cmd.Caller.ID) {
		return nil, apperror.Forbidden("You are not allowed to update this product")
	}

	oldSlug := product.Slug
	fields := applyPatch(product, cmd.Patch)

	// Check if the new slug is free
	if product.Slug != oldSlug {
		exists, err := h.repo.SlugExists(ctx, product.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if exists {
			return nil, apperror.Conflict("Product with slug %q already exists", product.Slug)
		}
	}

	// Validation
	product.UpdatedAt = h.now()
	fields = append(fields, "updatedAt")
	if err := h.validate.Struct(product); err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, err, validation.Describe(err))
	}

	// Persist only the patched fields
	if err := h.repo.Update(ctx, product, fields); err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			return nil, apperror.NotFound("Product not found")
		case errors.Is(err, domain.ErrSlugTaken):
			return nil, apperror.Conflict("Product with slug %q already exists", product.Slug)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if err := h.cache.Invalidate(ctx, domain.CachePattern); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to invalidate product cache")
	}

	updated, err := h.repo.FindByID(ctx, cmd.ID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, apperror.NotFound("Product not found")
		}
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}

	logger.Info(ctx).
		Str("product_id", updated.ID).
		Str("user_id", cmd.Caller.ID).
		Strs("fields", fields).
		Msg("Product updated")
	return updated, nil
}

// applyPatch applies patch to p and returns the field paths it changed
func applyPatch(p *domain.Product, patch ProductPatch) []string {
	var fields []string
	set := func(path string) { fields = append(fields, path) }

	if setString(&p.Name, patch.Name) {
		set("name")
	}
	if patch.Slug != nil {
		if s := strings.TrimSpace(*patch.Slug); s != "" {
			p.Slug = s
			set("slug")
		}
	}
	if patch.Price != nil {
		p.Price = *patch.Price
		set("price")
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
		set("quantity")
	}
	if patch.IsAvailable != nil {
		p.IsAvailable = *patch.IsAvailable
		set("isAvailable")
	}
	if patch.ReleaseDate != nil {
		d := *patch.ReleaseDate
		p.ReleaseDate = &d
		set("releaseDate")
	}
	for path, pair := range map[string]struct {
		dst *string
		v   *string
	}{
		"brand":           {&p.Brand, patch.Brand},
		"model":           {&p.Model, patch.Model},
		"category":        {&p.Category, patch.Category},
		"operatingSystem": {&p.OperatingSystem, patch.OperatingSystem},
		"connectivity":    {&p.Connectivity, patch.Connectivity},
		"powerSource":     {&p.PowerSource, patch.PowerSource},
	} {
		if setString(pair.dst, pair.v) {
			set(path)
		}
	}

	// Nested attributes merge one by one
	if f := patch.Features; f != nil {
		if mergeString(&p.Features.CameraResolution, f.CameraResolution) {
			set("features.cameraResolution")
		}
		if mergeString(&p.Features.StorageCapacity, f.StorageCapacity) {
			set("features.storageCapacity")
		}
		if mergeString(&p.Features.ScreenSize, f.ScreenSize) {
			set("features.screenSize")
		}
	}
	if d := patch.Dimension; d != nil {
		if mergeFloat(&p.Dimension.Height, d.Height) {
			set("dimension.height")
		}
		if mergeFloat(&p.Dimension.Width, d.Width) {
			set("dimension.width")
		}
		if mergeFloat(&p.Dimension.Depth, d.Depth) {
			set("dimension.depth")
		}
	}
	sort.Strings(fields)
	return fields
}

func setString(dst *string, v *string) bool {
	if v == nil {
		return false
	}
	*dst = *v
	return true
}

func mergeString(dst *string, v string) bool {
	if v == "" {
		return false
	}
	*dst = v
	return true
}

func mergeFloat(dst *float64, v float64) bool {
	if v == 0 {
		return false
	}
	*dst = v
	return true
}
