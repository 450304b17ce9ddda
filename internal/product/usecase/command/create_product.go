package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/cache"
	"github.com/tair/gadget-inventory/pkg/logger"
	"github.com/tair/gadget-inventory/pkg/validation"
)

// CreateProductCommand represents the command to create a new product
type CreateProductCommand struct {
	Caller auth.Caller

	Name string
	// Slug is optional; when empty one is derived from Name
	Slug            string
	Price           float64
	Quantity        int
	IsAvailable     *bool
	ReleaseDate     *time.Time
	Brand           string
	Model           string
	Category        string
	OperatingSystem string
	Connectivity    string
	PowerSource     string
	Features        domain.Features
	Dimension       domain.Dimension
}

// CreateProductHandler handles product creation command
type CreateProductHandler struct {
	repo     domain.ProductRepository
	cache    *cache.Cache
	validate *validator.Validate
	now      func() time.Time
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(repo domain.ProductRepository, c *cache.Cache, v *validator.Validate) *CreateProductHandler {
	return &CreateProductHandler{
		repo:     repo,
		cache:    c,
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the create product command
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	// Resolve a unique slug
	slug, err := h.resolveSlug(ctx, cmd)
	if err != nil {
		return nil, err
	}

	available := true
	if cmd.IsAvailable != nil {
		available = *cmd.IsAvailable
	}

	now := h.now()
	product := &domain.Product{
		ID:              uuid.NewString(),
		UserID:          cmd.Caller.ID,
		Name:            strings.TrimSpace(cmd.Name),
		Slug:            slug,
		Price:           cmd.Price,
		Quantity:        cmd.Quantity,
		IsAvailable:     available,
		ReleaseDate:     cmd.ReleaseDate,
		Brand:           cmd.Brand,
		Model:           cmd.Model,
		Category:        cmd.Category,
		OperatingSystem: cmd.OperatingSystem,
		Connectivity:    cmd.Connectivity,
		PowerSource:     cmd.PowerSource,
		Features:        cmd.Features,
		Dimension:       cmd.Dimension,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Validation
	if err := h.validate.Struct(product); err != nil {
		return nil, apperror.Wrap(apperror.KindBadRequest, err, validation.Describe(err))
	}

	// Save product
	if err := h.repo.Create(ctx, product); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			return nil, apperror.Conflict("Product with slug %q already exists", slug)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if err := h.cache.Invalidate(ctx, domain.CachePattern); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to invalidate product cache")
	}

	logger.Info(ctx).
		Str("product_id", product.ID).
		Str("slug", product.Slug).
		Str("user_id", product.UserID).
		Msg("Product created")
	return product, nil
}

func (h *CreateProductHandler) resolveSlug(ctx context.Context, cmd CreateProductCommand) (string, error) {
	// Check if explicit slug already exists
	if slug := strings.TrimSpace(cmd.Slug); slug != "" {
		exists, err := h.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if exists {
			return "", apperror.Conflict("Product with slug %q already exists", slug)
		}
		return slug, nil
	}

	base := BaseSlug(cmd.Name)
	existing, err := h.repo.SlugsWithPrefix(ctx, base)
	if err != nil {
		return "", fmt.Errorf("failed to list slugs: %w", err)
	}
	return NextSlug(base, existing), nil
}
