package http

import (
	"time"

	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/internal/product/domain"
	"github.com/tair/gadget-inventory/internal/product/usecase/command"
	"github.com/tair/gadget-inventory/pkg/apperror"
	"github.com/tair/gadget-inventory/pkg/auth"
)

type createProductRequest struct {
	Name            string           `json:"name" validate:"required,notblank"`
	Slug            string           `json:"slug"`
	Price           float64          `json:"price" validate:"gte=0"`
	Quantity        int              `json:"quantity" validate:"gte=0"`
	IsAvailable     *bool            `json:"isAvailable"`
	ReleaseDate     string           `json:"releaseDate"`
	Brand           string           `json:"brand"`
	Model           string           `json:"model"`
	Category        string           `json:"category"`
	OperatingSystem string           `json:"operatingSystem"`
	Connectivity    string           `json:"connectivity"`
	PowerSource     string           `json:"powerSource"`
	Features        domain.Features  `json:"features"`
	Dimension       domain.Dimension `json:"dimension"`
}

func (req createProductRequest) toCommand(caller auth.Caller) (command.CreateProductCommand, error) {
	releaseDate, err := parseReleaseDate(req.ReleaseDate)
	if err != nil {
		return command.CreateProductCommand{}, err
	}

	return command.CreateProductCommand{
		Caller:          caller,
		Name:            req.Name,
		Slug:            req.Slug,
		Price:           req.Price,
		Quantity:        req.Quantity,
		IsAvailable:     req.IsAvailable,
		ReleaseDate:     releaseDate,
		Brand:           req.Brand,
		Model:           req.Model,
		Category:        req.Category,
		OperatingSystem: req.OperatingSystem,
		Connectivity:    req.Connectivity,
		PowerSource:     req.PowerSource,
		Features:        req.Features,
		Dimension:       req.Dimension,
	}, nil
}

type updateProductRequest struct {
	Name            *string           `json:"name" validate:"omitempty,notblank"`
	Slug            *string           `json:"slug" validate:"omitempty,notblank"`
	Price           *float64          `json:"price" validate:"omitempty,gte=0"`
	Quantity        *int              `json:"quantity" validate:"omitempty,gte=0"`
	IsAvailable     *bool             `json:"isAvailable"`
	ReleaseDate     *string           `json:"releaseDate"`
	Brand           *string           `json:"brand"`
	Model           *string           `json:"model"`
	Category        *string           `json:"category"`
	OperatingSystem *string           `json:"operatingSystem"`
	Connectivity    *string           `json:"connectivity"`
	PowerSource     *string           `json:"powerSource"`
	Features        *domain.Features  `json:"features"`
	Dimension       *domain.Dimension `json:"dimension"`
}

func (req updateProductRequest) toPatch() (command.ProductPatch, error) {
	patch := command.ProductPatch{
		Name:            req.Name,
		Slug:            req.Slug,
		Price:           req.Price,
		Quantity:        req.Quantity,
		IsAvailable:     req.IsAvailable,
		Brand:           req.Brand,
		Model:           req.Model,
		Category:        req.Category,
		OperatingSystem: req.OperatingSystem,
		Connectivity:    req.Connectivity,
		PowerSource:     req.PowerSource,
		Features:        req.Features,
		Dimension:       req.Dimension,
	}

	if req.ReleaseDate != nil {
		releaseDate, err := parseReleaseDate(*req.ReleaseDate)
		if err != nil {
			return command.ProductPatch{}, err
		}
		patch.ReleaseDate = releaseDate
	}
	return patch, nil
}

type deleteProductsRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,required"`
}

// parseReleaseDate accepts a bare date or an RFC3339 timestamp. Empty means unset.
func parseReleaseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, _, err := pipeline.ParseDate(raw)
	if err != nil {
		return nil, apperror.BadRequest("releaseDate: %s", err.Error())
	}
	return &t, nil
}
