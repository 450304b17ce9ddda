package domain

import (
	"context"
	"errors"
	"time"

	"github.com/tair/gadget-inventory/internal/pipeline"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSlugTaken       = errors.New("slug already exists")
)

// Features holds optional device capabilities
type Features struct {
	CameraResolution string `json:"cameraResolution,omitempty" bson:"cameraResolution,omitempty"`
	StorageCapacity  string `json:"storageCapacity,omitempty" bson:"storageCapacity,omitempty"`
	ScreenSize       string `json:"screenSize,omitempty" bson:"screenSize,omitempty"`
}

// Dimension holds physical size
type Dimension struct {
	Height float64 `json:"height,omitempty" bson:"height,omitempty" validate:"gte=0"`
	Width  float64 `json:"width,omitempty" bson:"width,omitempty" validate:"gte=0"`
	Depth  float64 `json:"depth,omitempty" bson:"depth,omitempty" validate:"gte=0"`
}

// Product represents a catalog item owned by a user
type Product struct {
	ID              string     `json:"_id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	UserID          string     `json:"user_id" gorm:"column:user_id;not null;index" bson:"user_id" validate:"required"`
	Name            string     `json:"name" gorm:"not null" bson:"name" validate:"required,notblank"`
	Slug            string     `json:"slug" gorm:"not null;index:idx_products_active_slug,unique,where:is_deleted = false" bson:"slug" validate:"required,notblank"`
	Price           float64    `json:"price" gorm:"not null" bson:"price" validate:"gte=0"`
	Quantity        int        `json:"quantity" gorm:"not null;default:0" bson:"quantity" validate:"gte=0"`
	IsAvailable     bool       `json:"isAvailable" gorm:"not null;default:true" bson:"isAvailable"`
	ReleaseDate     *time.Time `json:"releaseDate,omitempty" bson:"releaseDate,omitempty"`
	Brand           string     `json:"brand,omitempty" gorm:"index" bson:"brand,omitempty"`
	Model           string     `json:"model,omitempty" bson:"model,omitempty"`
	Category        string     `json:"category,omitempty" gorm:"index" bson:"category,omitempty"`
	OperatingSystem string     `json:"operatingSystem,omitempty" bson:"operatingSystem,omitempty"`
	Connectivity    string     `json:"connectivity,omitempty" bson:"connectivity,omitempty"`
	PowerSource     string     `json:"powerSource,omitempty" bson:"powerSource,omitempty"`
	Features        Features   `json:"features" gorm:"embedded;embeddedPrefix:features_" bson:"features"`
	Dimension       Dimension  `json:"dimension" gorm:"embedded;embeddedPrefix:dimension_" bson:"dimension"`
	IsDeleted       bool       `json:"isDeleted" gorm:"not null;default:false;index" bson:"isDeleted"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// IsOwnedBy reports whether userID owns the product
func (p *Product) IsOwnedBy(userID string) bool {
	return p.UserID == userID
}

// Document renders the product as a pipeline document keyed by API field names
func (p *Product) Document() pipeline.Document {
	doc := pipeline.Document{
		"_id":             p.ID,
		"user_id":         p.UserID,
		"name":            p.Name,
		"slug":            p.Slug,
		"price":           p.Price,
		"quantity":        p.Quantity,
		"isAvailable":     p.IsAvailable,
		"brand":           p.Brand,
		"model":           p.Model,
		"category":        p.Category,
		"operatingSystem": p.OperatingSystem,
		"connectivity":    p.Connectivity,
		"powerSource":     p.PowerSource,
		"features": pipeline.Document{
			"cameraResolution": p.Features.CameraResolution,
			"storageCapacity":  p.Features.StorageCapacity,
			"screenSize":       p.Features.ScreenSize,
		},
		"dimension": pipeline.Document{
			"height": p.Dimension.Height,
			"width":  p.Dimension.Width,
			"depth":  p.Dimension.Depth,
		},
		"isDeleted": p.IsDeleted,
		"createdAt": p.CreatedAt,
		"updatedAt": p.UpdatedAt,
	}
	if p.ReleaseDate != nil {
		doc["releaseDate"] = p.ReleaseDate.UTC()
	}
	return doc
}

// CopyFields copies the listed field paths from src. Unknown paths are ignored.
func (p *Product) CopyFields(src *Product, fields []string) {
	for _, f := range fields {
		switch f {
		case "name":
			p.Name = src.Name
		case "slug":
			p.Slug = src.Slug
		case "price":
			p.Price = src.Price
		case "quantity":
			p.Quantity = src.Quantity
		case "isAvailable":
			p.IsAvailable = src.IsAvailable
		case "releaseDate":
			p.ReleaseDate = src.ReleaseDate
		case "brand":
			p.Brand = src.Brand
		case "model":
			p.Model = src.Model
		case "category":
			p.Category = src.Category
		case "operatingSystem":
			p.OperatingSystem = src.OperatingSystem
		case "connectivity":
			p.Connectivity = src.Connectivity
		case "powerSource":
			p.PowerSource = src.PowerSource
		case "features.cameraResolution":
			p.Features.CameraResolution = src.Features.CameraResolution
		case "features.storageCapacity":
			p.Features.StorageCapacity = src.Features.StorageCapacity
		case "features.screenSize":
			p.Features.ScreenSize = src.Features.ScreenSize
		case "dimension.height":
			p.Dimension.Height = src.Dimension.Height
		case "dimension.width":
			p.Dimension.Width = src.Dimension.Width
		case "dimension.depth":
			p.Dimension.Depth = src.Dimension.Depth
		case "updatedAt":
			p.UpdatedAt = src.UpdatedAt
		}
	}
}

// FilterOptions lists the distinct values available for each facet
type FilterOptions map[string][]string

// ProductRepository defines the contract for product data access.
// Lookups by id only see non-deleted products unless stated otherwise.
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	// FindByID returns ErrProductNotFound for missing or soft-deleted products
	FindByID(ctx context.Context, id string) (*Product, error)
	// FindByIDs returns the non-deleted products among ids, in no particular order
	FindByIDs(ctx context.Context, ids []string) ([]Product, error)
	// Update writes only the listed field paths of product. Other columns,
	// quantity included, keep their stored values.
	Update(ctx context.Context, product *Product, fields []string) error
	SoftDelete(ctx context.Context, id string) error
	// SoftDeleteMany marks every id deleted in a single write
	SoftDeleteMany(ctx context.Context, ids []string) (int64, error)
	// SlugExists reports whether a non-deleted product uses slug
	SlugExists(ctx context.Context, slug string) (bool, error)
	// SlugsWithPrefix lists non-deleted slugs starting with prefix, case-insensitively
	SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	// Aggregate runs a pipeline over the products collection
	Aggregate(ctx context.Context, stages []pipeline.Stage) ([]pipeline.Document, error)
	// Distinct lists distinct non-empty values of field among non-deleted products
	Distinct(ctx context.Context, field string) ([]string, error)
}
