package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/internal/pipeline/mongopipe"
	"github.com/tair/gadget-inventory/internal/product/domain"
)

// ProductsCollection is the collection holding products
const ProductsCollection = "products"

// MongoProductRepository stores products in MongoDB
type MongoProductRepository struct {
	Collection *mongo.Collection
}

var _ domain.ProductRepository = (*MongoProductRepository)(nil)

// NewMongoProductRepository creates a new mongo product repository
func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{Collection: db.Collection(ProductsCollection)}
}

// EnsureIndexes creates the partial unique slug index and query indexes
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().
				SetName("slug_active_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "isDeleted", Value: false}}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "isDeleted", Value: 1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}
	return nil
}

func activeFilter(extra ...bson.E) bson.D {
	return append(bson.D{{Key: "isDeleted", Value: false}}, extra...)
}

func (r *MongoProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if _, err := r.Collection.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := r.Collection.FindOne(ctx, activeFilter(bson.E{Key: "_id", Value: id})).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

func (r *MongoProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.Collection.Find(ctx, activeFilter(bson.E{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}

	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) Update(ctx context.Context, product *domain.Product, fields []string) error {
	set := make(bson.D, 0, len(fields))
	doc := product.Document()
	for _, f := range fields {
		if _, ok := domain.LookupField(f); !ok || f == "_id" || f == "createdAt" {
			return fmt.Errorf("unsupported update field %q", f)
		}
		v, _ := doc.Lookup(f)
		set = append(set, bson.E{Key: f, Value: v})
	}
	if len(set) == 0 {
		return nil
	}

	res, err := r.Collection.UpdateOne(ctx,
		activeFilter(bson.E{Key: "_id", Value: product.ID}),
		bson.D{{Key: "$set", Value: set}},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *MongoProductRepository) SoftDelete(ctx context.Context, id string) error {
	n, err := r.SoftDeleteMany(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *MongoProductRepository) SoftDeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.Collection.UpdateMany(ctx,
		activeFilter(bson.E{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}),
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "isDeleted", Value: true},
			{Key: "updatedAt", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.Collection.CountDocuments(ctx, activeFilter(bson.E{Key: "slug", Value: slug}), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

func (r *MongoProductRepository) SlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	filter := activeFilter(bson.E{Key: "slug", Value: primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(prefix),
		Options: "i",
	}})
	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: "slug", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}

	var rows []struct {
		Slug string `bson:"slug"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode slugs: %w", err)
	}
	slugs := make([]string, 0, len(rows))
	for _, row := range rows {
		slugs = append(slugs, row.Slug)
	}
	return slugs, nil
}

func (r *MongoProductRepository) Distinct(ctx context.Context, field string) ([]string, error) {
	raw, err := r.Collection.Distinct(ctx, field, activeFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", field, err)
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values, nil
}

func (r *MongoProductRepository) Aggregate(ctx context.Context, stages []pipeline.Stage) ([]pipeline.Document, error) {
	pl, err := mongopipe.Translate(stages)
	if err != nil {
		return nil, err
	}

	cursor, err := r.Collection.Aggregate(ctx, pl)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate products: %w", err)
	}

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return mongopipe.NormalizeAll(raw), nil
}
