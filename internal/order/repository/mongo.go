package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tair/gadget-inventory/internal/order/domain"
	"github.com/tair/gadget-inventory/internal/pipeline"
	"github.com/tair/gadget-inventory/internal/pipeline/mongopipe"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
)

// MongoOrderRepository stores sales orders in MongoDB. Transactions need a
// replica set or sharded cluster.
type MongoOrderRepository struct {
	db       *mongo.Database
	orders   *mongo.Collection
	products *mongo.Collection
}

var _ domain.OrderRepository = (*MongoOrderRepository)(nil)

// NewMongoOrderRepository creates a new mongo order repository
func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		db:       db,
		orders:   db.Collection(domain.OrdersSource),
		products: db.Collection(domain.ProductsSource),
	}
}

// EnsureIndexes creates the report indexes
func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "soldDate", Value: 1}}},
		{Keys: bson.D{{Key: "product", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create sales order indexes: %w", err)
	}
	return nil
}

// WithinTransaction runs fn inside a session transaction. The transaction is
// aborted on every path that does not commit.
func (r *MongoOrderRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	sess, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		committed := false
		defer func() {
			if !committed {
				_ = sess.AbortTransaction(context.WithoutCancel(sc))
			}
		}()

		if err := fn(sc, &mongoTx{orders: r.orders, products: r.products}); err != nil {
			return err
		}
		if err := sess.CommitTransaction(sc); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		committed = true
		return nil
	})
}

// SalesReport runs the pipeline on the server and decodes buckets directly
func (r *MongoOrderRepository) SalesReport(ctx context.Context, stages []pipeline.Stage) ([]domain.SalesBucket, error) {
	p, err := mongopipe.Translate(stages)
	if err != nil {
		return nil, fmt.Errorf("failed to translate sales pipeline: %w", err)
	}

	cursor, err := r.orders.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sales: %w", err)
	}
	defer cursor.Close(ctx)

	buckets := []domain.SalesBucket{}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode sales buckets: %w", err)
	}
	for i := range buckets {
		if buckets[i].Data == nil {
			buckets[i].Data = []domain.SalesOrderView{}
		}
	}
	return buckets, nil
}

type mongoTx struct {
	orders   *mongo.Collection
	products *mongo.Collection
}

func (t *mongoTx) FindProductForUpdate(ctx context.Context, id string) (*productdomain.Product, error) {
	var product productdomain.Product
	err := t.products.FindOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "isDeleted", Value: false}}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, productdomain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

func (t *mongoTx) DecrementStock(ctx context.Context, productID string, quantity int) error {
	filter := bson.D{
		{Key: "_id", Value: productID},
		{Key: "isDeleted", Value: false},
		{Key: "quantity", Value: bson.D{{Key: "$gte", Value: quantity}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "quantity", Value: -quantity}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}

	res, err := t.products.UpdateOne(ctx, filter, update, options.Update())
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func (t *mongoTx) InsertOrder(ctx context.Context, order *domain.SalesOrder) error {
	if _, err := t.orders.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to insert sales order: %w", err)
	}
	return nil
}
