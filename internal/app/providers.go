// Package app assembles the catalog service from its storage backend and
// infrastructure clients.
package app

import (
	"github.com/google/wire"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	orderhttp "github.com/tair/gadget-inventory/internal/order/delivery/http"
	orderdomain "github.com/tair/gadget-inventory/internal/order/domain"
	orderrepo "github.com/tair/gadget-inventory/internal/order/repository"
	ordercommand "github.com/tair/gadget-inventory/internal/order/usecase/command"
	orderquery "github.com/tair/gadget-inventory/internal/order/usecase/query"
	"github.com/tair/gadget-inventory/internal/product/delivery/events"
	producthttp "github.com/tair/gadget-inventory/internal/product/delivery/http"
	productdomain "github.com/tair/gadget-inventory/internal/product/domain"
	productrepo "github.com/tair/gadget-inventory/internal/product/repository"
	productcommand "github.com/tair/gadget-inventory/internal/product/usecase/command"
	productquery "github.com/tair/gadget-inventory/internal/product/usecase/query"
	"github.com/tair/gadget-inventory/internal/storage/memory"
	"github.com/tair/gadget-inventory/kafka"
	"github.com/tair/gadget-inventory/pkg/cache"
	"github.com/tair/gadget-inventory/pkg/validation"
)

// App bundles the handlers served by the catalog service
type App struct {
	Products    *producthttp.ProductHandler
	Orders      *orderhttp.OrderHandler
	StockEvents *events.StockEventHandler
}

// NewApp creates the application
func NewApp(products *producthttp.ProductHandler, orders *orderhttp.OrderHandler, stockEvents *events.StockEventHandler) *App {
	return &App{Products: products, Orders: orders, StockEvents: stockEvents}
}

// ProvideGormProductRepository provides the traced postgres product repository
func ProvideGormProductRepository(db *gorm.DB) productdomain.ProductRepository {
	return productrepo.NewTracingProductRepository(productrepo.NewGormProductRepository(db), "postgres")
}

// ProvideGormOrderRepository provides the traced postgres order repository
func ProvideGormOrderRepository(db *gorm.DB) orderdomain.OrderRepository {
	return orderrepo.NewTracingOrderRepository(orderrepo.NewGormOrderRepository(db), "postgres")
}

// ProvideMongoProductRepository provides the traced mongo product repository
func ProvideMongoProductRepository(db *mongo.Database) productdomain.ProductRepository {
	return productrepo.NewTracingProductRepository(productrepo.NewMongoProductRepository(db), "mongo")
}

// ProvideMongoOrderRepository provides the traced mongo order repository
func ProvideMongoOrderRepository(db *mongo.Database) orderdomain.OrderRepository {
	return orderrepo.NewTracingOrderRepository(orderrepo.NewMongoOrderRepository(db), "mongo")
}

// ProvideMemoryProductRepository provides the in-process product repository
func ProvideMemoryProductRepository(store *memory.Store) productdomain.ProductRepository {
	return store.Products()
}

// ProvideMemoryOrderRepository provides the in-process order repository
func ProvideMemoryOrderRepository(store *memory.Store) orderdomain.OrderRepository {
	return store.Orders()
}

// ProvideEventPublisher provides the sales event publisher. A nil publisher drops events.
func ProvideEventPublisher(p *kafka.Publisher) ordercommand.EventPublisher {
	return p
}

// ProvideCacheInvalidator provides the cache used by event handlers
func ProvideCacheInvalidator(c *cache.Cache) events.Invalidator {
	return c
}

// ProvideOrderCacheInvalidator provides the cache cleared after each sale
func ProvideOrderCacheInvalidator(c *cache.Cache) ordercommand.CacheInvalidator {
	return c
}

// Wire sets
var GormRepositorySet = wire.NewSet(
	ProvideGormProductRepository,
	ProvideGormOrderRepository,
)

var MongoRepositorySet = wire.NewSet(
	ProvideMongoProductRepository,
	ProvideMongoOrderRepository,
)

var MemoryRepositorySet = wire.NewSet(
	ProvideMemoryProductRepository,
	ProvideMemoryOrderRepository,
)

var ProductCommandSet = wire.NewSet(
	productcommand.NewCreateProductHandler,
	productcommand.NewUpdateProductHandler,
	productcommand.NewDeleteProductHandler,
	productcommand.NewDeleteProductsHandler,
)

var ProductQuerySet = wire.NewSet(
	productquery.NewListProductsHandler,
	productquery.NewGetFilterOptionsHandler,
)

var OrderSet = wire.NewSet(
	ProvideEventPublisher,
	ProvideOrderCacheInvalidator,
	ordercommand.NewCreateOrderHandler,
	orderquery.NewGetSalesReportHandler,
)

var HandlerSet = wire.NewSet(
	validation.New,
	ProvideCacheInvalidator,
	events.NewStockEventHandler,
	producthttp.NewProductHandler,
	orderhttp.NewOrderHandler,
	NewApp,
)
