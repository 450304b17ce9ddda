//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/tair/gadget-inventory/internal/storage/memory"
	"github.com/tair/gadget-inventory/kafka"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/cache"
)

// InitializeGormApp initializes the service on postgres
func InitializeGormApp(db *gorm.DB, c *cache.Cache, publisher *kafka.Publisher, tokens *auth.TokenService, reg prometheus.Registerer) (*App, error) {
	wire.Build(
		GormRepositorySet,
		ProductCommandSet,
		ProductQuerySet,
		OrderSet,
		HandlerSet,
	)
	return nil, nil
}

// InitializeMongoApp initializes the service on mongo
func InitializeMongoApp(db *mongo.Database, c *cache.Cache, publisher *kafka.Publisher, tokens *auth.TokenService, reg prometheus.Registerer) (*App, error) {
	wire.Build(
		MongoRepositorySet,
		ProductCommandSet,
		ProductQuerySet,
		OrderSet,
		HandlerSet,
	)
	return nil, nil
}

// InitializeMemoryApp initializes the service on the in-process store
func InitializeMemoryApp(store *memory.Store, c *cache.Cache, publisher *kafka.Publisher, tokens *auth.TokenService, reg prometheus.Registerer) (*App, error) {
	wire.Build(
		MemoryRepositorySet,
		ProductCommandSet,
		ProductQuerySet,
		OrderSet,
		HandlerSet,
	)
	return nil, nil
}
