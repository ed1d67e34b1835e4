package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DanielPopoola/atelier-storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/singleflight"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// productDocument is the catalog's storage shape. Prices are in the base currency.
type productDocument struct {
	ID          string   `bson:"_id"`
	Name        string   `bson:"name"`
	Slug        string   `bson:"slug"`
	Price       float64  `bson:"price"`
	SaleEnabled bool     `bson:"saleEnabled"`
	SalePrice   float64  `bson:"salePrice"`
	Stock       int      `bson:"stock"`
	Images      []string `bson:"images"`
	IsActive    bool     `bson:"isActive"`
	IsDeleted   bool     `bson:"isDeleted"`
}

func (d productDocument) toDomain() *domain.Product {
	p := &domain.Product{
		ID:            d.ID,
		Name:          d.Name,
		Slug:          d.Slug,
		Price:         decimal.NewFromFloat(d.Price),
		StockQuantity: d.Stock,
		Images:        d.Images,
	}
	if d.SaleEnabled && d.SalePrice > 0 && d.SalePrice < d.Price {
		sale := decimal.NewFromFloat(d.SalePrice)
		p.SalePrice = &sale
	}
	return p
}

// MongoCatalog reads product snapshots. Concurrent lookups of one product
// share a single query.
type MongoCatalog struct {
	collection *mongo.Collection
	sfg        singleflight.Group
	logger     *slog.Logger
}

func NewMongoCatalog(db *mongo.Database, logger *slog.Logger) *MongoCatalog {
	return &MongoCatalog{
		collection: db.Collection("products"),
		logger:     logger,
	}
}

func (c *MongoCatalog) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	v, err, shared := c.sfg.Do(id, func() (interface{}, error) {
		var doc productDocument
		filter := bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}}
		err := c.collection.FindOne(ctx, filter).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, domain.NewNotFoundError("product", id)
			}
			return nil, fmt.Errorf("failed to get product: %w", err)
		}
		if !doc.IsActive {
			return nil, domain.NewNotFoundError("product", id)
		}
		return doc.toDomain(), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("product lookup shared", "product_id", id)
	}

	// callers may mutate the snapshot; hand each its own copy
	p := *v.(*domain.Product)
	p.Images = append([]string(nil), p.Images...)
	return &p, nil
}
