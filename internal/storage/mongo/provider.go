// Package mongo implements the storage contracts on top of MongoDB.
package mongo

import (
	"context"
	"time"

	"github.com/booksland/booksland/internal/storage"
	"github.com/booksland/booksland/internal/storage/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type provider struct {
	client      *mongo.Client
	db          *mongo.Database
	collections config.Collections
	now         func() time.Time

	books    *bookStore
	ledger   *ledgerStore
	webhooks *webHookStore
	changes  *changeStream
}

// NewProvider connects to MongoDB, verifies the connection and ensures the
// indexes the stores rely on.
func NewProvider(ctx context.Context, cfg config.Config) (storage.Provider, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.ConnectionString))
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	p := newProvider(client, client.Database(cfg.DatabaseName), cfg.Collections)
	if err := p.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return p, nil
}

func newProvider(client *mongo.Client, db *mongo.Database, colls config.Collections) *provider {
	p := &provider{
		client:      client,
		db:          db,
		collections: colls,
		now:         func() time.Time { return time.Now().UTC() },
	}
	p.books = &bookStore{coll: db.Collection(colls.Books), now: p.clock}
	p.ledger = &ledgerStore{
		orders:     db.Collection(colls.Orders),
		deliveries: db.Collection(colls.Deliveries),
		now:        p.clock,
	}
	p.webhooks = &webHookStore{coll: db.Collection(colls.WebHooks), now: p.clock}
	p.changes = &changeStream{db: db}
	return p
}

func (p *provider) clock() time.Time { return p.now() }

func (p *provider) Books() storage.BookStore { return p.books }
func (p *provider) Ledger() storage.LedgerStore { return p.ledger }
func (p *provider) WebHooks() storage.WebHookStore { return p.webhooks }
func (p *provider) Changes() storage.ChangeStream { return p.changes }

// EnsureIndexes creates necessary indexes
func (p *provider) EnsureIndexes(ctx context.Context) error {
	_, err := p.db.Collection(p.collections.WebHooks).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	// Multikey indexes back the availability counts.
	for _, name := range []string{p.collections.Orders, p.collections.Deliveries} {
		_, err := p.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "bookIds", Value: 1}},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *provider) Close(ctx context.Context) error {
	if p.client != nil {
		return p.client.Disconnect(ctx)
	}
	return nil
}
