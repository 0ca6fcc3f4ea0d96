package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/booksland/booksland/internal/storage"
	"github.com/booksland/booksland/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type orderRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	storage.Order `bson:",inline"`
}

type deliveryRecord struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	storage.Delivery `bson:",inline"`
}

type ledgerStore struct {
	orders     *mongo.Collection
	deliveries *mongo.Collection
	now        func() time.Time
}

func (s *ledgerStore) PlaceOrder(ctx context.Context, order *storage.Order) (string, error) {
	now := s.now()
	rec := orderRecord{Order: *order}
	rec.Order.ID = ""
	rec.CreatedAt, rec.UpdatedAt = now, now

	res, err := s.orders.InsertOne(ctx, rec)
	if err != nil {
		return "", model.GenericError("order could not be saved", err)
	}
	order.ID = insertedID(res)
	order.Timestamps = rec.Timestamps
	return order.ID, nil
}

func (s *ledgerStore) RecordDelivery(ctx context.Context, delivery *storage.Delivery) (string, error) {
	now := s.now()
	rec := deliveryRecord{Delivery: *delivery}
	rec.Delivery.ID = ""
	rec.CreatedAt, rec.UpdatedAt = now, now

	res, err := s.deliveries.InsertOne(ctx, rec)
	if err != nil {
		return "", model.GenericError("delivery could not be saved", err)
	}
	delivery.ID = insertedID(res)
	delivery.Timestamps = rec.Timestamps
	return delivery.ID, nil
}

// CountOrders counts documents, not occurrences: an order listing the same
// book twice counts once.
func (s *ledgerStore) CountOrders(ctx context.Context, bookID string) (int64, error) {
	n, err := s.orders.CountDocuments(ctx, bson.M{"bookIds": bookID})
	if err != nil {
		return 0, model.GenericError(fmt.Sprintf("could not retrieve any order for book with id %s", bookID), err)
	}
	return n, nil
}

func (s *ledgerStore) CountDeliveries(ctx context.Context, bookID string) (int64, error) {
	n, err := s.deliveries.CountDocuments(ctx, bson.M{"bookIds": bookID})
	if err != nil {
		return 0, model.GenericError(fmt.Sprintf("could not retrieve any delivery for book with id %s", bookID), err)
	}
	return n, nil
}
