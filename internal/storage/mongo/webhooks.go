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

type webHookRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	storage.WebHook `bson:",inline"`
}

type webHookStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (s *webHookStore) RegisterWebHook(ctx context.Context, hook *storage.WebHook) (string, error) {
	now := s.now()
	rec := webHookRecord{WebHook: *hook}
	rec.WebHook.ID = ""
	rec.CreatedAt, rec.UpdatedAt = now, now

	res, err := s.coll.InsertOne(ctx, rec)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", model.AlreadyExistsError(fmt.Sprintf("a webhook for URL '%s' already exists", hook.URL))
		}
		return "", model.GenericError("webhook could not be saved", err)
	}
	hook.ID = insertedID(res)
	hook.Timestamps = rec.Timestamps
	return hook.ID, nil
}

func (s *webHookStore) FindWebHooks(ctx context.Context) ([]*storage.WebHook, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, model.GenericError("could not retrieve any webhook", err)
	}
	defer cursor.Close(ctx)

	var recs []webHookRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, model.GenericError("could not retrieve any webhook", err)
	}

	hooks := make([]*storage.WebHook, 0, len(recs))
	for i := range recs {
		h := recs[i].WebHook
		h.ID = recs[i].ID.Hex()
		hooks = append(hooks, &h)
	}
	return hooks, nil
}
