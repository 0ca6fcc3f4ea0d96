package mongo

import (
	"context"
	"fmt"

	"github.com/booksland/booksland/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type changeStream struct {
	db *mongo.Database
}

type rawChangeEvent struct {
	OperationType string             `bson:"operationType"`
	FullDocument  *storage.LineItems `bson:"fullDocument"`
	DocumentKey   struct {
		ID interface{} `bson:"_id"`
	} `bson:"documentKey"`
}

// Watch streams insert, replace and delete events of one collection. The
// channel is unbuffered and closed when the stream ends or ctx is done.
func (c *changeStream) Watch(ctx context.Context, collection string) (<-chan storage.ChangeEvent, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "replace", "delete"}}}},
		}}},
	}

	stream, err := c.db.Collection(collection).Watch(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	out := make(chan storage.ChangeEvent)
	go pump(ctx, collection, stream, out)
	return out, nil
}

// cursor is the part of *mongo.ChangeStream pump reads.
type cursor interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	ResumeToken() bson.Raw
	Err() error
	Close(ctx context.Context) error
}

// pump copies the cursor into out until it ends, then reports why it ended
// unless ctx was canceled.
func pump(ctx context.Context, collection string, stream cursor, out chan<- storage.ChangeEvent) {
	defer close(out)
	defer stream.Close(context.Background())

	send := func(evt storage.ChangeEvent) bool {
		select {
		case out <- evt:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for stream.Next(ctx) {
		var raw rawChangeEvent
		if err := stream.Decode(&raw); err != nil {
			if !send(storage.ChangeEvent{
				Collection: collection,
				Err:        fmt.Errorf("%w: %v", storage.ErrUndecodableChange, err),
			}) {
				return
			}
			continue
		}

		evt := decodeChange(collection, raw)
		if token, ok := stream.ResumeToken().Lookup("_data").StringValueOK(); ok {
			evt.ResumeToken = token
		}
		if !send(evt) {
			return
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		send(storage.ChangeEvent{Collection: collection, Err: fmt.Errorf("change stream on %s failed: %w", collection, err)})
	}
}

func decodeChange(collection string, raw rawChangeEvent) storage.ChangeEvent {
	evt := storage.ChangeEvent{
		OperationType: storage.OperationType(raw.OperationType),
		Collection:    collection,
		DocumentID:    documentID(raw.DocumentKey.ID),
	}
	if evt.OperationType != storage.OperationDelete {
		evt.FullDocument = raw.FullDocument
	}
	return evt
}

func documentID(v interface{}) string {
	switch id := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
