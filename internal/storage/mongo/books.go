package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/booksland/booksland/internal/storage"
	"github.com/booksland/booksland/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type bookRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	storage.Book `bson:",inline"`
}

func (r *bookRecord) toBook() *storage.Book {
	b := r.Book
	b.ID = r.ID.Hex()
	return &b
}

type bookStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (s *bookStore) FindBook(ctx context.Context, id string) (*storage.Book, error) {
	notFound := model.NotFoundError(fmt.Sprintf("could not retrieve a book with id '%s'", id))

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound
	}

	var rec bookRecord
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, model.GenericError(fmt.Sprintf("could not retrieve a book with id '%s'", id), err)
	}
	return rec.toBook(), nil
}

func (s *bookStore) FindBooks(ctx context.Context) ([]*storage.Book, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, model.GenericError("could not retrieve any book", err)
	}
	defer cursor.Close(ctx)

	var recs []bookRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, model.GenericError("could not retrieve any book", err)
	}

	books := make([]*storage.Book, 0, len(recs))
	for i := range recs {
		books = append(books, recs[i].toBook())
	}
	return books, nil
}

func (s *bookStore) SaveBook(ctx context.Context, book *storage.Book) (string, error) {
	now := s.now()
	rec := bookRecord{Book: *book}
	rec.Book.ID = ""
	rec.CreatedAt = now
	rec.UpdatedAt = now

	res, err := s.coll.InsertOne(ctx, rec)
	if err != nil {
		return "", model.GenericError("book could not be saved", err)
	}
	id := insertedID(res)
	book.ID = id
	book.Timestamps = rec.Timestamps
	return id, nil
}

func insertedID(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(res.InsertedID)
}
