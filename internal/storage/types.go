// Package storage defines the persistence contracts for the catalog, the stock
// ledger (orders and deliveries), webhook registrations and change streams.
package storage

import (
	"context"
	"errors"
	"time"
)

// Condition is the physical condition of a catalog book.
type Condition string

const (
	ConditionUsed    Condition = "used"
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like new"
	ConditionGood    Condition = "good"
)

// AllConditions lists accepted conditions in display order.
var AllConditions = []Condition{ConditionUsed, ConditionNew, ConditionLikeNew, ConditionGood}

// IsValid reports whether c is one of AllConditions.
func (c Condition) IsValid() bool {
	for _, v := range AllConditions {
		if c == v {
			return true
		}
	}
	return false
}

// Timestamps are set by the store on insert.
type Timestamps struct {
	CreatedAt time.Time `json:"-" bson:"createdAt"`
	UpdatedAt time.Time `json:"-" bson:"updatedAt"`
}

type Book struct {
	ID         string    `json:"id" bson:"-"`
	Title      string    `json:"title" bson:"title"`
	ISBN       string    `json:"isbn" bson:"isbn"`
	Conditions Condition `json:"conditions" bson:"conditions"`
	Authors    []string  `json:"authors" bson:"authors"`
	Categories []string  `json:"categories" bson:"categories"`
	Timestamps `bson:",inline"`
}

// Order decreases stock by one for every entry in BookIDs.
type Order struct {
	ID         string   `json:"id,omitempty" bson:"-"`
	Purchaser  string   `json:"purchaser" bson:"purchaser"`
	BookIDs    []string `json:"bookIds" bson:"bookIds"`
	Timestamps `bson:",inline"`
}

// Delivery increases stock by one for every entry in BookIDs.
type Delivery struct {
	ID         string   `json:"id,omitempty" bson:"-"`
	Supplier   string   `json:"supplier" bson:"supplier"`
	BookIDs    []string `json:"bookIds" bson:"bookIds"`
	Timestamps `bson:",inline"`
}

// WebHook is a subscriber endpoint, unique by URL.
type WebHook struct {
	ID         string `json:"id,omitempty" bson:"-"`
	URL        string `json:"url" bson:"url"`
	Timestamps `bson:",inline"`
}

// OperationType is the kind of mutation reported by a change stream.
type OperationType string

const (
	OperationInsert  OperationType = "insert"
	OperationReplace OperationType = "replace"
	OperationUpdate  OperationType = "update"
	OperationDelete  OperationType = "delete"
)

// LineItems is the part of an order or delivery document the notifier reads.
type LineItems struct {
	BookIDs []string `bson:"bookIds"`
}

// ChangeEvent is one mutation observed on a watched collection.
type ChangeEvent struct {
	OperationType OperationType
	Collection    string
	DocumentID    string
	FullDocument  *LineItems
	ResumeToken   string

	// Err reports a stream problem instead of a mutation. It wraps
	// ErrUndecodableChange for a skipped event; any other error is the cause
	// of the stream ending and is the last value before the channel closes.
	Err error
}

// ErrUndecodableChange marks a change the stream could not decode.
var ErrUndecodableChange = errors.New("undecodable change event")

// BookIDs returns the affected book ids, or nil unless the event is an insert
// that carries them.
func (e ChangeEvent) BookIDs() []string {
	if e.OperationType != OperationInsert || e.FullDocument == nil {
		return nil
	}
	return e.FullDocument.BookIDs
}

type BookStore interface {
	// FindBook returns a not_found error when no book has the given id.
	FindBook(ctx context.Context, id string) (*Book, error)
	FindBooks(ctx context.Context) ([]*Book, error)
	// SaveBook inserts the book and returns the generated id.
	SaveBook(ctx context.Context, book *Book) (string, error)
}

type LedgerStore interface {
	PlaceOrder(ctx context.Context, order *Order) (string, error)
	RecordDelivery(ctx context.Context, delivery *Delivery) (string, error)
	// CountOrders counts orders whose bookIds contain bookID. Zero matches is a
	// valid count, not an error.
	CountOrders(ctx context.Context, bookID string) (int64, error)
	// CountDeliveries counts deliveries whose bookIds contain bookID.
	CountDeliveries(ctx context.Context, bookID string) (int64, error)
}

type WebHookStore interface {
	// RegisterWebHook returns an already_exists error for a duplicate URL.
	RegisterWebHook(ctx context.Context, hook *WebHook) (string, error)
	FindWebHooks(ctx context.Context) ([]*WebHook, error)
}

// ChangeStream opens a change feed on one collection. The returned channel is
// closed when ctx is done or the underlying stream ends; a stream that fails
// sends one event carrying Err first.
type ChangeStream interface {
	Watch(ctx context.Context, collection string) (<-chan ChangeEvent, error)
}

// Provider bundles the stores backed by a single connection.
type Provider interface {
	Books() BookStore
	Ledger() LedgerStore
	WebHooks() WebHookStore
	Changes() ChangeStream
	Close(ctx context.Context) error
}
