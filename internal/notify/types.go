// Package notify reconciles orders against deliveries after every ledger
// insert and notifies registered webhooks about books that went out of stock.
package notify

import (
	"context"

	"github.com/booksland/booksland/internal/storage"
)

// StockKind tells which ledger collection a count was taken from.
type StockKind string

const (
	KindDelivery StockKind = "delivery"
	KindOrder    StockKind = "order"
)

// StockCheckResult is the number of ledger records of one kind referencing a book.
type StockCheckResult struct {
	BookID string
	Count  int64
	Kind   StockKind
}

// EventOutOfStock is the payload type of every outbound message.
const EventOutOfStock = "out_of_stock"

type BookRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Payload struct {
	Type string  `json:"type"`
	Book BookRef `json:"book"`
}

// OutboundMessage is one POST to one subscriber about one book.
type OutboundMessage struct {
	URL     string
	Payload Payload
}

// DeliveryOutcome is the result of one POST attempt. Status is set when any
// HTTP response was received; Err is set when none was.
type DeliveryOutcome struct {
	Status int
	URL    string
	BookID string
	Err    error
}

// Report summarizes one notification cycle.
type Report struct {
	Evaluated  []string
	Notifiable []string
	Outcomes   []DeliveryOutcome
}

// LedgerCounter is the part of the ledger store the reader queries.
type LedgerCounter interface {
	CountOrders(ctx context.Context, bookID string) (int64, error)
	CountDeliveries(ctx context.Context, bookID string) (int64, error)
}

// SubscriberDirectory lists the currently registered webhooks.
type SubscriberDirectory interface {
	ListWebHooks(ctx context.Context) ([]*storage.WebHook, error)
}

// Runner runs one notification cycle for a set of affected book ids.
type Runner interface {
	Run(ctx context.Context, bookIDs []string) (Report, error)
}

type webHookDirectory struct {
	store storage.WebHookStore
}

// NewSubscriberDirectory reads subscribers from the webhook store. Every call
// takes a fresh snapshot.
func NewSubscriberDirectory(store storage.WebHookStore) SubscriberDirectory {
	return &webHookDirectory{store: store}
}

func (d *webHookDirectory) ListWebHooks(ctx context.Context) ([]*storage.WebHook, error) {
	return d.store.FindWebHooks(ctx)
}
