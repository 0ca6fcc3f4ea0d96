package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/booksland/booksland/pkg/model"
)

// LedgerReader counts the orders and deliveries that reference a book. Zero
// matches is a valid count.
type LedgerReader struct {
	store LedgerCounter
}

func NewLedgerReader(store LedgerCounter) *LedgerReader {
	return &LedgerReader{store: store}
}

func (r *LedgerReader) CountOrders(ctx context.Context, bookID string) (StockCheckResult, error) {
	n, err := r.store.CountOrders(ctx, bookID)
	if err != nil {
		return StockCheckResult{}, asGeneric(err, fmt.Sprintf("could not retrieve any order for book with id %s", bookID))
	}
	return StockCheckResult{BookID: bookID, Count: n, Kind: KindOrder}, nil
}

func (r *LedgerReader) CountDeliveries(ctx context.Context, bookID string) (StockCheckResult, error) {
	n, err := r.store.CountDeliveries(ctx, bookID)
	if err != nil {
		return StockCheckResult{}, asGeneric(err, fmt.Sprintf("could not retrieve any delivery for book with id %s", bookID))
	}
	return StockCheckResult{BookID: bookID, Count: n, Kind: KindDelivery}, nil
}

// asGeneric keeps generic errors raised by the store and wraps anything else.
func asGeneric(err error, message string) error {
	var merr *model.Error
	if errors.As(err, &merr) && merr.Code == model.CodeGeneric {
		return err
	}
	return model.GenericError(message, err)
}
