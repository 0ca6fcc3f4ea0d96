package notify

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Evaluator decides which books went out of stock.
type Evaluator struct {
	ledger *LedgerReader
}

func NewEvaluator(ledger *LedgerReader) *Evaluator {
	return &Evaluator{ledger: ledger}
}

// BooksToNotify returns the ids whose delivery count equals their order
// count, in first-occurrence order. Duplicate ids are evaluated once. Both
// counts of an id are joined before it is decided, and any failed count fails
// the whole batch.
func (e *Evaluator) BooksToNotify(ctx context.Context, bookIDs []string) ([]string, error) {
	ids := unique(bookIDs)
	notify := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			ok, err := e.isNotifiable(gctx, id)
			if err != nil {
				return err
			}
			notify[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ids))
	for i, id := range ids {
		if notify[i] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (e *Evaluator) isNotifiable(ctx context.Context, bookID string) (bool, error) {
	var deliveries, orders StockCheckResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		deliveries, err = e.ledger.CountDeliveries(gctx, bookID)
		return err
	})
	g.Go(func() (err error) {
		orders, err = e.ledger.CountOrders(gctx, bookID)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, err
	}
	return netChange(deliveries, orders) == 0, nil
}

// netChange adds delivery counts and subtracts order counts.
func netChange(results ...StockCheckResult) int64 {
	var n int64
	for _, r := range results {
		switch r.Kind {
		case KindDelivery:
			n += r.Count
		case KindOrder:
			n -= r.Count
		}
	}
	return n
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
