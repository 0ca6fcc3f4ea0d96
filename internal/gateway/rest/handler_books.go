package rest

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/booksland/booksland/internal/storage"
)

type booksResponse struct {
	Books []*storage.Book `json:"books"`
}

type availabilityResponse struct {
	Count int64 `json:"count"`
}

func (h *Handler) handleGetBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.FindBooks(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if books == nil {
		books = []*storage.Book{}
	}
	writeJSON(w, http.StatusOK, booksResponse{Books: books})
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("bookId")
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("bookId", id))

	book, err := h.books.FindBook(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !book.UpdatedAt.IsZero() {
		w.Header().Set("Last-Modified", book.UpdatedAt.UTC().Format(http.TimeFormat))
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *Handler) handleAddBook(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[bookRequest](r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.books.SaveBook(r.Context(), req.toBook())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", h.bookURL(id))
	w.WriteHeader(http.StatusCreated)
}

// handleBookAvailability reports deliveries minus orders for the book. Both
// counts are read concurrently.
func (h *Handler) handleBookAvailability(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("bookId")
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("bookId", id))

	var orders, deliveries int64
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		orders, err = h.ledger.CountOrders(ctx, id)
		return err
	})
	g.Go(func() (err error) {
		deliveries, err = h.ledger.CountDeliveries(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{Count: deliveries - orders})
}
