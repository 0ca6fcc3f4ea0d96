package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/booksland/booksland/internal/storage"
)

const allBooksKey = "books:all"

func bookKey(id string) string {
	return "book:" + id
}

// bookEntry keeps the timestamps that the public JSON form of a book omits.
type bookEntry struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	ISBN       string            `json:"isbn"`
	Conditions storage.Condition `json:"conditions"`
	Authors    []string          `json:"authors"`
	Categories []string          `json:"categories"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func entryOf(b *storage.Book) bookEntry {
	return bookEntry{
		ID:         b.ID,
		Title:      b.Title,
		ISBN:       b.ISBN,
		Conditions: b.Conditions,
		Authors:    b.Authors,
		Categories: b.Categories,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func (e bookEntry) book() *storage.Book {
	return &storage.Book{
		ID:         e.ID,
		Title:      e.Title,
		ISBN:       e.ISBN,
		Conditions: e.Conditions,
		Authors:    e.Authors,
		Categories: e.Categories,
		Timestamps: storage.Timestamps{CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt},
	}
}

// BookStore is a read-through cache in front of another BookStore. Cache
// failures are logged and bypassed.
type BookStore struct {
	next   storage.BookStore
	cache  Backend
	logger *slog.Logger
}

var _ storage.BookStore = (*BookStore)(nil)

func NewBookStore(next storage.BookStore, cache Backend, logger *slog.Logger) *BookStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookStore{next: next, cache: cache, logger: logger.With("component", "cache")}
}

func (s *BookStore) FindBook(ctx context.Context, id string) (*storage.Book, error) {
	key := bookKey(id)

	var entry bookEntry
	err := s.cache.Get(ctx, key, &entry)
	if err == nil {
		return entry.book(), nil
	}
	if !errors.Is(err, ErrMiss) {
		s.logger.Warn("Book cache read failed", "key", key, "error", err)
	}

	book, err := s.next.FindBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, entryOf(book)); err != nil {
		s.logger.Warn("Failed to cache book", "key", key, "error", err)
	}
	return book, nil
}

func (s *BookStore) FindBooks(ctx context.Context) ([]*storage.Book, error) {
	var entries []bookEntry
	err := s.cache.Get(ctx, allBooksKey, &entries)
	if err == nil {
		books := make([]*storage.Book, 0, len(entries))
		for _, e := range entries {
			books = append(books, e.book())
		}
		return books, nil
	}
	if !errors.Is(err, ErrMiss) {
		s.logger.Warn("Book cache read failed", "key", allBooksKey, "error", err)
	}

	books, err := s.next.FindBooks(ctx)
	if err != nil {
		return nil, err
	}

	entries = make([]bookEntry, 0, len(books))
	for _, b := range books {
		entries = append(entries, entryOf(b))
	}
	if err := s.cache.Set(ctx, allBooksKey, entries); err != nil {
		s.logger.Warn("Failed to cache books", "key", allBooksKey, "error", err)
	}
	return books, nil
}

// SaveBook writes through and invalidates the list entry.
func (s *BookStore) SaveBook(ctx context.Context, book *storage.Book) (string, error) {
	id, err := s.next.SaveBook(ctx, book)
	if err != nil {
		return "", err
	}
	if err := s.cache.Delete(ctx, allBooksKey); err != nil {
		s.logger.Warn("Failed to invalidate book cache", "key", allBooksKey, "error", err)
	}
	return id, nil
}
