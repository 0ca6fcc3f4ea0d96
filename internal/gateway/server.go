package gateway

import (
	"log/slog"
	"net/http"

	"github.com/booksland/booksland/internal/gateway/config"
	"github.com/booksland/booksland/internal/gateway/rest"
	"github.com/booksland/booksland/internal/storage"
)

// Stores are the persistence contracts the API layer serves.
type Stores struct {
	Books    storage.BookStore
	Ledger   storage.LedgerStore
	WebHooks storage.WebHookStore
}

// Server is a route registrar for the API layer.
type Server struct {
	rest *rest.Handler
}

// NewServer creates a new API Server (route registrar). baseURL prefixes the
// Location of created books.
func NewServer(stores Stores, baseURL string, cfg config.GatewayConfig, logger *slog.Logger) *Server {
	return &Server{
		rest: rest.NewHandler(stores.Books, stores.Ledger, stores.WebHooks, baseURL, cfg, logger),
	}
}

// RegisterRoutes registers all API routes to the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	s.rest.RegisterRoutes(mux)
}
