// Package rest serves the catalog, ledger and webhook registration API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	gwconfig "github.com/booksland/booksland/internal/gateway/config"
	"github.com/booksland/booksland/internal/storage"
	"github.com/booksland/booksland/pkg/model"
)

// StatusClientClosedRequest is returned when the client went away first.
const StatusClientClosedRequest = 499

type Handler struct {
	books   storage.BookStore
	ledger  storage.LedgerStore
	hooks   storage.WebHookStore
	baseURL string
	cfg     gwconfig.GatewayConfig
	logger  *slog.Logger
}

func NewHandler(books storage.BookStore, ledger storage.LedgerStore, hooks storage.WebHookStore, baseURL string, cfg gwconfig.GatewayConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()
	return &Handler{
		books:   books,
		ledger:  ledger,
		hooks:   hooks,
		baseURL: strings.TrimRight(baseURL, "/"),
		cfg:     cfg,
		logger:  logger.With("component", "rest"),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Request ID, tracing and panic recovery come from the server middleware.
	mux.HandleFunc("GET /books", h.read(h.handleGetBooks))
	mux.HandleFunc("GET /books/{bookId}", h.read(h.handleGetBook))
	mux.HandleFunc("GET /books/{bookId}/availability", h.read(h.handleBookAvailability))
	mux.HandleFunc("POST /books", h.write(h.handleAddBook))

	mux.HandleFunc("POST /orders", h.write(h.handlePlaceOrder))
	mux.HandleFunc("POST /deliveries", h.write(h.handleRecordDelivery))
	mux.HandleFunc("POST /webhooks", h.write(h.handleRegisterWebHook))

	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))
}

func (h *Handler) read(next http.HandlerFunc) http.HandlerFunc {
	return withTimeout(next, h.cfg.RequestTimeout)
}

func (h *Handler) write(next http.HandlerFunc) http.HandlerFunc {
	return withTimeout(maxBodySize(next, h.cfg.MaxBodySize), h.cfg.RequestTimeout)
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// writeText writes a plain text body that must never be cached.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

type messageList struct {
	Errors []string `json:"errors"`
}

// writeError maps an application error to its response:
// validation lists, validation and already_exists are 403, not_found is 404,
// everything else 500. Client cancellation yields a bare 499.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	span := trace.SpanFromContext(r.Context())

	var list *model.ValidationErrors
	if errors.As(err, &list) {
		writeJSON(w, http.StatusForbidden, list)
		return
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, errInvalidJSON):
		writeJSON(w, http.StatusBadRequest, messageList{Errors: []string{errInvalidJSON.Error()}})
		return
	case errors.As(err, &maxErr):
		writeJSON(w, http.StatusRequestEntityTooLarge, messageList{Errors: []string{"request body too large"}})
		return
	case model.IsCanceled(err):
		w.WriteHeader(StatusClientClosedRequest)
		return
	}

	var appErr *model.Error
	if !errors.As(err, &appErr) {
		appErr = model.GenericError("", err)
	}
	span.SetAttributes(
		attribute.String("error_code", string(appErr.Code)),
		attribute.String("error_message", appErr.Message),
	)

	switch appErr.Code {
	case model.CodeNotFound:
		writeJSON(w, http.StatusNotFound, appErr)
	case model.CodeAlreadyExists, model.CodeValidation:
		writeJSON(w, http.StatusForbidden, appErr)
	default:
		h.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, appErr)
	}
}

// bookURL is the canonical URL of a book, also handed to webhook subscribers.
func (h *Handler) bookURL(id string) string {
	return h.baseURL + "/books/" + id
}
