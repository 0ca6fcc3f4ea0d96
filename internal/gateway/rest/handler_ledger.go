package rest

import (
	"net/http"

	"github.com/booksland/booksland/internal/storage"
)

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[orderRequest](r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.ledger.PlaceOrder(r.Context(), &storage.Order{Purchaser: req.Purchaser, BookIDs: req.BookIDs}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleRecordDelivery(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[deliveryRequest](r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.ledger.RecordDelivery(r.Context(), &storage.Delivery{Supplier: req.Supplier, BookIDs: req.BookIDs}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleRegisterWebHook(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAndValidate[webHookRequest](r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if _, err := h.hooks.RegisterWebHook(r.Context(), &storage.WebHook{URL: req.URL}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
