package rest

import "net/http"

// healthBody is the liveness reply load balancers match on.
const healthBody = "OK"

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, healthBody)
}
