package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter registers all endpoints. ws may be nil (tests without a hub), in
// which case /ws is not mounted.
func NewRouter(h *HandlerProvider, ws http.HandlerFunc) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", h.HealthHandler)

	r.Post("/topup", h.TopupHandler)
	r.Get("/card/{uid}", h.GetCardHandler)
	r.Get("/cards", h.ListCardsHandler)
	r.Get("/transactions/{uid}", h.ListCardTransactionsHandler)
	r.Get("/transactions", h.ListTransactionsHandler)

	if ws != nil {
		r.Get("/ws", ws)
	}

	return r
}
