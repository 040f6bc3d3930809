package ledger

import "github.com/go-chi/chi/v5"

// MountRoutes registers ledger routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/entries", h.listEntries)
	r.Post("/entries", h.createEntry)
	r.Get("/entries/{id}", h.getEntry)
	r.Post("/entries/{id}/post", h.postEntry)
	r.Post("/entries/{id}/reverse", h.reverseEntry)
	r.Get("/queue", h.listQueue)
	r.Post("/queue/{id}/retry", h.retryQueue)
	r.Get("/balances/{accountID}/{period}", h.getBalance)
}
