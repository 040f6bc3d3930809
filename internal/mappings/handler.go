package mappings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-ledger/internal/platform/httpx"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

func init() {
	httpx.RegisterStatus(ErrNotFound, http.StatusUnprocessableEntity, "Account Mapping Missing")
}

// Handler exposes account-mapping administration.
type Handler struct {
	logger   *slog.Logger
	repo     *Repository
	cache    *Cache
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, repo *Repository, cache *Cache) *Handler {
	return &Handler{logger: logger, repo: repo, cache: cache, validate: validator.New()}
}

// MountRoutes registers mapping routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Put("/{module}/{key}", h.upsert)
}

type upsertRequest struct {
	AccountID int64 `json:"account_id" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	out, err := h.repo.List(r.Context(), tn, r.URL.Query().Get("module"))
	if err != nil {
		h.logger.Error("list mappings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	var req upsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	module, key := chi.URLParam(r, "module"), chi.URLParam(r, "key")
	mapping, err := h.repo.Upsert(r.Context(), tn, module, key, req.AccountID)
	if err != nil {
		h.logger.Error("upsert mapping", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), tn, module, key)
	}
	httpx.JSON(w, http.StatusOK, mapping)
}
