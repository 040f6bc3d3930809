package costs

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-ledger/internal/mappings"
	"github.com/meridian-erp/meridian-ledger/internal/platform/httpx"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

// Module is the mapping module key for actual-cost accounts.
const Module = "COSTS"

// Handler wires the actual-cost posting hook over HTTP.
type Handler struct {
	logger   *slog.Logger
	builder  Builder
	accounts mappings.Source
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, builder Builder, accounts mappings.Source) *Handler {
	return &Handler{logger: logger, builder: builder, accounts: accounts, validate: validator.New()}
}

// MountRoutes registers cost hook routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/actual", h.postActualCost)
}

type actualCostRequest struct {
	ID          string  `json:"id" validate:"required,uuid"`
	Reference   string  `json:"reference" validate:"required"`
	Description string  `json:"description"`
	CompanyID   int64   `json:"company_id" validate:"required"`
	ProjectID   *int64  `json:"project_id"`
	IncurredAt  string  `json:"incurred_at" validate:"required,datetime=2006-01-02"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	CreatedBy   int64   `json:"created_by"`
}

func (h *Handler) postActualCost(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	var req actualCostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	incurredAt, _ := time.Parse("2006-01-02", req.IncurredAt)
	accounts, err := h.accountMap(r.Context(), tn)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := PostActualCost(r.Context(), h.builder, tn, ActualCost{
		ID:          uuid.MustParse(req.ID),
		Reference:   req.Reference,
		Description: req.Description,
		CompanyID:   req.CompanyID,
		ProjectID:   req.ProjectID,
		IncurredAt:  incurredAt,
		Amount:      req.Amount,
		CreatedBy:   req.CreatedBy,
	}, accounts)
	if err != nil {
		h.logger.Error("post actual cost", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) accountMap(ctx context.Context, tn tenant.Tenant) (AccountMap, error) {
	expense, err := h.accounts.Lookup(ctx, tn, Module, "EXPENSE")
	if err != nil {
		return AccountMap{}, err
	}
	accrual, err := h.accounts.Lookup(ctx, tn, Module, "ACCRUAL")
	if err != nil {
		return AccountMap{}, err
	}
	return AccountMap{Expense: expense, Accrual: accrual}, nil
}
