package ap

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

// Module is the mapping module key for AP accounts.
const Module = "AP"

// Handler wires the AP posting hooks over HTTP.
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

// MountRoutes registers AP hook routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.postInvoice)
	r.Post("/payments", h.postPayment)
}

type invoiceRequest struct {
	ID          string  `json:"id" validate:"required,uuid"`
	Number      string  `json:"number" validate:"required"`
	VendorName  string  `json:"vendor_name"`
	CompanyID   int64   `json:"company_id" validate:"required"`
	ProjectID   *int64  `json:"project_id"`
	InvoiceDate string  `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	TotalAmount float64 `json:"total_amount" validate:"gte=0"`
	CreatedBy   int64   `json:"created_by"`
}

type paymentRequest struct {
	ID         string  `json:"id" validate:"required,uuid"`
	Number     string  `json:"number" validate:"required"`
	VendorName string  `json:"vendor_name"`
	CompanyID  int64   `json:"company_id" validate:"required"`
	PaidAt     string  `json:"paid_at" validate:"required,datetime=2006-01-02"`
	Amount     float64 `json:"amount" validate:"gte=0"`
	CreatedBy  int64   `json:"created_by"`
}

func (h *Handler) postInvoice(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	var req invoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, _ := time.Parse("2006-01-02", req.InvoiceDate)
	accounts, err := h.accountMap(r.Context(), tn)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := PostInvoice(r.Context(), h.builder, tn, Invoice{
		ID:          uuid.MustParse(req.ID),
		Number:      req.Number,
		VendorName:  req.VendorName,
		CompanyID:   req.CompanyID,
		ProjectID:   req.ProjectID,
		InvoiceDate: date,
		TotalAmount: req.TotalAmount,
		CreatedBy:   req.CreatedBy,
	}, accounts)
	if err != nil {
		h.logger.Error("post ap invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) postPayment(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	paidAt, _ := time.Parse("2006-01-02", req.PaidAt)
	accounts, err := h.accountMap(r.Context(), tn)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := PostPayment(r.Context(), h.builder, tn, Payment{
		ID:         uuid.MustParse(req.ID),
		Number:     req.Number,
		VendorName: req.VendorName,
		CompanyID:  req.CompanyID,
		PaidAt:     paidAt,
		Amount:     req.Amount,
		CreatedBy:  req.CreatedBy,
	}, accounts)
	if err != nil {
		h.logger.Error("post ap payment", slog.Any("error", err))
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
	payable, err := h.accounts.Lookup(ctx, tn, Module, "PAYABLE")
	if err != nil {
		return AccountMap{}, err
	}
	cash, err := h.accounts.Lookup(ctx, tn, Module, "CASH")
	if err != nil {
		return AccountMap{}, err
	}
	return AccountMap{Expense: expense, Payable: payable, Cash: cash}, nil
}
