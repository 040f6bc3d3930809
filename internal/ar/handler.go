package ar

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

// Module is the mapping module key for AR accounts.
const Module = "AR"

// Handler wires the AR posting hooks over HTTP.
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

// MountRoutes registers AR hook routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.postInvoice)
	r.Post("/receipts", h.postReceipt)
}

type invoiceRequest struct {
	ID           string  `json:"id" validate:"required,uuid"`
	Number       string  `json:"number" validate:"required"`
	CustomerName string  `json:"customer_name"`
	CompanyID    int64   `json:"company_id" validate:"required"`
	ProjectID    *int64  `json:"project_id"`
	InvoiceDate  string  `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	TotalAmount  float64 `json:"total_amount" validate:"gte=0"`
	CreatedBy    int64   `json:"created_by"`
}

type receiptRequest struct {
	ID           string  `json:"id" validate:"required,uuid"`
	Number       string  `json:"number" validate:"required"`
	CustomerName string  `json:"customer_name"`
	CompanyID    int64   `json:"company_id" validate:"required"`
	ReceivedAt   string  `json:"received_at" validate:"required,datetime=2006-01-02"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	CreatedBy    int64   `json:"created_by"`
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
		ID:           uuid.MustParse(req.ID),
		Number:       req.Number,
		CustomerName: req.CustomerName,
		CompanyID:    req.CompanyID,
		ProjectID:    req.ProjectID,
		InvoiceDate:  date,
		TotalAmount:  req.TotalAmount,
		CreatedBy:    req.CreatedBy,
	}, accounts)
	if err != nil {
		h.logger.Error("post ar invoice", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) postReceipt(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	var req receiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	receivedAt, _ := time.Parse("2006-01-02", req.ReceivedAt)
	accounts, err := h.accountMap(r.Context(), tn)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := PostReceipt(r.Context(), h.builder, tn, Receipt{
		ID:           uuid.MustParse(req.ID),
		Number:       req.Number,
		CustomerName: req.CustomerName,
		CompanyID:    req.CompanyID,
		ReceivedAt:   receivedAt,
		Amount:       req.Amount,
		CreatedBy:    req.CreatedBy,
	}, accounts)
	if err != nil {
		h.logger.Error("post ar receipt", slog.Any("error", err))
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
	receivable, err := h.accounts.Lookup(ctx, tn, Module, "RECEIVABLE")
	if err != nil {
		return AccountMap{}, err
	}
	revenue, err := h.accounts.Lookup(ctx, tn, Module, "REVENUE")
	if err != nil {
		return AccountMap{}, err
	}
	cash, err := h.accounts.Lookup(ctx, tn, Module, "CASH")
	if err != nil {
		return AccountMap{}, err
	}
	return AccountMap{Receivable: receivable, Revenue: revenue, Cash: cash}, nil
}
