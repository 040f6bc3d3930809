package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-ledger/internal/platform/httpx"
	"github.com/meridian-erp/meridian-ledger/internal/tenant"
)

func init() {
	httpx.RegisterStatus(ErrNotFound, http.StatusNotFound, "Not Found")
	httpx.RegisterStatus(ErrValidation, http.StatusBadRequest, "Validation Failed")
	httpx.RegisterStatus(ErrInvalidState, http.StatusConflict, "Invalid State")
	httpx.RegisterStatus(ErrSourceLinked, http.StatusConflict, "Already Posted")
}

// Handler exposes the posting engine operations over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

type lineRequest struct {
	AccountID    int64   `json:"account_id" validate:"required"`
	Debit        float64 `json:"debit" validate:"gte=0"`
	Credit       float64 `json:"credit" validate:"gte=0"`
	Memo         string  `json:"memo"`
	RelatedTable string  `json:"related_table"`
	RelatedID    *string `json:"related_id" validate:"omitempty,uuid"`
}

type createEntryRequest struct {
	CompanyID   int64         `json:"company_id" validate:"required"`
	ProjectID   *int64        `json:"project_id"`
	Date        string        `json:"date" validate:"required,datetime=2006-01-02"`
	Description string        `json:"description"`
	SourceType  string        `json:"source_type" validate:"omitempty,oneof=manual ap_invoice ap_payment ar_invoice ar_receipt actual_cost intercompany reversal"`
	CreatedBy   int64         `json:"created_by"`
	Lines       []lineRequest `json:"lines"`
}

type reverseRequest struct {
	ActorID int64  `json:"actor_id"`
	Memo    string `json:"memo"`
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	sourceType := SourceType(req.SourceType)
	if sourceType == "" {
		sourceType = SourceManual
	}
	in := CreateEntryInput{
		CompanyID:   req.CompanyID,
		ProjectID:   req.ProjectID,
		Date:        date,
		Description: req.Description,
		SourceType:  sourceType,
		CreatedBy:   req.CreatedBy,
		Lines:       make([]LineInput, 0, len(req.Lines)),
	}
	for _, line := range req.Lines {
		spec := LineInput{
			AccountID:    line.AccountID,
			Debit:        line.Debit,
			Credit:       line.Credit,
			Memo:         line.Memo,
			RelatedTable: line.RelatedTable,
		}
		if line.RelatedID != nil {
			ref := uuid.MustParse(*line.RelatedID)
			spec.RelatedID = &ref
		}
		in.Lines = append(in.Lines, spec)
	}
	entry, err := h.service.CreateEntry(r.Context(), tn, in)
	if err != nil {
		h.logger.Error("create entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.ListEntries(r.Context(), tn, limit)
	if err != nil {
		h.logger.Error("list entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.GetEntry(r.Context(), tn, entryID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) postEntry(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.PostEntry(r.Context(), tn, entryID)
	if err != nil {
		h.logger.Error("post entry", slog.Int64("entry_id", entryID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) reverseEntry(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	entryID, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var req reverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	reversal, err := h.service.ReverseEntry(r.Context(), tn, ReverseInput{EntryID: entryID, ActorID: req.ActorID, Memo: req.Memo})
	if err != nil {
		h.logger.Error("reverse entry", slog.Int64("entry_id", entryID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reversal)
}

func (h *Handler) listQueue(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.service.ListQueue(r.Context(), tn, QueueStatus(r.URL.Query().Get("status")), limit)
	if err != nil {
		h.logger.Error("list queue", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) retryQueue(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	queueID, err := pathID(r, "id")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	item, err := h.service.RetryQueueEntry(r.Context(), tn, queueID)
	if err != nil {
		h.logger.Error("retry queue entry", slog.Int64("queue_id", queueID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	tn, ok := tenant.FromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "tenant required")
		return
	}
	accountID, err := pathID(r, "accountID")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	balance, err := h.service.GetBalance(r.Context(), tn, accountID, chi.URLParam(r, "period"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
