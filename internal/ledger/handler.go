package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/paperdesk/backoffice/internal/platform/httpx"
	"github.com/paperdesk/backoffice/internal/shared"
)

// Handler exposes the ledger over JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	now      func() time.Time
	// idempotency is optional; nil disables Idempotency-Key handling.
	idempotency *shared.IdempotencyStore
}

const idempotencyModule = "ledger"

// NewHandler constructs Handler. A missing as_of query defaults to today
// according to now.
func NewHandler(logger *slog.Logger, service *Service, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New(), now: now}
}

// WithIdempotency enables replay of POST /transactions requests carrying an
// Idempotency-Key header.
func (h *Handler) WithIdempotency(store *shared.IdempotencyStore) *Handler {
	h.idempotency = store
	return h
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/transactions", h.handleAppend)
	r.Get("/stock", h.handleAllStock)
	r.Get("/stock/{item}", h.handleStockOf)
	r.Get("/stock/{item}/history", h.handleHistory)
	r.Get("/cash", h.handleCash)
	r.Get("/inventory-value", h.handleInventoryValue)
	r.Get("/reports/financial", h.handleReport)
	r.Get("/reports/financial.xlsx", h.handleReportWorkbook)
	r.Get("/reorder", h.handleReorder)
}

type appendRequest struct {
	ItemName        *string         `json:"item_name" validate:"omitempty,max=200"`
	TransactionType string          `json:"transaction_type" validate:"required"`
	Units           *int64          `json:"units" validate:"omitempty,gte=0"`
	Price           decimal.Decimal `json:"price"`
	Date            string          `json:"transaction_date" validate:"required"`
}

type appendResponse struct {
	ID int64 `json:"id"`
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validate, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx := r.Context()
	key, replayed := h.reserve(w, r)
	if replayed {
		return
	}
	id, err := h.service.Append(ctx, AppendInput{
		ItemName: req.ItemName,
		Type:     req.TransactionType,
		Units:    req.Units,
		Price:    req.Price,
		Date:     req.Date,
	})
	if err != nil {
		if key != "" {
			if delErr := h.idempotency.Delete(ctx, idempotencyModule, key); delErr != nil {
				h.logger.WarnContext(ctx, "idempotency release failed", slog.Any("error", delErr))
			}
		}
		h.fail(w, r, err)
		return
	}
	if key != "" {
		if err := h.idempotency.Complete(ctx, idempotencyModule, key, strconv.FormatInt(id, 10)); err != nil {
			h.logger.WarnContext(ctx, "idempotency complete failed", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusCreated, appendResponse{ID: id})
}

// reserve claims the request's Idempotency-Key. It returns the claimed key,
// or replayed=true when a response has already been written.
func (h *Handler) reserve(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" || h.idempotency == nil {
		return "", false
	}
	err := h.idempotency.Reserve(r.Context(), idempotencyModule, key)
	if err == nil {
		return key, false
	}
	var replay *shared.IdempotencyReplay
	if errors.As(err, &replay) {
		if replay.Result == "" {
			httpx.Problem(w, http.StatusConflict, "Request In Progress", "a request with this Idempotency-Key is still being processed")
			return "", true
		}
		if id, perr := strconv.ParseInt(replay.Result, 10, 64); perr == nil {
			httpx.JSON(w, http.StatusOK, appendResponse{ID: id})
			return "", true
		}
	}
	h.logger.WarnContext(r.Context(), "idempotency reserve failed, appending without it", slog.Any("error", err))
	return "", false
}

type stockResponse struct {
	ItemName string `json:"item_name"`
	AsOfDate string `json:"as_of_date"`
	Stock    int64  `json:"current_stock"`
}

func (h *Handler) handleStockOf(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemParam(w, r)
	if !ok {
		return
	}
	asOf := h.asOf(r)
	stock, err := h.service.StockOf(r.Context(), item, asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stockResponse{ItemName: item, AsOfDate: asOf, Stock: stock})
}

func (h *Handler) handleAllStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.service.AllStock(r.Context(), h.asOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, levels)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	item, ok := h.itemParam(w, r)
	if !ok {
		return
	}
	entries, err := h.service.History(r.Context(), item, h.asOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

type amountResponse struct {
	AsOfDate string          `json:"as_of_date"`
	Amount   decimal.Decimal `json:"amount"`
}

func (h *Handler) handleCash(w http.ResponseWriter, r *http.Request) {
	asOf := h.asOf(r)
	cash, err := h.service.CashBalance(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, amountResponse{AsOfDate: asOf, Amount: cash})
}

func (h *Handler) handleInventoryValue(w http.ResponseWriter, r *http.Request) {
	asOf := h.asOf(r)
	value, err := h.service.InventoryValue(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, amountResponse{AsOfDate: asOf, Amount: value})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.FinancialReport(r.Context(), h.asOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleReportWorkbook(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.FinancialReport(r.Context(), h.asOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=financial-report-"+report.AsOfDate+".xlsx")
	if err := WriteReportWorkbook(w, report); err != nil {
		h.logger.ErrorContext(r.Context(), "write report workbook", slog.Any("error", err))
	}
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.ReorderCandidates(r.Context(), h.asOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, candidates)
}

// asOf returns the canonical cutoff date for r, defaulting to today. A value
// that does not parse is passed through for the service to reject.
func (h *Handler) asOf(r *http.Request) string {
	v := r.URL.Query().Get("as_of")
	if v == "" {
		return shared.FormatDate(h.now())
	}
	if date, err := shared.ParseDate(v); err == nil {
		return date
	}
	return v
}

func (h *Handler) itemParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	item, err := url.PathUnescape(chi.URLParam(r, "item"))
	if err != nil || item == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item name required")
		return "", false
	}
	return item, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "ledger request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	httpx.RespondError(w, err)
}
