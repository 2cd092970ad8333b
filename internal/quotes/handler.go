package quotes

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/paperdesk/backoffice/internal/platform/httpx"
	"github.com/paperdesk/backoffice/internal/shared"
)

// Handler exposes quote search over JSON.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers quote routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotes", h.handleSearch)
}

type searchResponse struct {
	Quotes []Record `json:"quotes"`
}

// handleSearch accepts repeated q parameters; a single q may also hold a
// comma separated list. A missing limit means DefaultLimit and larger limits
// are lowered to MaxLimit.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var terms []string
	for _, v := range query["q"] {
		terms = append(terms, strings.Split(v, ",")...)
	}
	limit, err := searchLimit(query.Get("limit"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	records, err := h.service.Search(r.Context(), terms, limit)
	if err != nil {
		h.logger.WarnContext(r.Context(), "quote search request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, searchResponse{Quotes: records})
}

func searchLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, shared.ErrValidation
	}
	return min(n, MaxLimit), nil
}
