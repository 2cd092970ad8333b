package supply

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/paperdesk/backoffice/internal/platform/httpx"
)

// Handler exposes the estimator over JSON.
type Handler struct {
	estimator *Estimator
	validate  *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(estimator *Estimator) *Handler {
	return &Handler{estimator: estimator, validate: validator.New()}
}

// MountRoutes registers supply routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/delivery-estimate", h.handleEstimate)
}

// estimateQuery leaves Date unchecked; the estimator degrades on a bad date.
type estimateQuery struct {
	Date     string
	Quantity int64 `validate:"gte=0"`
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := estimateQuery{Date: q.Get("date")}
	if raw := q.Get("quantity"); raw != "" {
		n, err := parseQuantity(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		query.Quantity = n
	}
	if err := httpx.Validate(h.validate, query); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.estimator.Estimate(r.Context(), query.Date, query.Quantity))
}
