package inventory

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicore-erp/clinicore/internal/platform/httpx"
)

// Handler exposes inventory lookups.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items/{key}", h.getItem)
}

type itemResponse struct {
	Key            string  `json:"key"`
	Name           string  `json:"name"`
	GenericName    string  `json:"generic_name,omitempty"`
	Category       string  `json:"category,omitempty"`
	OnHand         float64 `json:"on_hand"`
	UnitsPerPack   float64 `json:"units_per_pack"`
	AvgCostPerUnit float64 `json:"avg_cost_per_unit"`
	MinStock       float64 `json:"min_stock,omitempty"`
	LastInvoice    string  `json:"last_invoice,omitempty"`
	LastSupplier   string  `json:"last_supplier,omitempty"`
	LastUnitCost   float64 `json:"last_unit_cost"`
	LastExpiry     string  `json:"last_expiry,omitempty"`
	EarliestExpiry string  `json:"earliest_expiry,omitempty"`
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, itemResponse{
		Key:            item.Key,
		Name:           item.Name,
		GenericName:    item.GenericName,
		Category:       item.Category,
		OnHand:         item.OnHand,
		UnitsPerPack:   item.UnitsPerPack,
		AvgCostPerUnit: item.AvgCostPerUnit,
		MinStock:       item.MinStock,
		LastInvoice:    item.LastInvoice,
		LastSupplier:   item.LastSupplier,
		LastUnitCost:   item.LastUnitCost,
		LastExpiry:     formatDate(item.LastExpiry),
		EarliestExpiry: formatDate(item.EarliestExpiry),
	})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
