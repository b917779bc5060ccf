package orders

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clinicore-erp/clinicore/internal/audit"
	"github.com/clinicore-erp/clinicore/internal/platform/httpx"
)

// Handler manages order return endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	audit    audit.Sink
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sink audit.Sink) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		service:  service,
		audit:    sink,
		validate: validator.New(),
	}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{ref}", h.getOrder)
	r.Post("/{ref}/returns", h.createReturn)
	r.Post("/{ref}/returns/undo", h.undoReturn)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetByRef(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) createReturn(w http.ResponseWriter, r *http.Request) {
	var req customerReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, record, err := h.service.CreateCustomerReturn(r.Context(), CustomerReturnInput{
		OrderRef: chi.URLParam(r, "ref"),
		TestID:   req.TestID,
		Note:     req.Note,
	})
	if err != nil {
		h.logger.Error("customer return", slog.Any("error", err), slog.String("ref", chi.URLParam(r, "ref")))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "ORDER_RETURN", orderReference(order), map[string]any{
		"return_id": record.ID, "status": string(order.Status),
	})
	httpx.JSON(w, http.StatusOK, customerReturnResponse{Order: toOrderResponse(order), Record: record})
}

func (h *Handler) undoReturn(w http.ResponseWriter, r *http.Request) {
	var req undoReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	order, err := h.service.UndoCustomerReturn(r.Context(), UndoInput{
		OrderRef: chi.URLParam(r, "ref"),
		TestID:   req.TestID,
		TestName: req.TestName,
	})
	if err != nil {
		h.logger.Error("undo customer return", slog.Any("error", err), slog.String("ref", chi.URLParam(r, "ref")))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "ORDER_RETURN_UNDO", orderReference(order), map[string]any{
		"status": string(order.Status),
	})
	httpx.JSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) record(r *http.Request, action, label string, detail map[string]any) {
	if h.audit == nil {
		return
	}
	h.audit.Record(r.Context(), audit.FromRequest(r, action, label, detail))
}
