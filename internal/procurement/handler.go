package procurement

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clinicore-erp/clinicore/internal/audit"
	"github.com/clinicore-erp/clinicore/internal/platform/httpx"
)

// Handler manages procurement endpoints.
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

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/drafts", h.createDraft)
	r.Post("/drafts/calculate", h.calculateDraft)
	r.Get("/drafts/{id}", h.getDraft)
	r.Post("/drafts/{id}/approve", h.approveDraft)
	r.Get("/purchases/{invoice}", h.getPurchase)
	r.Post("/purchases/{invoice}/returns", h.createSupplierReturn)
}

func (h *Handler) calculateDraft(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	totals, lines := CalculateDraftTotals(toLines(req.Lines), req.Discount, toInvoiceTaxes(req.InvoiceTaxes))
	httpx.JSON(w, http.StatusOK, map[string]any{"totals": totals, "lines": lines})
}

func (h *Handler) createDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse("2006-01-02", req.Date)
	}
	draft, err := h.service.CreateDraft(r.Context(), CreateDraftInput{
		Date:         date,
		Invoice:      req.Invoice,
		Supplier:     req.Supplier,
		Discount:     req.Discount,
		InvoiceTaxes: toInvoiceTaxes(req.InvoiceTaxes),
		Lines:        toLines(req.Lines),
	})
	if err != nil {
		h.logger.Error("create draft", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "DRAFT_CREATE", draft.Invoice, map[string]any{"draft_id": draft.ID, "net": draft.Totals.Net})
	httpx.JSON(w, http.StatusCreated, map[string]any{"draft_id": draft.ID, "totals": draft.Totals})
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "draft id must be numeric")
		return
	}
	draft, err := h.service.GetDraft(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, draft)
}

func (h *Handler) approveDraft(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "draft id must be numeric")
		return
	}
	purchaseID, err := h.service.ApproveDraft(r.Context(), id)
	if err != nil {
		h.logger.Error("approve draft", slog.Any("error", err), slog.Int64("draft_id", id))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "DRAFT_APPROVE", strconv.FormatInt(id, 10), map[string]any{"purchase_id": purchaseID})
	httpx.JSON(w, http.StatusOK, map[string]any{"purchase_id": purchaseID})
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.service.GetPurchase(r.Context(), chi.URLParam(r, "invoice"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) createSupplierReturn(w http.ResponseWriter, r *http.Request) {
	var req supplierReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := SupplierReturnInput{Invoice: chi.URLParam(r, "invoice"), Note: req.Note}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, ReturnLineInput{ItemID: line.ItemID, Name: line.Name, Qty: line.Qty})
	}
	purchase, record, err := h.service.CreateSupplierReturn(r.Context(), input)
	if err != nil {
		h.logger.Error("supplier return", slog.Any("error", err), slog.String("invoice", input.Invoice))
		httpx.RespondError(w, err)
		return
	}
	h.record(r, "SUPPLIER_RETURN", purchase.Invoice, map[string]any{
		"return_id": record.ID, "items": record.Items, "total": record.Total,
	})
	httpx.JSON(w, http.StatusOK, map[string]any{"purchase": purchase, "return": record})
}

func (h *Handler) record(r *http.Request, action, label string, detail map[string]any) {
	if h.audit == nil {
		return
	}
	h.audit.Record(r.Context(), audit.FromRequest(r, action, label, detail))
}
