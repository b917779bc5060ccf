package procurement

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/clinicore-erp/clinicore/internal/inventory"
	"github.com/clinicore-erp/clinicore/internal/returns"
	"github.com/clinicore-erp/clinicore/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateDraft(ctx context.Context, draft Draft) (int64, error)
	GetDraft(ctx context.Context, id int64) (Draft, error)
	GetPurchaseByInvoice(ctx context.Context, invoice string) (Purchase, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreatePurchase(ctx context.Context, purchase Purchase) (int64, error)
	DeleteDraft(ctx context.Context, id int64) error
	UpdatePurchase(ctx context.Context, purchase Purchase) error
}

// InventoryPort exposes the inventory aggregate integration.
type InventoryPort interface {
	Receive(ctx context.Context, input inventory.ReceiveInput) (inventory.Item, error)
	Decrement(ctx context.Context, name string, qty float64) error
}

// ReturnsPort persists return records.
type ReturnsPort interface {
	Create(ctx context.Context, record returns.Record) (returns.Record, error)
}

// Service orchestrates draft valuation, approval and supplier returns.
type Service struct {
	repo      RepositoryPort
	inventory InventoryPort
	returns   ReturnsPort
	logger    *slog.Logger
}

// NewService constructs procurement service.
func NewService(repo RepositoryPort, inv InventoryPort, ret ReturnsPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, inventory: inv, returns: ret, logger: logger}
}

// CreateDraftInput describes an intake payload.
type CreateDraftInput struct {
	Date         time.Time
	Invoice      string
	Supplier     string
	Discount     float64
	InvoiceTaxes []InvoiceTax
	Lines        []Line
}

// CreateDraft values the document and persists it as a pending draft.
func (s *Service) CreateDraft(ctx context.Context, input CreateDraftInput) (Draft, error) {
	if len(input.Lines) == 0 {
		return Draft{}, fmt.Errorf("%w: draft requires at least one line", shared.ErrValidation)
	}
	if input.Discount < 0 {
		return Draft{}, fmt.Errorf("%w: discount must be >= 0", shared.ErrValidation)
	}
	totals, lines := CalculateDraftTotals(input.Lines, input.Discount, input.InvoiceTaxes)
	draft := Draft{
		Date:         defaultTime(input.Date),
		Invoice:      input.Invoice,
		Supplier:     input.Supplier,
		Discount:     input.Discount,
		InvoiceTaxes: input.InvoiceTaxes,
		Totals:       totals,
		Lines:        lines,
	}
	id, err := s.repo.CreateDraft(ctx, draft)
	if err != nil {
		return Draft{}, err
	}
	draft.ID = id
	return draft, nil
}

// GetDraft returns a pending draft.
func (s *Service) GetDraft(ctx context.Context, id int64) (Draft, error) {
	return s.repo.GetDraft(ctx, id)
}

// ApproveDraft commits a draft: credits each named line into inventory at its
// after-tax unit cost, creates the immutable purchase snapshot, and deletes
// the draft so a retry fails NotFound instead of double-crediting. Lines are
// applied independently; a mid-loop failure is not rolled back.
func (s *Service) ApproveDraft(ctx context.Context, draftID int64) (int64, error) {
	draft, err := s.repo.GetDraft(ctx, draftID)
	if err != nil {
		return 0, err
	}

	for _, line := range draft.Lines {
		if line.Name == "" {
			continue
		}
		addQty := line.TotalItems
		if addQty <= 0 {
			addQty = line.UnitsPerPack * line.Packs
		}
		if _, err := s.inventory.Receive(ctx, inventory.ReceiveInput{
			Name:         line.Name,
			GenericName:  line.GenericName,
			Category:     line.Category,
			Qty:          addQty,
			UnitCost:     line.unitCost(),
			UnitsPerPack: line.UnitsPerPack,
			MinStock:     line.MinStock,
			Invoice:      draft.Invoice,
			Supplier:     draft.Supplier,
			Expiry:       line.Expiry,
		}); err != nil {
			return 0, fmt.Errorf("procurement: credit line %q: %w", line.Name, err)
		}
	}

	totalAmount := draft.Totals.Net
	if totalAmount == 0 {
		for _, line := range draft.Lines {
			totalAmount += line.BuyPerPack * line.Packs
		}
		totalAmount = shared.Round2(totalAmount)
	}

	purchase := Purchase{
		Date:        draft.Date,
		Invoice:     draft.Invoice,
		Supplier:    draft.Supplier,
		Totals:      draft.Totals,
		TotalAmount: totalAmount,
		Lines:       draft.Lines,
	}
	var purchaseID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreatePurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchaseID = id
		return tx.DeleteDraft(ctx, draftID)
	})
	if err != nil {
		return 0, err
	}
	return purchaseID, nil
}

// ReturnLineInput identifies a purchase line and quantity to send back.
type ReturnLineInput struct {
	ItemID int64
	Name   string
	Qty    float64
}

// SupplierReturnInput describes a supplier-side return request.
type SupplierReturnInput struct {
	Invoice string
	Note    string
	Lines   []ReturnLineInput
}

// CreateSupplierReturn unwinds purchased goods: decrements the purchase
// lines, recomputes the purchase total from remaining state, decrements
// stock best-effort, and persists the return record.
func (s *Service) CreateSupplierReturn(ctx context.Context, input SupplierReturnInput) (Purchase, returns.Record, error) {
	purchase, err := s.repo.GetPurchaseByInvoice(ctx, input.Invoice)
	if err != nil {
		return Purchase{}, returns.Record{}, err
	}

	byID := make(map[int64]int)
	byKey := make(map[string]int)
	for i, line := range purchase.Lines {
		if line.ItemID != 0 {
			byID[line.ItemID] = i
		}
		byKey[inventory.NormalizeKey(line.Name)] = i
	}

	var returnedLines []returns.Line
	for _, req := range input.Lines {
		if req.Qty <= 0 {
			continue
		}
		idx, ok := byID[req.ItemID]
		if !ok || req.ItemID == 0 {
			idx, ok = byKey[inventory.NormalizeKey(req.Name)]
		}
		if !ok {
			return Purchase{}, returns.Record{}, fmt.Errorf("%w: item not found in purchase", shared.ErrValidation)
		}
		line := &purchase.Lines[idx]
		if req.Qty > line.TotalItems {
			return Purchase{}, returns.Record{}, fmt.Errorf("%w: return qty exceeds purchased qty", shared.ErrValidation)
		}

		line.TotalItems -= req.Qty
		if line.UnitsPerPack > 0 {
			line.Packs = math.Floor(line.TotalItems / line.UnitsPerPack)
		}
		returnedLines = append(returnedLines, returns.Line{
			ItemID: line.ItemID,
			Name:   line.Name,
			Qty:    req.Qty,
			Amount: shared.Round2(line.unitCost() * req.Qty),
		})
	}

	// Drop exhausted lines and rebuild the total from what remains; a full
	// recompute cannot drift the way repeated decrements can.
	surviving := purchase.Lines[:0]
	var totalAmount float64
	for _, line := range purchase.Lines {
		if line.TotalItems <= 0 {
			continue
		}
		totalAmount += line.unitCost() * line.TotalItems
		surviving = append(surviving, line)
	}
	purchase.Lines = surviving
	purchase.TotalAmount = shared.Round2(totalAmount)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePurchase(ctx, purchase)
	})
	if err != nil {
		return Purchase{}, returns.Record{}, err
	}

	// Stock decrement is best-effort: an unresolved item is skipped, never
	// failing the return.
	for _, line := range returnedLines {
		if err := s.inventory.Decrement(ctx, line.Name, line.Qty); err != nil {
			s.logger.Warn("supplier return stock decrement",
				slog.String("item", line.Name), slog.Any("error", err))
		}
	}

	record := returns.Record{
		Type:      returns.TypeSupplier,
		At:        time.Now().UTC(),
		Reference: purchase.Invoice,
		Party:     purchase.Supplier,
		Note:      input.Note,
		Lines:     returnedLines,
	}
	record.Recount()
	record, err = s.returns.Create(ctx, record)
	if err != nil {
		return Purchase{}, returns.Record{}, err
	}
	return purchase, record, nil
}

// GetPurchase resolves a purchase by invoice number.
func (s *Service) GetPurchase(ctx context.Context, invoice string) (Purchase, error) {
	return s.repo.GetPurchaseByInvoice(ctx, invoice)
}

func defaultTime(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now().UTC()
	}
	return value
}
