package procurement

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clinicore-erp/clinicore/internal/inventory"
	"github.com/clinicore-erp/clinicore/internal/returns"
	"github.com/clinicore-erp/clinicore/internal/shared"
)

type memoryProcRepo struct {
	drafts    map[int64]Draft
	purchases map[string]Purchase
	nextID    int64
}

type memoryProcTx struct {
	repo *memoryProcRepo
}

func newMemoryProcRepo() *memoryProcRepo {
	return &memoryProcRepo{
		drafts:    make(map[int64]Draft),
		purchases: make(map[string]Purchase),
	}
}

func (r *memoryProcRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryProcTx{repo: r})
}

func (r *memoryProcRepo) CreateDraft(ctx context.Context, draft Draft) (int64, error) {
	r.nextID++
	draft.ID = r.nextID
	r.drafts[draft.ID] = draft
	return draft.ID, nil
}

func (r *memoryProcRepo) GetDraft(ctx context.Context, id int64) (Draft, error) {
	draft, ok := r.drafts[id]
	if !ok {
		return Draft{}, fmt.Errorf("procurement: draft %d: %w", id, shared.ErrNotFound)
	}
	return draft, nil
}

func (r *memoryProcRepo) GetPurchaseByInvoice(ctx context.Context, invoice string) (Purchase, error) {
	purchase, ok := r.purchases[invoice]
	if !ok {
		return Purchase{}, fmt.Errorf("procurement: purchase %s: %w", invoice, shared.ErrNotFound)
	}
	cloned := purchase
	cloned.Lines = append([]Line(nil), purchase.Lines...)
	return cloned, nil
}

func (tx *memoryProcTx) CreatePurchase(ctx context.Context, purchase Purchase) (int64, error) {
	tx.repo.nextID++
	purchase.ID = tx.repo.nextID
	tx.repo.purchases[purchase.Invoice] = purchase
	return purchase.ID, nil
}

func (tx *memoryProcTx) DeleteDraft(ctx context.Context, id int64) error {
	if _, ok := tx.repo.drafts[id]; !ok {
		return fmt.Errorf("procurement: draft %d: %w", id, shared.ErrNotFound)
	}
	delete(tx.repo.drafts, id)
	return nil
}

func (tx *memoryProcTx) UpdatePurchase(ctx context.Context, purchase Purchase) error {
	for invoice, existing := range tx.repo.purchases {
		if existing.ID == purchase.ID {
			tx.repo.purchases[invoice] = purchase
			return nil
		}
	}
	return fmt.Errorf("procurement: purchase %d: %w", purchase.ID, shared.ErrNotFound)
}

type stubInventory struct {
	received   []inventory.ReceiveInput
	decrements map[string]float64
	failKeys   map[string]bool
}

func newStubInventory() *stubInventory {
	return &stubInventory{decrements: make(map[string]float64), failKeys: make(map[string]bool)}
}

func (s *stubInventory) Receive(ctx context.Context, input inventory.ReceiveInput) (inventory.Item, error) {
	s.received = append(s.received, input)
	return inventory.Item{Key: inventory.NormalizeKey(input.Name), OnHand: input.Qty}, nil
}

func (s *stubInventory) Decrement(ctx context.Context, name string, qty float64) error {
	key := inventory.NormalizeKey(name)
	if s.failKeys[key] {
		return shared.ErrNotFound
	}
	s.decrements[key] += qty
	return nil
}

type stubReturns struct {
	records []returns.Record
}

func (s *stubReturns) Create(ctx context.Context, record returns.Record) (returns.Record, error) {
	record.ID = fmt.Sprintf("ret-%d", len(s.records)+1)
	s.records = append(s.records, record)
	return record, nil
}

func newTestService() (*Service, *memoryProcRepo, *stubInventory, *stubReturns) {
	repo := newMemoryProcRepo()
	inv := newStubInventory()
	ret := &stubReturns{}
	return NewService(repo, inv, ret, nil), repo, inv, ret
}

func createParacetamolDraft(t *testing.T, svc *Service) Draft {
	t.Helper()
	draft, err := svc.CreateDraft(context.Background(), CreateDraftInput{
		Invoice:  "INV-100",
		Supplier: "Acme Pharma",
		Lines: []Line{{
			Name:         "Paracetamol",
			UnitsPerPack: 10,
			Packs:        5,
			BuyPerPack:   100,
			LineTax:      &LineTax{Type: TaxPercent, Value: 5},
		}},
	})
	require.NoError(t, err)
	return draft
}

func TestApproveDraft(t *testing.T) {
	svc, repo, inv, _ := newTestService()
	ctx := context.Background()

	draft := createParacetamolDraft(t, svc)
	require.InDelta(t, 525, draft.Totals.Net, 0.001)

	purchaseID, err := svc.ApproveDraft(ctx, draft.ID)
	require.NoError(t, err)
	require.NotZero(t, purchaseID)

	require.Len(t, inv.received, 1)
	require.InDelta(t, 50, inv.received[0].Qty, 0.001)
	require.InDelta(t, 10.5, inv.received[0].UnitCost, 0.000001)
	require.Equal(t, "INV-100", inv.received[0].Invoice)
	require.Equal(t, "Acme Pharma", inv.received[0].Supplier)

	purchase, err := svc.GetPurchase(ctx, "INV-100")
	require.NoError(t, err)
	require.InDelta(t, 525, purchase.TotalAmount, 0.001)

	_, ok := repo.drafts[draft.ID]
	require.False(t, ok, "draft must be deleted on approval")
}

func TestApproveDraftTwiceFailsNotFound(t *testing.T) {
	svc, _, inv, _ := newTestService()
	ctx := context.Background()

	draft := createParacetamolDraft(t, svc)
	_, err := svc.ApproveDraft(ctx, draft.ID)
	require.NoError(t, err)

	_, err = svc.ApproveDraft(ctx, draft.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Len(t, inv.received, 1, "inventory must not be double-credited")
}

func TestApproveDraftAbsent(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.ApproveDraft(context.Background(), 404)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestApproveSkipsUnnamedLines(t *testing.T) {
	svc, repo, inv, _ := newTestService()
	ctx := context.Background()

	repo.nextID++
	repo.drafts[repo.nextID] = Draft{
		ID:      repo.nextID,
		Invoice: "INV-200",
		Lines: []Line{
			{Name: "", TotalItems: 5, BuyPerUnit: 1},
			{Name: "Bandage", TotalItems: 5, BuyPerUnit: 1},
		},
	}
	_, err := svc.ApproveDraft(ctx, repo.nextID)
	require.NoError(t, err)
	require.Len(t, inv.received, 1)
	require.Equal(t, "Bandage", inv.received[0].Name)
}

func TestApproveTotalFallbackFromPacks(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	repo.nextID++
	repo.drafts[repo.nextID] = Draft{
		ID:      repo.nextID,
		Invoice: "INV-300",
		Lines:   []Line{{Name: "Gloves", UnitsPerPack: 100, Packs: 2, BuyPerPack: 40}},
	}
	_, err := svc.ApproveDraft(ctx, repo.nextID)
	require.NoError(t, err)

	purchase, err := svc.GetPurchase(ctx, "INV-300")
	require.NoError(t, err)
	require.InDelta(t, 80, purchase.TotalAmount, 0.001)
}

func seedGauzePurchase(repo *memoryProcRepo) {
	repo.nextID++
	repo.purchases["INV-400"] = Purchase{
		ID:       repo.nextID,
		Invoice:  "INV-400",
		Supplier: "MedSupply",
		Lines: []Line{{
			ItemID:             7,
			Name:               "Gauze",
			UnitsPerPack:       10,
			Packs:              10,
			TotalItems:         100,
			BuyPerUnitAfterTax: 2.10,
		}},
		TotalAmount: 210,
	}
}

func TestSupplierReturn(t *testing.T) {
	svc, repo, inv, ret := newTestService()
	ctx := context.Background()
	seedGauzePurchase(repo)

	purchase, record, err := svc.CreateSupplierReturn(ctx, SupplierReturnInput{
		Invoice: "INV-400",
		Lines:   []ReturnLineInput{{ItemID: 7, Qty: 20}},
	})
	require.NoError(t, err)

	require.Len(t, purchase.Lines, 1)
	require.InDelta(t, 80, purchase.Lines[0].TotalItems, 0.001)
	require.InDelta(t, 8, purchase.Lines[0].Packs, 0.001)
	require.InDelta(t, 168, purchase.TotalAmount, 0.001)

	require.Equal(t, returns.TypeSupplier, record.Type)
	require.Equal(t, "INV-400", record.Reference)
	require.Equal(t, "MedSupply", record.Party)
	require.InDelta(t, 20, record.Items, 0.001)
	require.InDelta(t, 42, record.Total, 0.001)
	require.Len(t, ret.records, 1)

	require.InDelta(t, 20, inv.decrements["gauze"], 0.001)

	persisted, err := svc.GetPurchase(ctx, "INV-400")
	require.NoError(t, err)
	require.InDelta(t, 168, persisted.TotalAmount, 0.001)
}

func TestSupplierReturnExceedingQtyRejected(t *testing.T) {
	svc, repo, _, ret := newTestService()
	ctx := context.Background()
	seedGauzePurchase(repo)

	_, _, err := svc.CreateSupplierReturn(ctx, SupplierReturnInput{
		Invoice: "INV-400",
		Lines:   []ReturnLineInput{{ItemID: 7, Qty: 150}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "return qty exceeds purchased qty")

	persisted, err := svc.GetPurchase(ctx, "INV-400")
	require.NoError(t, err)
	require.InDelta(t, 100, persisted.Lines[0].TotalItems, 0.001)
	require.InDelta(t, 210, persisted.TotalAmount, 0.001)
	require.Empty(t, ret.records)
}

func TestSupplierReturnUnknownItem(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	seedGauzePurchase(repo)

	_, _, err := svc.CreateSupplierReturn(ctx, SupplierReturnInput{
		Invoice: "INV-400",
		Lines:   []ReturnLineInput{{Name: "Scalpel", Qty: 1}},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "item not found in purchase")
}

func TestSupplierReturnZeroQtyIsNoOp(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	seedGauzePurchase(repo)

	purchase, record, err := svc.CreateSupplierReturn(ctx, SupplierReturnInput{
		Invoice: "INV-400",
		Lines:   []ReturnLineInput{{ItemID: 7, Qty: 0}},
	})
	require.NoError(t, err)
	require.InDelta(t, 100, purchase.Lines[0].TotalItems, 0.001)
	require.Zero(t, record.Items)
}

func TestSupplierReturnDropsExhaustedLines(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	seedGauzePurchase(repo)

	purchase, _, err := svc.CreateSupplierReturn(ctx, SupplierReturnInput{
		Invoice: "INV-400",
		Lines:   []ReturnLineInput{{ItemID: 7, Qty: 100}},
	})
	require.NoError(t, err)
	require.Empty(t, purchase.Lines)
	require.InDelta(t, 0, purchase.TotalAmount, 0.001)
}

func TestSupplierReturnByName(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()
	seedGauzePurchase(repo)

	purchase, _, err := svc.CreateSupplierReturn(ctx, SupplierReturnInput{
		Invoice: "INV-400",
		Lines:   []ReturnLineInput{{Name: " GAUZE ", Qty: 10}},
	})
	require.NoError(t, err)
	require.InDelta(t, 90, purchase.Lines[0].TotalItems, 0.001)
}

func TestSupplierReturnToleratesStockResolutionFailure(t *testing.T) {
	svc, repo, inv, ret := newTestService()
	ctx := context.Background()
	seedGauzePurchase(repo)
	inv.failKeys["gauze"] = true

	_, record, err := svc.CreateSupplierReturn(ctx, SupplierReturnInput{
		Invoice: "INV-400",
		Lines:   []ReturnLineInput{{ItemID: 7, Qty: 20}},
	})
	require.NoError(t, err, "stock decrement is best-effort")
	require.InDelta(t, 42, record.Total, 0.001)
	require.Len(t, ret.records, 1)
}

func TestSupplierReturnPurchaseAbsent(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, _, err := svc.CreateSupplierReturn(context.Background(), SupplierReturnInput{
		Invoice: "NOPE",
		Lines:   []ReturnLineInput{{Name: "Gauze", Qty: 1}},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.False(t, errors.Is(err, shared.ErrValidation))
}
