package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clinicore-erp/clinicore/internal/shared"
)

type memoryRepo struct {
	items map[string]Item
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[string]Item)}
}

func (r *memoryRepo) GetByKey(ctx context.Context, key string) (Item, error) {
	item, ok := r.items[key]
	if !ok {
		return Item{}, shared.ErrNotFound
	}
	return item, nil
}

func (r *memoryRepo) Upsert(ctx context.Context, item Item, addQty float64) error {
	r.items[item.Key] = item
	return nil
}

func (r *memoryRepo) DecrementOnHand(ctx context.Context, key string, qty float64) error {
	item, ok := r.items[key]
	if !ok {
		return shared.ErrNotFound
	}
	item.OnHand -= qty
	if item.OnHand < 0 {
		item.OnHand = 0
	}
	r.items[key] = item
	return nil
}

func TestReceiveIntoEmptyInventory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	item, err := svc.Receive(ctx, ReceiveInput{
		Name:         "Paracetamol",
		Qty:          50,
		UnitCost:     10.5,
		UnitsPerPack: 10,
		Invoice:      "INV-1",
		Supplier:     "Acme Pharma",
	})
	require.NoError(t, err)
	require.Equal(t, "paracetamol", item.Key)
	require.InDelta(t, 50, item.OnHand, 0.0001)
	require.InDelta(t, 10.5, item.AvgCostPerUnit, 0.000001)
	require.Equal(t, "INV-1", item.LastInvoice)
	require.Equal(t, "Acme Pharma", item.LastSupplier)
}

func TestWeightedAverage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{Name: "Gauze", Qty: 100, UnitCost: 2.0})
	require.NoError(t, err)

	item, err := svc.Receive(ctx, ReceiveInput{Name: "gauze ", Qty: 50, UnitCost: 3.5})
	require.NoError(t, err)
	// (2.0*100 + 3.5*50) / 150
	require.InDelta(t, 2.5, item.AvgCostPerUnit, 0.000001)
	require.InDelta(t, 150, item.OnHand, 0.0001)
}

func TestReceiveZeroQtyKeepsAverage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{Name: "Syringe", Qty: 10, UnitCost: 4})
	require.NoError(t, err)

	item, err := svc.Receive(ctx, ReceiveInput{Name: "Syringe", Qty: 0, UnitCost: 99})
	require.NoError(t, err)
	require.InDelta(t, 4, item.AvgCostPerUnit, 0.000001)
	require.InDelta(t, 10, item.OnHand, 0.0001)
}

func TestExpiryMinMerge(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	early := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	item, err := svc.Receive(ctx, ReceiveInput{Name: "Insulin", Qty: 5, UnitCost: 30, Expiry: early})
	require.NoError(t, err)
	require.Equal(t, early, item.EarliestExpiry)

	item, err = svc.Receive(ctx, ReceiveInput{Name: "Insulin", Qty: 5, UnitCost: 30, Expiry: late})
	require.NoError(t, err)
	require.Equal(t, early, item.EarliestExpiry)
	require.Equal(t, late, item.LastExpiry)
}

func TestMetadataNotBlankedOnLaterReceive(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{Name: "Amoxicillin", Qty: 10, UnitCost: 1, GenericName: "amoxicillin trihydrate", Category: "antibiotic", MinStock: 20})
	require.NoError(t, err)

	item, err := svc.Receive(ctx, ReceiveInput{Name: "Amoxicillin", Qty: 10, UnitCost: 1})
	require.NoError(t, err)
	require.Equal(t, "amoxicillin trihydrate", item.GenericName)
	require.Equal(t, "antibiotic", item.Category)
	require.InDelta(t, 20, item.MinStock, 0.0001)
}

func TestDecrementFlooredAtZero(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{Name: "Gloves", Qty: 10, UnitCost: 0.5})
	require.NoError(t, err)

	require.NoError(t, svc.Decrement(ctx, "Gloves", 25))
	item, err := svc.GetByKey(ctx, "gloves")
	require.NoError(t, err)
	require.Zero(t, item.OnHand)

	// non-positive qty is a no-op, not an error
	require.NoError(t, svc.Decrement(ctx, "Gloves", 0))
	require.ErrorIs(t, svc.Decrement(ctx, "Unknown", 1), shared.ErrNotFound)
}
