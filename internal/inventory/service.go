package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clinicore-erp/clinicore/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	GetByKey(ctx context.Context, key string) (Item, error)
	Upsert(ctx context.Context, item Item, addQty float64) error
	DecrementOnHand(ctx context.Context, key string, qty float64) error
}

// Service coordinates inventory aggregate updates.
type Service struct {
	repo   RepositoryPort
	locks  shared.KeyedLocker
	logger *slog.Logger
}

// NewService builds Service. The locker serializes the averaging
// read-modify-write per item key; two concurrent approvals touching the same
// item would otherwise lose an update.
func NewService(repo RepositoryPort, locks shared.KeyedLocker, logger *slog.Logger) *Service {
	if locks == nil {
		locks = shared.NewKeyedMutex()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, locks: locks, logger: logger}
}

// Receive credits an approved draft line into the aggregate: weighted-average
// reprice, provenance overwrite, min-merge of the expiry date. Metadata fields
// are copied only when present on the line, never blanked.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) (Item, error) {
	if input.Qty < 0 {
		return Item{}, ErrInvalidQuantity
	}
	key := NormalizeKey(input.Name)
	if key == "" {
		return Item{}, fmt.Errorf("%w: item name required", shared.ErrValidation)
	}

	unlock, err := s.locks.Lock(ctx, shared.InventoryLockKey(key))
	if err != nil {
		return Item{}, fmt.Errorf("inventory: lock %s: %w", key, err)
	}
	defer unlock()

	prev, err := s.repo.GetByKey(ctx, key)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return Item{}, err
	}
	if errors.Is(err, shared.ErrNotFound) {
		prev = Item{Key: key}
	}

	newQty := prev.OnHand + input.Qty
	if newQty < 0 {
		newQty = 0
	}
	newAvg := prev.AvgCostPerUnit
	if newQty > 0 {
		newAvg = shared.Round6((prev.AvgCostPerUnit*prev.OnHand + input.UnitCost*input.Qty) / newQty)
	}

	item := Item{
		Key:            key,
		Name:           input.Name,
		GenericName:    pick(input.GenericName, prev.GenericName),
		Category:       pick(input.Category, prev.Category),
		OnHand:         newQty,
		UnitsPerPack:   input.UnitsPerPack,
		AvgCostPerUnit: newAvg,
		MinStock:       prev.MinStock,
		LastInvoice:    input.Invoice,
		LastSupplier:   input.Supplier,
		LastUnitCost:   input.UnitCost,
		LastExpiry:     input.Expiry,
		EarliestExpiry: minExpiry(prev.EarliestExpiry, input.Expiry),
		UpdatedAt:      time.Now().UTC(),
	}
	if input.MinStock > 0 {
		item.MinStock = input.MinStock
	}
	if item.UnitsPerPack <= 0 {
		item.UnitsPerPack = prev.UnitsPerPack
	}

	if err := s.repo.Upsert(ctx, item, input.Qty); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Decrement reduces on-hand stock for a returned line, floored at zero. The
// aggregate is never repriced on the way down.
func (s *Service) Decrement(ctx context.Context, name string, qty float64) error {
	if qty <= 0 {
		return nil
	}
	key := NormalizeKey(name)
	if key == "" {
		return shared.ErrNotFound
	}
	return s.repo.DecrementOnHand(ctx, key, qty)
}

// GetByKey returns the aggregate for a normalized key.
func (s *Service) GetByKey(ctx context.Context, key string) (Item, error) {
	return s.repo.GetByKey(ctx, NormalizeKey(key))
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

// minExpiry keeps the earliest known date; the merged value never regresses
// to a later one.
func minExpiry(current, incoming time.Time) time.Time {
	switch {
	case incoming.IsZero():
		return current
	case current.IsZero():
		return incoming
	case incoming.Before(current):
		return incoming
	default:
		return current
	}
}
