package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clinicore-erp/clinicore/internal/catalog"
	"github.com/clinicore-erp/clinicore/internal/returns"
	"github.com/clinicore-erp/clinicore/internal/shared"
)

// RepositoryPort loads orders and persists return marks.
type RepositoryPort interface {
	GetByRef(ctx context.Context, ref string) (Order, error)
	UpdateReturns(ctx context.Context, id int64, returnedTests []int64, status Status) error
}

// CatalogPort resolves test identity for record lines and undo-by-name.
type CatalogPort interface {
	GetTest(ctx context.Context, id int64) (catalog.Test, error)
	FindTestByName(ctx context.Context, name string) (catalog.Test, error)
}

// ReturnsPort manages the customer return records tied to an order.
type ReturnsPort interface {
	Create(ctx context.Context, rec returns.Record) (returns.Record, error)
	ListCustomerByReference(ctx context.Context, ref string) ([]returns.Record, error)
	Update(ctx context.Context, rec returns.Record) error
	Delete(ctx context.Context, id string) error
}

// LedgerPort reverses the billing entries of a returned order.
type LedgerPort interface {
	ReverseForOrder(ctx context.Context, orderRef string) error
}

type Service struct {
	repo    RepositoryPort
	catalog CatalogPort
	returns ReturnsPort
	ledger  LedgerPort
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo RepositoryPort, cat CatalogPort, ret ReturnsPort, ledger LedgerPort, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: cat,
		returns: ret,
		ledger:  ledger,
		logger:  logger,
		now:     time.Now,
	}
}

type CustomerReturnInput struct {
	OrderRef string
	// TestID selects a single test; zero means return the whole order.
	TestID int64
	Note   string
}

// CreateCustomerReturn marks one test, or every test, of an order as
// returned. The mark is a set union, so repeating a return is idempotent on
// the order itself; each call still appends its own return record. Customer
// return lines carry no monetary amount, the billing ledger reversal is the
// financial side and is applied at most once per order.
func (s *Service) CreateCustomerReturn(ctx context.Context, input CustomerReturnInput) (Order, returns.Record, error) {
	order, err := s.repo.GetByRef(ctx, input.OrderRef)
	if err != nil {
		return Order{}, returns.Record{}, err
	}

	var lines []returns.Line
	if input.TestID != 0 {
		if !contains(order.Tests, input.TestID) {
			return Order{}, returns.Record{}, fmt.Errorf("%w: test %d not part of order %d", shared.ErrNotFound, input.TestID, order.ID)
		}
		if !contains(order.ReturnedTests, input.TestID) {
			order.ReturnedTests = append(order.ReturnedTests, input.TestID)
		}
		lines = append(lines, returns.Line{
			ItemID: input.TestID,
			Name:   s.testName(ctx, input.TestID),
			Qty:    1,
			Amount: 0,
		})
	} else {
		// Whole-order path. Marks everything regardless of prior state.
		for _, id := range order.Tests {
			if !contains(order.ReturnedTests, id) {
				order.ReturnedTests = append(order.ReturnedTests, id)
			}
			lines = append(lines, returns.Line{
				ItemID: id,
				Name:   s.testName(ctx, id),
				Qty:    1,
				Amount: 0,
			})
		}
	}

	order.Status = deriveStatus(order)
	if err := s.repo.UpdateReturns(ctx, order.ID, order.ReturnedTests, order.Status); err != nil {
		return Order{}, returns.Record{}, err
	}

	// The order mutation is already durable; a ledger failure here is
	// accepted drift and must not unwind the return.
	if err := s.ledger.ReverseForOrder(ctx, orderReference(order)); err != nil {
		s.logger.Warn("order return ledger reversal failed",
			slog.String("order", orderReference(order)),
			slog.String("error", err.Error()))
	}

	rec := returns.Record{
		Type:      returns.TypeCustomer,
		At:        s.now(),
		Reference: orderReference(order),
		Party:     order.PatientName,
		Note:      input.Note,
		Lines:     lines,
	}
	rec.Recount()
	rec, err = s.returns.Create(ctx, rec)
	if err != nil {
		return Order{}, returns.Record{}, err
	}
	return order, rec, nil
}

type UndoInput struct {
	OrderRef string
	// Either TestID or TestName selects the test to restore.
	TestID   int64
	TestName string
}

// UndoCustomerReturn removes a single test's return mark and trims the
// matching line from the most recent customer return record that still holds
// it. Undoing a test that is not marked returned is a no-op.
func (s *Service) UndoCustomerReturn(ctx context.Context, input UndoInput) (Order, error) {
	order, err := s.repo.GetByRef(ctx, input.OrderRef)
	if err != nil {
		return Order{}, err
	}

	testID := input.TestID
	testName := input.TestName
	if testID == 0 {
		if testName == "" {
			return Order{}, fmt.Errorf("%w: test id or name required", shared.ErrValidation)
		}
		test, err := s.catalog.FindTestByName(ctx, testName)
		if err != nil {
			return Order{}, err
		}
		testID = test.ID
		testName = test.Name
	}

	if !contains(order.ReturnedTests, testID) {
		return order, nil
	}

	order.ReturnedTests = remove(order.ReturnedTests, testID)
	order.Status = deriveStatus(order)
	if err := s.repo.UpdateReturns(ctx, order.ID, order.ReturnedTests, order.Status); err != nil {
		return Order{}, err
	}

	if err := s.trimReturnRecord(ctx, orderReference(order), testID, testName); err != nil {
		s.logger.Warn("order return record trim failed",
			slog.String("order", orderReference(order)),
			slog.Int64("test", testID),
			slog.String("error", err.Error()))
	}
	return order, nil
}

// trimReturnRecord drops one line for the test from the newest customer
// return record referencing the order. Records emptied by the trim are
// deleted outright.
func (s *Service) trimReturnRecord(ctx context.Context, orderRef string, testID int64, testName string) error {
	records, err := s.returns.ListCustomerByReference(ctx, orderRef)
	if err != nil {
		return err
	}
	for _, rec := range records {
		idx := -1
		for i, line := range rec.Lines {
			if line.ItemID == testID {
				idx = i
				break
			}
		}
		if idx < 0 && testName != "" {
			for i, line := range rec.Lines {
				if line.Name == testName {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			continue
		}
		rec.Lines = append(rec.Lines[:idx], rec.Lines[idx+1:]...)
		if len(rec.Lines) == 0 {
			return s.returns.Delete(ctx, rec.ID)
		}
		rec.Recount()
		return s.returns.Update(ctx, rec)
	}
	return nil
}

func (s *Service) GetByRef(ctx context.Context, ref string) (Order, error) {
	return s.repo.GetByRef(ctx, ref)
}

// testName resolves a catalog name for display on return lines. Resolution
// failures degrade to an empty name rather than failing the return.
func (s *Service) testName(ctx context.Context, id int64) string {
	test, err := s.catalog.GetTest(ctx, id)
	if err != nil {
		s.logger.Warn("test name lookup failed",
			slog.Int64("test", id),
			slog.String("error", err.Error()))
		return ""
	}
	return test.Name
}

// orderReference prefers the external token over the numeric id when linking
// return records back to the order.
func orderReference(order Order) string {
	if order.Token != "" {
		return order.Token
	}
	return fmt.Sprintf("%d", order.ID)
}
