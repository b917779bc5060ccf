// Package catalog resolves test catalog entries by id or name for the order
// return flow. Catalog CRUD lives elsewhere in the suite; this package only
// consumes it.
package catalog

import (
	"fmt"

	"github.com/clinicore-erp/clinicore/internal/shared"
)

// Test is a catalog service entry.
type Test struct {
	ID   int64
	Name string
}

// ErrTestNotFound indicates the test is absent from the catalog.
var ErrTestNotFound = fmt.Errorf("catalog: test: %w", shared.ErrNotFound)
