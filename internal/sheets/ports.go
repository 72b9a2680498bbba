// Package sheets defines the outbound port used to mirror ledger tables into
// a spreadsheet service.
package sheets

import (
	"context"

	"fintrack/internal/export"
)

// Ports for outbound adapters.
type (
	// TableWriter replaces the contents of the worksheet named after the
	// table with the table's header and rows.
	TableWriter interface {
		WriteTable(ctx context.Context, t export.Table) (ref string, err error)
	}
)
