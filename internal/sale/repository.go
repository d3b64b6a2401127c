package sale

import "context"

// Repository is the persistence port for sales.
// The coordinator of the atomicity guarantee is InsertSale: implementations
// must write the header, all lines and the stock decrements as a single
// transaction, re-validating authoritative committed stock inside it, and
// roll the whole unit back on any failure. A stock shortfall surfaces as
// *InsufficientStockError; no partial effects may survive either way.
type Repository interface {
	InsertSale(ctx context.Context, s *Sale) error

	GetSale(ctx context.Context, id int64) (*Sale, error)

	// UpdateLine replaces a line's quantity and subtotals.
	UpdateLine(ctx context.Context, saleID int64, line SaleLine) error

	// DeleteLine removes a line from a committed sale.
	DeleteLine(ctx context.Context, saleID, lineID int64) error

	// UpdateTotals rewrites the header totals after a correction.
	UpdateTotals(ctx context.Context, s *Sale) error

	// Query lists sale summaries matching the filters, newest first.
	Query(ctx context.Context, f Filters) ([]Summary, error)
}
