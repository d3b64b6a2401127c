package catalog

import "context"

// Accessor is the read-only view of the catalog the sale core depends on.
// Stock values returned here are advisory snapshots; the authoritative
// stock check happens inside the checkout transaction, which is the only
// place stock is ever decremented.
type Accessor interface {
	FindByID(ctx context.Context, id int64) (Product, error)
	FindByCode(ctx context.Context, code string) (Product, error)
	// Search matches code or name, case-insensitively; an empty term
	// returns the whole catalog ordered by name.
	Search(ctx context.Context, term string) ([]Product, error)
}

// Admin extends the read port with the maintenance operations the
// inventory screens use. The sale core never sees this interface.
type Admin interface {
	Accessor
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, p Product) error
	Delete(ctx context.Context, id int64) error
	ListLowStock(ctx context.Context) ([]Product, error)
}
