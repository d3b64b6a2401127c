// Package settings is the process-wide configuration store: a small
// key/value table holding the exchange rate, the company name and similar
// knobs. The exchange rate gets a dedicated accessor (RateStore) because
// it is read on every price computation and must never block those reads
// on storage.
package settings

import "context"

// Well-known keys. The rate key is the only one the core mutates through
// a dedicated path; the rest are plain pass-through values for the UI.
const (
	KeyExchangeRate = "exchange_rate"
	KeyCompanyName  = "company_name"
	KeyCompanyLogo  = "company_logo_path"
)

// Repository is the persistence port for settings.
// Implementations: sqlite (production), memory (tests).
type Repository interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set upserts the value for a key.
	Set(ctx context.Context, key, value string) error
}
