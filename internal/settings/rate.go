package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/money"
)

// RateStore is the single source of truth for the current USD→local
// exchange rate. Reads are served from an in-process copy guarded by an
// RWMutex so totalling a cart never touches storage; writes persist first
// and publish the new value only after the write succeeded, so a failed
// SetRate leaves the previous rate in effect.
type RateStore struct {
	repo       Repository
	defaultVal decimal.Decimal

	mu      sync.RWMutex
	current decimal.Decimal
	loaded  bool
}

// NewRateStore builds a RateStore over the given repository. def is the
// documented fallback returned until a rate has ever been persisted.
func NewRateStore(repo Repository, def decimal.Decimal) *RateStore {
	return &RateStore{repo: repo, defaultVal: def}
}

// Load hydrates the in-process copy from storage. Call once at startup;
// a missing or malformed stored value falls back to the default.
func (s *RateStore) Load(ctx context.Context) error {
	raw, ok, err := s.repo.Get(ctx, KeyExchangeRate)
	if err != nil {
		return fmt.Errorf("settings: load exchange rate: %w", err)
	}

	rate := s.defaultVal
	if ok {
		parsed, perr := money.ParseAmount(raw)
		if perr == nil && parsed.Sign() > 0 {
			rate = parsed
		}
	}

	s.mu.Lock()
	s.current = rate
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Rate returns the rate currently in effect. Never fails: before the first
// Load (or if nothing was ever persisted) it returns the default.
func (s *RateStore) Rate() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return s.defaultVal
	}
	return s.current
}

// SetRate validates, persists and publishes a new rate. This is the only
// write path; every read after a successful SetRate observes the new value.
func (s *RateStore) SetRate(ctx context.Context, rate decimal.Decimal) error {
	if rate.Sign() <= 0 {
		return money.ErrInvalidRate
	}
	if err := s.repo.Set(ctx, KeyExchangeRate, rate.String()); err != nil {
		return fmt.Errorf("settings: persist exchange rate: %w", err)
	}

	s.mu.Lock()
	s.current = rate
	s.loaded = true
	s.mu.Unlock()
	return nil
}
