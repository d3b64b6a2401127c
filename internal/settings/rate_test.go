package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/money"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRateDefaultsWhenUnset(t *testing.T) {
	s := NewRateStore(NewMemory(), dec("36.50"))
	if got := s.Rate(); !got.Equal(dec("36.50")) {
		t.Fatalf("expected default 36.50, got %s", got)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s.Rate(); !got.Equal(dec("36.50")) {
		t.Fatalf("expected default after load, got %s", got)
	}
}

func TestSetRatePersistsAndPublishes(t *testing.T) {
	repo := NewMemory()
	s := NewRateStore(repo, dec("36.50"))
	if err := s.SetRate(context.Background(), dec("40.25")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := s.Rate(); !got.Equal(dec("40.25")) {
		t.Fatalf("expected 40.25, got %s", got)
	}

	// A fresh store over the same repository sees the persisted value.
	s2 := NewRateStore(repo, dec("1"))
	if err := s2.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s2.Rate(); !got.Equal(dec("40.25")) {
		t.Fatalf("expected persisted 40.25, got %s", got)
	}
}

func TestSetRateRejectsNonPositive(t *testing.T) {
	s := NewRateStore(NewMemory(), dec("36.50"))
	if err := s.SetRate(context.Background(), dec("38.00")); err != nil {
		t.Fatalf("set: %v", err)
	}

	for _, bad := range []string{"0", "-5"} {
		if err := s.SetRate(context.Background(), dec(bad)); !errors.Is(err, money.ErrInvalidRate) {
			t.Fatalf("rate %s: expected ErrInvalidRate, got %v", bad, err)
		}
	}
	// Previously stored rate is untouched.
	if got := s.Rate(); !got.Equal(dec("38.00")) {
		t.Fatalf("expected 38.00 preserved, got %s", got)
	}
}

func TestLoadFallsBackOnGarbage(t *testing.T) {
	repo := NewMemory()
	_ = repo.Set(context.Background(), KeyExchangeRate, "not a number")
	s := NewRateStore(repo, dec("36.00"))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := s.Rate(); !got.Equal(dec("36.00")) {
		t.Fatalf("expected default on garbage, got %s", got)
	}
}
