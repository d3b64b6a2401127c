package sale

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart: checkout attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInsufficientPayment: cash tendered below the amount due.
	ErrInsufficientPayment = errors.New("amount received is less than the total due")

	// ErrMissingReference: mobile-transfer payment without a reference.
	ErrMissingReference = errors.New("mobile payment reference is required")

	// ErrInvalidPayment: unknown payment method or cash currency.
	ErrInvalidPayment = errors.New("invalid payment method")

	// ErrInvalidQuantity: non-positive quantity supplied to a correction.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	// ErrStorageFailure: the persistence layer could not complete the
	// atomic write. The whole unit was rolled back; nothing persisted.
	ErrStorageFailure = errors.New("storage failure, sale not recorded")

	// ErrNotFound: no sale with that id.
	ErrNotFound = errors.New("sale not found")

	// ErrLineNotFound: the sale exists but has no such line.
	ErrLineNotFound = errors.New("sale line not found")
)

// InsufficientStockError is the checkout-time authoritative stock failure:
// committed stock was below the cart quantity at commit time. It carries
// what is actually available so the operator can adjust and retry.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %s, available %s",
		e.ProductName, e.Requested, e.Available)
}
