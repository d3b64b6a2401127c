// Package sale is the transaction core: it turns a validated cart into a
// persisted sale as one all-or-nothing unit, decrementing committed stock
// in lockstep, and offers the post-hoc correction path for committed sales.
package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates how a sale was paid.
type PaymentMethod string

const (
	PaymentCash           PaymentMethod = "CASH"
	PaymentCard           PaymentMethod = "CARD"
	PaymentMobileTransfer PaymentMethod = "MOBILE_TRANSFER"
	PaymentElectronic     PaymentMethod = "ELECTRONIC_CURRENCY"
)

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobileTransfer, PaymentElectronic:
		return true
	}
	return false
}

// CashCurrency is the currency cash was tendered in. The sale record
// always stores received/change in USD; the tendered currency only
// affects how the operator counts the drawer.
type CashCurrency string

const (
	CashUSD   CashCurrency = "USD"
	CashLocal CashCurrency = "BS"
)

// SaleLine is one committed line of a sale. Prices are frozen at commit
// time: the exchange rate may move afterwards without touching history.
type SaleLine struct {
	ID             int64
	ProductID      int64
	ProductName    string
	Quantity       decimal.Decimal
	UnitPriceUSD   decimal.Decimal
	UnitPriceLocal decimal.Decimal
	SubtotalUSD    decimal.Decimal
	SubtotalLocal  decimal.Decimal
}

// Sale is a committed sale header with its lines. Immutable once written,
// except through the explicit correction path.
type Sale struct {
	ID                int64
	Receipt           string
	SoldAt            time.Time
	TotalUSD          decimal.Decimal
	TotalLocal        decimal.Decimal
	ExchangeRate      decimal.Decimal
	OperatorID        int64
	Payment           PaymentMethod
	AmountReceivedUSD decimal.Decimal
	ChangeGivenUSD    decimal.Decimal
	MobileReference   string
	Lines             []SaleLine
}

// Summary is the report row shape: header fields without lines.
type Summary struct {
	ID         int64
	Receipt    string
	SoldAt     time.Time
	OperatorID int64
	Payment    PaymentMethod
	TotalUSD   decimal.Decimal
	TotalLocal decimal.Decimal
}

// Filters narrows a report query. Nil fields match everything.
type Filters struct {
	From       *time.Time
	To         *time.Time
	OperatorID *int64
}
