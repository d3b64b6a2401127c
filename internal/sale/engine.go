package sale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/cart"
	"github.com/jcmexdev/profitus-pos/internal/money"
	"github.com/jcmexdev/profitus-pos/internal/sale/salelog"
	"github.com/jcmexdev/profitus-pos/internal/settings"
)

// CheckoutRequest is everything checkout needs besides the cart itself.
type CheckoutRequest struct {
	Payment         PaymentMethod
	CashCurrency    CashCurrency // only meaningful for cash
	AmountReceived  decimal.Decimal
	MobileReference string
	OperatorID      int64
}

// CheckoutResult is a successful checkout. ChangeInTender is the change in
// the currency the cash was tendered in, exact to the drawer; the Sale
// record itself stores received/change in USD.
type CheckoutResult struct {
	Sale           *Sale
	ChangeInTender decimal.Decimal
	TenderCurrency CashCurrency
}

// Engine converts carts into persisted sales and owns the correction path.
type Engine struct {
	rates          *settings.RateStore
	repo           Repository
	auditLog       salelog.Repository // nil-safe: auditing skipped if nil
	storageTimeout time.Duration
}

// NewEngine wires the transaction engine. auditLog may be nil; a zero
// storageTimeout means storage calls inherit the caller's deadline.
func NewEngine(rates *settings.RateStore, repo Repository, auditLog salelog.Repository, storageTimeout time.Duration) *Engine {
	return &Engine{
		rates:          rates,
		repo:           repo,
		auditLog:       auditLog,
		storageTimeout: storageTimeout,
	}
}

// Checkout validates the cart, computes dual-currency totals at the rate
// in effect right now, validates payment, and commits header, lines and
// stock decrements as one atomic unit.
//
// Every failure returns a distinguishable error kind with zero side
// effects: the cart is untouched and no stock moved, so the operator can
// adjust and retry. Only on success is the cart cleared.
func (e *Engine) Checkout(ctx context.Context, c *cart.Cart, req CheckoutRequest) (*CheckoutResult, error) {
	if c.Len() == 0 {
		return nil, ErrEmptyCart
	}

	rate := e.rates.Rate()
	if rate.Sign() <= 0 {
		return nil, money.ErrInvalidRate
	}

	totalUSD, totalLocal := c.Totals(rate)

	lines := make([]SaleLine, 0, c.Len())
	for _, l := range c.Lines() {
		unitLocal := money.ToLocal(l.UnitPriceUSD, rate)
		lines = append(lines, SaleLine{
			ProductID:      l.ProductID,
			ProductName:    l.Name,
			Quantity:       l.Quantity,
			UnitPriceUSD:   l.UnitPriceUSD,
			UnitPriceLocal: unitLocal,
			SubtotalUSD:    l.SubtotalUSD(),
			SubtotalLocal:  money.RoundAmount(l.Quantity.Mul(unitLocal)),
		})
	}

	pay, err := validatePayment(req, totalUSD, totalLocal, rate)
	if err != nil {
		return nil, err
	}

	s := &Sale{
		Receipt:           uuid.NewString(),
		SoldAt:            time.Now().UTC(),
		TotalUSD:          totalUSD,
		TotalLocal:        totalLocal,
		ExchangeRate:      rate,
		OperatorID:        req.OperatorID,
		Payment:           req.Payment,
		AmountReceivedUSD: pay.receivedUSD,
		ChangeGivenUSD:    pay.changeUSD,
		MobileReference:   req.MobileReference,
		Lines:             lines,
	}

	e.audit(ctx, salelog.NewEntry(ctx, s.Receipt, salelog.StatusStarted, req.OperatorID, ""))

	insertCtx, cancel := e.withTimeout(ctx)
	defer cancel()
	if err := e.repo.InsertSale(insertCtx, s); err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			e.audit(ctx, salelog.NewEntry(ctx, s.Receipt, salelog.StatusRejected, req.OperatorID, stockErr.Error()))
			return nil, err
		}
		e.audit(ctx, salelog.NewEntry(ctx, s.Receipt, salelog.StatusFailed, req.OperatorID, err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	c.Clear()
	e.audit(ctx, salelog.NewEntry(ctx, s.Receipt, salelog.StatusCommitted, req.OperatorID, ""))
	slog.InfoContext(ctx, "sale committed",
		"sale_id", s.ID,
		"receipt", s.Receipt,
		"total_usd", s.TotalUSD.String(),
		"lines", len(s.Lines),
	)

	return &CheckoutResult{
		Sale:           s,
		ChangeInTender: pay.changeTender,
		TenderCurrency: pay.tender,
	}, nil
}

type paymentOutcome struct {
	receivedUSD  decimal.Decimal
	changeUSD    decimal.Decimal
	changeTender decimal.Decimal
	tender       CashCurrency
}

// validatePayment checks the tender covers the total. Cash is validated
// in the tendered currency (so the drawer math stays exact) and converted
// to USD for the record; card-like methods are treated as paid in full.
func validatePayment(req CheckoutRequest, totalUSD, totalLocal, rate decimal.Decimal) (paymentOutcome, error) {
	switch req.Payment {
	case PaymentCash:
		tender := req.CashCurrency
		if tender == "" {
			tender = CashUSD
		}
		if tender != CashUSD && tender != CashLocal {
			return paymentOutcome{}, ErrInvalidPayment
		}

		due := totalUSD
		if tender == CashLocal {
			due = totalLocal
		}
		if req.AmountReceived.LessThan(due) {
			return paymentOutcome{}, ErrInsufficientPayment
		}
		change := req.AmountReceived.Sub(due)

		out := paymentOutcome{changeTender: change, tender: tender}
		if tender == CashUSD {
			out.receivedUSD = req.AmountReceived
			out.changeUSD = change
			return out, nil
		}
		var err error
		if out.receivedUSD, err = money.ToUSD(req.AmountReceived, rate); err != nil {
			return paymentOutcome{}, err
		}
		if out.changeUSD, err = money.ToUSD(change, rate); err != nil {
			return paymentOutcome{}, err
		}
		return out, nil

	case PaymentMobileTransfer:
		if req.MobileReference == "" {
			return paymentOutcome{}, ErrMissingReference
		}
		return paymentOutcome{receivedUSD: totalUSD, tender: CashUSD}, nil

	case PaymentCard, PaymentElectronic:
		return paymentOutcome{receivedUSD: totalUSD, tender: CashUSD}, nil

	default:
		return paymentOutcome{}, ErrInvalidPayment
	}
}

// EditLineQuantity corrects a committed sale line's quantity, recomputing
// its subtotals from the frozen unit prices and the header totals from
// the surviving lines. Inventory stock is never adjusted here: this is a
// financial-record correction, not an inventory movement.
func (e *Engine) EditLineQuantity(ctx context.Context, saleID, lineID int64, qty decimal.Decimal) (*Sale, error) {
	if qty.Sign() <= 0 {
		return nil, ErrInvalidQuantity
	}

	opCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	s, err := e.repo.GetSale(opCtx, saleID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range s.Lines {
		if s.Lines[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrLineNotFound
	}

	l := &s.Lines[idx]
	l.Quantity = qty
	l.SubtotalUSD = money.RoundAmount(qty.Mul(l.UnitPriceUSD))
	l.SubtotalLocal = money.RoundAmount(qty.Mul(l.UnitPriceLocal))

	if err := e.repo.UpdateLine(opCtx, saleID, *l); err != nil {
		return nil, err
	}
	return e.recomputeTotals(opCtx, s)
}

// DeleteLine removes a line from a committed sale and recomputes the
// header totals. Same stock policy as EditLineQuantity: none.
func (e *Engine) DeleteLine(ctx context.Context, saleID, lineID int64) (*Sale, error) {
	opCtx, cancel := e.withTimeout(ctx)
	defer cancel()

	s, err := e.repo.GetSale(opCtx, saleID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range s.Lines {
		if s.Lines[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrLineNotFound
	}

	if err := e.repo.DeleteLine(opCtx, saleID, lineID); err != nil {
		return nil, err
	}
	s.Lines = append(s.Lines[:idx], s.Lines[idx+1:]...)
	return e.recomputeTotals(opCtx, s)
}

// Get returns one committed sale with its lines.
func (e *Engine) Get(ctx context.Context, saleID int64) (*Sale, error) {
	opCtx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.repo.GetSale(opCtx, saleID)
}

// Report lists sale summaries matching the filters.
func (e *Engine) Report(ctx context.Context, f Filters) ([]Summary, error) {
	opCtx, cancel := e.withTimeout(ctx)
	defer cancel()
	return e.repo.Query(opCtx, f)
}

// recomputeTotals re-derives header totals from the sale's lines so
// total_usd == sum(subtotal_usd) stays true after corrections.
func (e *Engine) recomputeTotals(ctx context.Context, s *Sale) (*Sale, error) {
	totalUSD, totalLocal := decimal.Zero, decimal.Zero
	for _, l := range s.Lines {
		totalUSD = totalUSD.Add(l.SubtotalUSD)
		totalLocal = totalLocal.Add(l.SubtotalLocal)
	}
	s.TotalUSD = totalUSD
	s.TotalLocal = totalLocal

	if err := e.repo.UpdateTotals(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (e *Engine) audit(ctx context.Context, entry *salelog.Entry) {
	if e.auditLog == nil {
		return
	}
	if err := e.auditLog.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "checkout audit write failed", "attempt", entry.AttemptID, "error", err)
	}
}

func (e *Engine) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.storageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.storageTimeout)
}
