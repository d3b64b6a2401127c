package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/cart"
	"github.com/jcmexdev/profitus-pos/internal/catalog"
	"github.com/jcmexdev/profitus-pos/internal/money"
	"github.com/jcmexdev/profitus-pos/internal/sale"
	"github.com/jcmexdev/profitus-pos/internal/settings"
)

// Handler exposes the point-of-sale core over HTTP: catalog lookups and
// maintenance, the exchange rate and company settings, session carts,
// checkout and the sale history.
//
// catalog is the read path the sale flow uses (possibly cache-wrapped);
// admin is the uncached maintenance port for the inventory screens.
type Handler struct {
	catalog  catalog.Accessor
	admin    catalog.Admin
	rates    *settings.RateStore
	settings settings.Repository
	engine   *sale.Engine
	sessions *Sessions
}

func NewHandler(
	cat catalog.Accessor,
	admin catalog.Admin,
	rates *settings.RateStore,
	settingsRepo settings.Repository,
	engine *sale.Engine,
	sessions *Sessions,
) *Handler {
	return &Handler{
		catalog:  cat,
		admin:    admin,
		rates:    rates,
		settings: settingsRepo,
		engine:   engine,
		sessions: sessions,
	}
}

// SearchProducts lists products matching ?q= by code or name; an empty
// query lists everything.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}

	rate := h.rates.Rate()
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = mapProduct(p, rate)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct returns one product. The path segment is a numeric ID or,
// failing that, a business code: operators scan and type both.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "id")

	var (
		p   catalog.Product
		err error
	)
	if id, convErr := strconv.ParseInt(ref, 10, 64); convErr == nil {
		p, err = h.catalog.FindByID(r.Context(), id)
	} else {
		p, err = h.catalog.FindByCode(r.Context(), ref)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p, h.rates.Rate()))
}

// ListLowStock lists products at or below their alert threshold.
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.admin.ListLowStock(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog_error", err.Error())
		return
	}
	rate := h.rates.Rate()
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = mapProduct(p, rate)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	id, err := h.admin.Create(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusCreated, mapProduct(p, h.rates.Rate()))
}

// UpdateProduct replaces a product's fields.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	p.ID = id
	if err := h.admin.Update(r.Context(), p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapProduct(p, h.rates.Rate()))
}

// DeleteProduct removes a product from the catalog. Committed sale lines
// keep the frozen name and prices they were sold under.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.admin.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRate returns the exchange rate currently in effect.
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RateResponse{Rate: h.rates.Rate().String()})
}

// SetRate updates the exchange rate for all future pricing. Committed
// sales keep the rate they were sold at.
func (h *Handler) SetRate(w http.ResponseWriter, r *http.Request) {
	var req SetRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	rate, err := money.ParseAmount(req.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_rate", err.Error())
		return
	}
	if err := h.rates.SetRate(r.Context(), rate); err != nil {
		writeDomainError(w, err)
		return
	}
	slog.InfoContext(r.Context(), "exchange rate updated", "rate", rate.String())
	writeJSON(w, http.StatusOK, RateResponse{Rate: rate.String()})
}

// settingKey maps the {key} path segment to a stored settings key. The
// exchange rate has its own validated endpoint and is not reachable here.
func settingKey(name string) (string, bool) {
	switch name {
	case "company_name":
		return settings.KeyCompanyName, true
	case "company_logo":
		return settings.KeyCompanyLogo, true
	}
	return "", false
}

// GetSetting returns one company setting.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key, ok := settingKey(chi.URLParam(r, "key"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_setting", "")
		return
	}
	value, found, err := h.settings.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "settings_error", err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "setting_not_set", "")
		return
	}
	writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: value})
}

// PutSetting stores one company setting.
func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key, ok := settingKey(chi.URLParam(r, "key"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_setting", "")
		return
	}
	var req SetSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.settings.Set(r.Context(), key, req.Value); err != nil {
		writeError(w, http.StatusInternalServerError, "settings_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SettingResponse{Key: key, Value: req.Value})
}

// CreateCart opens a new empty cart session.
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, CreateCartResponse{CartID: h.sessions.Create()})
}

// GetCart returns the cart's lines and dual-currency totals at the
// current rate.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var resp CartResponse
	ok, _ := h.sessions.With(id, func(c *cart.Cart) error {
		resp = mapCart(id, c, h.rates.Rate())
		return nil
	})
	if !ok {
		writeError(w, http.StatusNotFound, "cart_not_found", "")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AddLine adds one unit of a product to the cart, by ID or by code.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	var (
		p   catalog.Product
		err error
	)
	switch {
	case req.ProductID > 0:
		p, err = h.catalog.FindByID(r.Context(), req.ProductID)
	case req.Code != "":
		p, err = h.catalog.FindByCode(r.Context(), req.Code)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id or code is required")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.mutateCart(w, r, func(c *cart.Cart) error {
		_, err := c.Add(p)
		return err
	})
}

// SetLineQuantity sets a line to an absolute quantity.
func (h *Handler) SetLineQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	qty, err := money.ParseAmount(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		return
	}

	h.mutateCart(w, r, func(c *cart.Cart) error {
		return c.SetQuantity(productID, qty)
	})
}

// AdjustLineQuantity applies a relative delta; at or below zero the line
// is removed.
func (h *Handler) AdjustLineQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	var req AdjustQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	delta, err := money.ParseAmount(req.Delta)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_delta", err.Error())
		return
	}

	h.mutateCart(w, r, func(c *cart.Cart) error {
		return c.AdjustQuantity(productID, delta)
	})
}

// RemoveLine drops a line from the cart. Removing an absent line is fine.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}
	h.mutateCart(w, r, func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
}

// Checkout commits the session's cart as one atomic sale. On success the
// session is dropped; on any failure the cart survives untouched so the
// operator can adjust and retry.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	req := sale.CheckoutRequest{
		Payment:         sale.PaymentMethod(dto.Payment),
		CashCurrency:    sale.CashCurrency(dto.CashCurrency),
		MobileReference: dto.MobileReference,
		OperatorID:      dto.OperatorID,
	}
	if dto.AmountReceived != "" {
		amount, err := money.ParseAmount(dto.AmountReceived)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
			return
		}
		req.AmountReceived = amount
	}

	var res *sale.CheckoutResult
	ok, err := h.sessions.With(id, func(c *cart.Cart) error {
		var err error
		res, err = h.engine.Checkout(r.Context(), c, req)
		return err
	})
	if !ok {
		writeError(w, http.StatusNotFound, "cart_not_found", "")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.sessions.Drop(id)
	writeJSON(w, http.StatusCreated, CheckoutResponse{
		Sale:           mapSale(res.Sale),
		ChangeInTender: res.ChangeInTender.String(),
		TenderCurrency: string(res.TenderCurrency),
	})
}

// ListSales reports sale summaries, optionally filtered by ?from=, ?to=
// (RFC 3339) and ?operator_id=.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	var f sale.Filters
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", err.Error())
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", err.Error())
			return
		}
		f.To = &t
	}
	if v := q.Get("operator_id"); v != "" {
		op, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_operator_id", err.Error())
			return
		}
		f.OperatorID = &op
	}

	summaries, err := h.engine.Report(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]SaleSummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = SaleSummaryResponse{
			ID:         s.ID,
			Receipt:    s.Receipt,
			SoldAt:     s.SoldAt.Format(time.RFC3339),
			OperatorID: s.OperatorID,
			Payment:    string(s.Payment),
			TotalUSD:   s.TotalUSD.String(),
			TotalBs:    s.TotalLocal.String(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSale returns one committed sale with its lines.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s, err := h.engine.Get(r.Context(), saleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSale(s))
}

// EditSaleLine corrects a committed line's quantity; subtotals and header
// totals are recomputed, stock is not touched.
func (h *Handler) EditSaleLine(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}
	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	qty, err := money.ParseAmount(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		return
	}

	s, err := h.engine.EditLineQuantity(r.Context(), saleID, lineID, qty)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSale(s))
}

// DeleteSaleLine removes a committed line and recomputes the header.
func (h *Handler) DeleteSaleLine(w http.ResponseWriter, r *http.Request) {
	saleID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	lineID, ok := pathID(w, r, "lineID")
	if !ok {
		return
	}
	s, err := h.engine.DeleteLine(r.Context(), saleID, lineID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSale(s))
}

// mutateCart runs a cart mutation for the {id} session and, on success,
// responds with the refreshed cart view.
func (h *Handler) mutateCart(w http.ResponseWriter, r *http.Request, fn func(*cart.Cart) error) {
	id := chi.URLParam(r, "id")
	var resp CartResponse
	ok, err := h.sessions.With(id, func(c *cart.Cart) error {
		if err := fn(c); err != nil {
			return err
		}
		resp = mapCart(id, c, h.rates.Rate())
		return nil
	})
	if !ok {
		writeError(w, http.StatusNotFound, "cart_not_found", "")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// decodeProduct parses a product payload, defaulting stock and min_stock
// to zero when omitted. Writes the error response itself on failure.
func decodeProduct(w http.ResponseWriter, r *http.Request) (catalog.Product, bool) {
	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return catalog.Product{}, false
	}
	if req.Code == "" || req.Name == "" || req.PriceUSD == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code, name and price_usd are required")
		return catalog.Product{}, false
	}

	p := catalog.Product{
		Code:     req.Code,
		Name:     req.Name,
		Category: req.Category,
		Supplier: req.Supplier,
		Brand:    req.Brand,
	}
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"price_usd", req.PriceUSD, &p.UnitPriceUSD},
		{"cost_usd", req.CostUSD, &p.UnitCostUSD},
		{"stock", req.Stock, &p.Stock},
		{"min_stock", req.MinStock, &p.MinStock},
	}
	for _, f := range fields {
		if f.raw == "" {
			*f.dst = decimal.Zero
			continue
		}
		v, err := money.ParseAmount(f.raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_"+f.name, err.Error())
			return catalog.Product{}, false
		}
		*f.dst = v
	}
	return p, true
}

func mapProduct(p catalog.Product, rate decimal.Decimal) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Code:     p.Code,
		Name:     p.Name,
		Stock:    p.Stock.String(),
		PriceUSD: p.UnitPriceUSD.String(),
		PriceBs:  money.ToLocal(p.UnitPriceUSD, rate).String(),
		Category: p.Category,
		Brand:    p.Brand,
		LowStock: p.LowStock(),
	}
}

func mapCart(id string, c *cart.Cart, rate decimal.Decimal) CartResponse {
	lines := c.Lines()
	out := make([]CartLineResponse, len(lines))
	for i, l := range lines {
		out[i] = CartLineResponse{
			ProductID:   l.ProductID,
			Name:        l.Name,
			Quantity:    l.Quantity.String(),
			PriceUSD:    l.UnitPriceUSD.String(),
			SubtotalUSD: l.SubtotalUSD().String(),
		}
	}
	usd, local := c.Totals(rate)
	return CartResponse{
		CartID:   id,
		Lines:    out,
		TotalUSD: usd.String(),
		TotalBs:  local.String(),
		Rate:     rate.String(),
	}
}

func mapSale(s *sale.Sale) SaleResponse {
	lines := make([]SaleLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = SaleLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			Name:        l.ProductName,
			Quantity:    l.Quantity.String(),
			PriceUSD:    l.UnitPriceUSD.String(),
			PriceBs:     l.UnitPriceLocal.String(),
			SubtotalUSD: l.SubtotalUSD.String(),
			SubtotalBs:  l.SubtotalLocal.String(),
		}
	}
	return SaleResponse{
		ID:              s.ID,
		Receipt:         s.Receipt,
		SoldAt:          s.SoldAt.Format(time.RFC3339),
		TotalUSD:        s.TotalUSD.String(),
		TotalBs:         s.TotalLocal.String(),
		ExchangeRate:    s.ExchangeRate.String(),
		OperatorID:      s.OperatorID,
		Payment:         string(s.Payment),
		ReceivedUSD:     s.AmountReceivedUSD.String(),
		ChangeUSD:       s.ChangeGivenUSD.String(),
		MobileReference: s.MobileReference,
		Lines:           lines,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}

// writeDomainError maps core errors onto HTTP statuses so clients can
// tell a rejected request from a broken server.
func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *sale.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
	case errors.Is(err, cart.ErrOutOfStock):
		writeError(w, http.StatusConflict, "out_of_stock", err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, sale.ErrNotFound):
		writeError(w, http.StatusNotFound, "sale_not_found", err.Error())
	case errors.Is(err, sale.ErrLineNotFound), errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "line_not_found", err.Error())
	case errors.Is(err, sale.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, sale.ErrInsufficientPayment):
		writeError(w, http.StatusBadRequest, "insufficient_payment", err.Error())
	case errors.Is(err, sale.ErrMissingReference):
		writeError(w, http.StatusBadRequest, "missing_reference", err.Error())
	case errors.Is(err, sale.ErrInvalidPayment):
		writeError(w, http.StatusBadRequest, "invalid_payment", err.Error())
	case errors.Is(err, sale.ErrInvalidQuantity), errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, money.ErrInvalidRate):
		writeError(w, http.StatusConflict, "invalid_rate", err.Error())
	case errors.Is(err, sale.ErrStorageFailure):
		writeError(w, http.StatusInternalServerError, "storage_failure", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
