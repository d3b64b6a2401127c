package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/profitus-pos/internal/catalog"
	"github.com/jcmexdev/profitus-pos/internal/sale"
	"github.com/jcmexdev/profitus-pos/internal/settings"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeSaleRepo is an in-memory sale.Repository mirroring the SQLite
// adapter's stock check and all-or-nothing behavior.
type fakeSaleRepo struct {
	mu         sync.Mutex
	stock      map[int64]decimal.Decimal
	sales      map[int64]*sale.Sale
	nextSaleID int64
	nextLineID int64
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{
		stock: make(map[int64]decimal.Decimal),
		sales: make(map[int64]*sale.Sale),
	}
}

func (r *fakeSaleRepo) InsertSale(_ context.Context, s *sale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range s.Lines {
		avail := r.stock[l.ProductID]
		if avail.LessThan(l.Quantity) {
			return &sale.InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Requested:   l.Quantity,
				Available:   avail,
			}
		}
	}
	for _, l := range s.Lines {
		r.stock[l.ProductID] = r.stock[l.ProductID].Sub(l.Quantity)
	}
	r.nextSaleID++
	s.ID = r.nextSaleID
	for i := range s.Lines {
		r.nextLineID++
		s.Lines[i].ID = r.nextLineID
	}
	stored := *s
	stored.Lines = append([]sale.SaleLine(nil), s.Lines...)
	r.sales[s.ID] = &stored
	return nil
}

func (r *fakeSaleRepo) GetSale(_ context.Context, id int64) (*sale.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, sale.ErrNotFound
	}
	cp := *s
	cp.Lines = append([]sale.SaleLine(nil), s.Lines...)
	return &cp, nil
}

func (r *fakeSaleRepo) UpdateLine(_ context.Context, saleID int64, line sale.SaleLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[saleID]
	if !ok {
		return sale.ErrNotFound
	}
	for i := range s.Lines {
		if s.Lines[i].ID == line.ID {
			s.Lines[i] = line
			return nil
		}
	}
	return sale.ErrLineNotFound
}

func (r *fakeSaleRepo) DeleteLine(_ context.Context, saleID, lineID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[saleID]
	if !ok {
		return sale.ErrNotFound
	}
	for i := range s.Lines {
		if s.Lines[i].ID == lineID {
			s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
			return nil
		}
	}
	return sale.ErrLineNotFound
}

func (r *fakeSaleRepo) UpdateTotals(_ context.Context, s *sale.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sales[s.ID]
	if !ok {
		return sale.ErrNotFound
	}
	stored.TotalUSD = s.TotalUSD
	stored.TotalLocal = s.TotalLocal
	return nil
}

func (r *fakeSaleRepo) Query(_ context.Context, _ sale.Filters) ([]sale.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sale.Summary, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, sale.Summary{
			ID: s.ID, Receipt: s.Receipt, SoldAt: s.SoldAt,
			OperatorID: s.OperatorID, Payment: s.Payment,
			TotalUSD: s.TotalUSD, TotalLocal: s.TotalLocal,
		})
	}
	return out, nil
}

type testServer struct {
	router http.Handler
	repo   *fakeSaleRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mouse := catalog.Product{ID: 1, Code: "P003", Name: "Wireless Mouse", Stock: dec("50"), UnitPriceUSD: dec("10.00")}
	bulb := catalog.Product{ID: 2, Code: "I001", Name: "LED Bulb 10W", Stock: dec("100"), UnitPriceUSD: dec("2.50")}
	cat := catalog.NewMemory(mouse, bulb)

	settingsRepo := settings.NewMemory()
	rates := settings.NewRateStore(settingsRepo, dec("36.50"))
	if err := rates.SetRate(context.Background(), dec("36.00")); err != nil {
		t.Fatalf("set rate: %v", err)
	}

	repo := newFakeSaleRepo()
	repo.stock[1] = dec("50")
	repo.stock[2] = dec("100")

	engine := sale.NewEngine(rates, repo, nil, time.Second)
	handler := NewHandler(cat, cat, rates, settingsRepo, engine, NewSessions())
	return &testServer{router: NewRouter(handler), repo: repo}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status %d, want %d: %s", rec.Code, want, rec.Body.String())
	}
}

func TestRateEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/rate", nil)
	wantStatus(t, rec, http.StatusOK)
	if got := decodeAs[RateResponse](t, rec); !dec(got.Rate).Equal(dec("36.00")) {
		t.Fatalf("rate: %s", got.Rate)
	}

	// Comma decimals are accepted on input.
	rec = ts.do(t, http.MethodPut, "/rate", SetRateRequest{Rate: "40,50"})
	wantStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/rate", nil)
	if got := decodeAs[RateResponse](t, rec); !dec(got.Rate).Equal(dec("40.50")) {
		t.Fatalf("rate after update: %s", got.Rate)
	}

	rec = ts.do(t, http.MethodPut, "/rate", SetRateRequest{Rate: "0"})
	wantStatus(t, rec, http.StatusConflict)
}

func TestSearchProducts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/products?q=mouse", nil)
	wantStatus(t, rec, http.StatusOK)
	got := decodeAs[[]ProductResponse](t, rec)
	if len(got) != 1 || got[0].Code != "P003" {
		t.Fatalf("search: %+v", got)
	}
	// Bs price derived at the current rate: 10.00 * 36.00.
	if !dec(got[0].PriceBs).Equal(dec("360.00")) {
		t.Fatalf("price bs: %s", got[0].PriceBs)
	}

	rec = ts.do(t, http.MethodGet, "/products/I001", nil)
	wantStatus(t, rec, http.StatusOK)
	if p := decodeAs[ProductResponse](t, rec); p.ID != 2 {
		t.Fatalf("by code: %+v", p)
	}

	rec = ts.do(t, http.MethodGet, "/products/NOPE", nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestCartFlowAndCheckout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/carts", nil)
	wantStatus(t, rec, http.StatusCreated)
	cartID := decodeAs[CreateCartResponse](t, rec).CartID

	rec = ts.do(t, http.MethodPost, "/carts/"+cartID+"/lines", AddLineRequest{Code: "P003"})
	wantStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodPut, "/carts/"+cartID+"/lines/1", SetQuantityRequest{Quantity: "2"})
	wantStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodPost, "/carts/"+cartID+"/lines", AddLineRequest{ProductID: 2})
	wantStatus(t, rec, http.StatusOK)
	rec = ts.do(t, http.MethodPut, "/carts/"+cartID+"/lines/2", SetQuantityRequest{Quantity: "4"})
	wantStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/carts/"+cartID, nil)
	wantStatus(t, rec, http.StatusOK)
	cartView := decodeAs[CartResponse](t, rec)
	if len(cartView.Lines) != 2 {
		t.Fatalf("lines: %+v", cartView.Lines)
	}
	if !dec(cartView.TotalUSD).Equal(dec("30.00")) || !dec(cartView.TotalBs).Equal(dec("1080.00")) {
		t.Fatalf("totals: %s / %s", cartView.TotalUSD, cartView.TotalBs)
	}

	rec = ts.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", CheckoutRequestDTO{
		Payment:        "CASH",
		CashCurrency:   "BS",
		AmountReceived: "1100.00",
		OperatorID:     7,
	})
	wantStatus(t, rec, http.StatusCreated)
	res := decodeAs[CheckoutResponse](t, rec)
	if !dec(res.ChangeInTender).Equal(dec("20.00")) || res.TenderCurrency != "BS" {
		t.Fatalf("change: %s %s", res.ChangeInTender, res.TenderCurrency)
	}
	if !dec(res.Sale.TotalUSD).Equal(dec("30.00")) || !dec(res.Sale.ChangeUSD).Equal(dec("0.56")) {
		t.Fatalf("sale: %+v", res.Sale)
	}

	// The session is gone after a committed checkout.
	rec = ts.do(t, http.MethodGet, "/carts/"+cartID, nil)
	wantStatus(t, rec, http.StatusNotFound)

	// The sale is queryable afterwards.
	rec = ts.do(t, http.MethodGet, "/sales", nil)
	wantStatus(t, rec, http.StatusOK)
	if summaries := decodeAs[[]SaleSummaryResponse](t, rec); len(summaries) != 1 {
		t.Fatalf("summaries: %+v", summaries)
	}
}

func TestCheckoutInsufficientStockKeepsCart(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/carts", nil)
	cartID := decodeAs[CreateCartResponse](t, rec).CartID

	rec = ts.do(t, http.MethodPost, "/carts/"+cartID+"/lines", AddLineRequest{Code: "P003"})
	wantStatus(t, rec, http.StatusOK)
	rec = ts.do(t, http.MethodPut, "/carts/"+cartID+"/lines/1", SetQuantityRequest{Quantity: "5"})
	wantStatus(t, rec, http.StatusOK)

	// Committed stock drops below the cart's quantity before checkout.
	ts.repo.mu.Lock()
	ts.repo.stock[1] = dec("3")
	ts.repo.mu.Unlock()

	rec = ts.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", CheckoutRequestDTO{Payment: "CARD"})
	wantStatus(t, rec, http.StatusConflict)
	if e := decodeAs[ErrorResponse](t, rec); e.Error != "insufficient_stock" {
		t.Fatalf("error code: %s", e.Error)
	}

	// The cart survives so the operator can adjust and retry.
	rec = ts.do(t, http.MethodGet, "/carts/"+cartID, nil)
	wantStatus(t, rec, http.StatusOK)
	if view := decodeAs[CartResponse](t, rec); len(view.Lines) != 1 {
		t.Fatalf("cart lost: %+v", view)
	}
}

func TestSaleCorrectionEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/carts", nil)
	cartID := decodeAs[CreateCartResponse](t, rec).CartID
	ts.do(t, http.MethodPost, "/carts/"+cartID+"/lines", AddLineRequest{Code: "P003"})
	ts.do(t, http.MethodPut, "/carts/"+cartID+"/lines/1", SetQuantityRequest{Quantity: "2"})
	ts.do(t, http.MethodPost, "/carts/"+cartID+"/lines", AddLineRequest{ProductID: 2})

	rec = ts.do(t, http.MethodPost, "/carts/"+cartID+"/checkout", CheckoutRequestDTO{Payment: "CARD"})
	wantStatus(t, rec, http.StatusCreated)
	committed := decodeAs[CheckoutResponse](t, rec).Sale

	lineID := committed.Lines[0].ID
	rec = ts.do(t, http.MethodPut,
		"/sales/1/lines/"+itoa(lineID), SetQuantityRequest{Quantity: "3"})
	wantStatus(t, rec, http.StatusOK)
	// 3 x 10.00 + 1 x 2.50.
	if s := decodeAs[SaleResponse](t, rec); !dec(s.TotalUSD).Equal(dec("32.50")) {
		t.Fatalf("total after edit: %s", s.TotalUSD)
	}

	rec = ts.do(t, http.MethodDelete, "/sales/1/lines/"+itoa(lineID), nil)
	wantStatus(t, rec, http.StatusOK)
	s := decodeAs[SaleResponse](t, rec)
	if len(s.Lines) != 1 || !dec(s.TotalUSD).Equal(dec("2.50")) {
		t.Fatalf("after delete: %+v", s)
	}

	rec = ts.do(t, http.MethodDelete, "/sales/1/lines/"+itoa(lineID), nil)
	wantStatus(t, rec, http.StatusNotFound)

	rec = ts.do(t, http.MethodPut, "/sales/1/lines/"+itoa(s.Lines[0].ID), SetQuantityRequest{Quantity: "0"})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestProductAdminEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/products", ProductRequest{
		Code:     "H001",
		Name:     "Claw Hammer",
		Stock:    "4",
		PriceUSD: "8.00",
		CostUSD:  "5.00",
		MinStock: "10",
		Category: "Tools",
	})
	wantStatus(t, rec, http.StatusCreated)
	created := decodeAs[ProductResponse](t, rec)
	if created.ID == 0 || created.Code != "H001" {
		t.Fatalf("created: %+v", created)
	}

	// Stock 4 against min_stock 10 puts it on the low-stock list.
	rec = ts.do(t, http.MethodGet, "/products/low-stock", nil)
	wantStatus(t, rec, http.StatusOK)
	low := decodeAs[[]ProductResponse](t, rec)
	if len(low) != 1 || low[0].Code != "H001" || !low[0].LowStock {
		t.Fatalf("low stock: %+v", low)
	}

	rec = ts.do(t, http.MethodPut, "/products/"+itoa(created.ID), ProductRequest{
		Code:     "H001",
		Name:     "Claw Hammer",
		Stock:    "45",
		PriceUSD: "8.50",
		CostUSD:  "5.00",
		MinStock: "10",
	})
	wantStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/products/H001", nil)
	wantStatus(t, rec, http.StatusOK)
	got := decodeAs[ProductResponse](t, rec)
	if !dec(got.PriceUSD).Equal(dec("8.50")) || !dec(got.Stock).Equal(dec("45")) {
		t.Fatalf("after update: %+v", got)
	}

	// Restocked, so the low-stock list empties.
	rec = ts.do(t, http.MethodGet, "/products/low-stock", nil)
	if low := decodeAs[[]ProductResponse](t, rec); len(low) != 0 {
		t.Fatalf("still low: %+v", low)
	}

	rec = ts.do(t, http.MethodPut, "/products/"+itoa(created.ID), ProductRequest{Code: "H001"})
	wantStatus(t, rec, http.StatusBadRequest)

	rec = ts.do(t, http.MethodDelete, "/products/"+itoa(created.ID), nil)
	wantStatus(t, rec, http.StatusNoContent)
	rec = ts.do(t, http.MethodDelete, "/products/"+itoa(created.ID), nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestSettingsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/settings/company_name", nil)
	wantStatus(t, rec, http.StatusNotFound)
	if e := decodeAs[ErrorResponse](t, rec); e.Error != "setting_not_set" {
		t.Fatalf("error code: %s", e.Error)
	}

	rec = ts.do(t, http.MethodPut, "/settings/company_name", SetSettingRequest{Value: "Comercial El Sol"})
	wantStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/settings/company_name", nil)
	wantStatus(t, rec, http.StatusOK)
	if got := decodeAs[SettingResponse](t, rec); got.Value != "Comercial El Sol" {
		t.Fatalf("value: %q", got.Value)
	}

	// Only company settings pass through; the rate has its own endpoint.
	rec = ts.do(t, http.MethodGet, "/settings/exchange_rate", nil)
	wantStatus(t, rec, http.StatusNotFound)
	if e := decodeAs[ErrorResponse](t, rec); e.Error != "unknown_setting" {
		t.Fatalf("error code: %s", e.Error)
	}
	rec = ts.do(t, http.MethodPut, "/settings/theme", SetSettingRequest{Value: "dark"})
	wantStatus(t, rec, http.StatusNotFound)
}

func TestCartNotFound(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/carts/no-such-cart", nil)
	wantStatus(t, rec, http.StatusNotFound)
	rec = ts.do(t, http.MethodPost, "/carts/no-such-cart/checkout", CheckoutRequestDTO{Payment: "CARD"})
	wantStatus(t, rec, http.StatusNotFound)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
