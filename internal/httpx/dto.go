package httpx

// Monetary amounts and quantities travel as decimal strings on the wire
// so clients never see binary-float artifacts.

type RateResponse struct {
	Rate string `json:"rate"`
}

type SetRateRequest struct {
	Rate string `json:"rate"`
}

type SettingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SetSettingRequest struct {
	Value string `json:"value"`
}

type ProductRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Stock    string `json:"stock"`
	PriceUSD string `json:"price_usd"`
	CostUSD  string `json:"cost_usd"`
	MinStock string `json:"min_stock"`
	Category string `json:"category,omitempty"`
	Supplier string `json:"supplier,omitempty"`
	Brand    string `json:"brand,omitempty"`
}

type ProductResponse struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Stock    string `json:"stock"`
	PriceUSD string `json:"price_usd"`
	PriceBs  string `json:"price_bs"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
	LowStock bool   `json:"low_stock"`
}

type CreateCartResponse struct {
	CartID string `json:"cart_id"`
}

type AddLineRequest struct {
	ProductID int64  `json:"product_id,omitempty"`
	Code      string `json:"code,omitempty"`
}

type SetQuantityRequest struct {
	Quantity string `json:"quantity"`
}

type AdjustQuantityRequest struct {
	Delta string `json:"delta"`
}

type CartLineResponse struct {
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	PriceUSD    string `json:"price_usd"`
	SubtotalUSD string `json:"subtotal_usd"`
}

type CartResponse struct {
	CartID   string             `json:"cart_id"`
	Lines    []CartLineResponse `json:"lines"`
	TotalUSD string             `json:"total_usd"`
	TotalBs  string             `json:"total_bs"`
	Rate     string             `json:"rate"`
}

type CheckoutRequestDTO struct {
	Payment         string `json:"payment_method"`
	CashCurrency    string `json:"cash_currency,omitempty"`
	AmountReceived  string `json:"amount_received,omitempty"`
	MobileReference string `json:"mobile_reference,omitempty"`
	OperatorID      int64  `json:"operator_id,omitempty"`
}

type CheckoutResponse struct {
	Sale           SaleResponse `json:"sale"`
	ChangeInTender string       `json:"change_in_tender"`
	TenderCurrency string       `json:"tender_currency"`
}

type SaleLineResponse struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	PriceUSD    string `json:"price_usd"`
	PriceBs     string `json:"price_bs"`
	SubtotalUSD string `json:"subtotal_usd"`
	SubtotalBs  string `json:"subtotal_bs"`
}

type SaleResponse struct {
	ID              int64              `json:"id"`
	Receipt         string             `json:"receipt"`
	SoldAt          string             `json:"sold_at"`
	TotalUSD        string             `json:"total_usd"`
	TotalBs         string             `json:"total_bs"`
	ExchangeRate    string             `json:"exchange_rate"`
	OperatorID      int64              `json:"operator_id"`
	Payment         string             `json:"payment_method"`
	ReceivedUSD     string             `json:"amount_received_usd"`
	ChangeUSD       string             `json:"change_given_usd"`
	MobileReference string             `json:"mobile_reference,omitempty"`
	Lines           []SaleLineResponse `json:"lines"`
}

type SaleSummaryResponse struct {
	ID         int64  `json:"id"`
	Receipt    string `json:"receipt"`
	SoldAt     string `json:"sold_at"`
	OperatorID int64  `json:"operator_id"`
	Payment    string `json:"payment_method"`
	TotalUSD   string `json:"total_usd"`
	TotalBs    string `json:"total_bs"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
