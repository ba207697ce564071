package models

// ShippingQuoteRequest — адрес доставки; состав берётся из корзины на стороне backend,
// если Items пуст.
type ShippingQuoteRequest struct {
	Address Address              `json:"address"`
	Items   []AddCartItemRequest `json:"items,omitempty"`
}

// ShippingQuote — расчёт стоимости доставки. Формулу знает только backend.
type ShippingQuote struct {
	Cost          float64 `json:"cost"`
	Currency      string  `json:"currency,omitempty"`
	Carrier       string  `json:"carrier,omitempty"`
	EstimatedDays int     `json:"estimatedDays,omitempty"`
}
