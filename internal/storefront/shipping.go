package storefront

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/go-storefront/internal/models"
)

// QuoteShipping запрашивает у backend'а стоимость доставки.
func (c *Client) QuoteShipping(ctx context.Context, in models.ShippingQuoteRequest) (*models.ShippingQuote, error) {
	const op = "storefront.shipping.QuoteShipping"

	if err := validateAddress(in.Address); err != nil {
		return nil, invalid(op, err.Error())
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, invalid(op, "items need product id and positive quantity")
		}
	}

	var out models.ShippingQuote
	if err := c.Do(ctx, http.MethodPost, "/shipping/calculate", nil, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
