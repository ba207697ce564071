package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pribylovaa/go-storefront/internal/models"
)

// CreateOrder оформляет заказ из текущей корзины.
func (c *Client) CreateOrder(ctx context.Context, in models.CreateOrderRequest) (*models.Order, error) {
	const op = "storefront.orders.CreateOrder"

	if err := validateAddress(in.ShippingAddress); err != nil {
		return nil, invalid(op, err.Error())
	}

	var out models.Order
	if err := c.Do(ctx, http.MethodPost, "/orders", nil, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	const op = "storefront.orders.Orders"

	var out []models.Order
	if err := c.Do(ctx, http.MethodGet, "/orders", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (c *Client) Order(ctx context.Context, id string) (*models.Order, error) {
	const op = "storefront.orders.Order"

	if id == "" {
		return nil, invalid(op, "empty order id")
	}

	var out models.Order
	if err := c.Do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// validateAddress — только обязательные поля; формат адреса проверяет backend.
func validateAddress(a models.Address) error {
	switch {
	case a.Street == "":
		return fmt.Errorf("street is required")
	case a.City == "":
		return fmt.Errorf("city is required")
	case a.PostalCode == "":
		return fmt.Errorf("postal code is required")
	case a.Country == "":
		return fmt.Errorf("country is required")
	}

	return nil
}
