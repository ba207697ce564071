package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pribylovaa/go-storefront/internal/models"
)

func (c *Client) Cart(ctx context.Context) (*models.Cart, error) {
	const op = "storefront.cart.Cart"

	var out models.Cart
	if err := c.Do(ctx, http.MethodGet, "/cart", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// AddItem добавляет товар в корзину и возвращает её новое состояние.
func (c *Client) AddItem(ctx context.Context, productID string, qty int) (*models.Cart, error) {
	const op = "storefront.cart.AddItem"

	if productID == "" {
		return nil, invalid(op, "empty product id")
	}
	if qty <= 0 {
		return nil, invalid(op, "quantity must be positive")
	}

	var out models.Cart
	in := models.AddCartItemRequest{ProductID: productID, Quantity: qty}
	if err := c.Do(ctx, http.MethodPost, "/cart/items", nil, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) UpdateItem(ctx context.Context, itemID string, qty int) (*models.Cart, error) {
	const op = "storefront.cart.UpdateItem"

	if itemID == "" {
		return nil, invalid(op, "empty item id")
	}
	if qty <= 0 {
		return nil, invalid(op, "quantity must be positive")
	}

	var out models.Cart
	in := models.UpdateCartItemRequest{Quantity: qty}
	if err := c.Do(ctx, http.MethodPatch, "/cart/items/"+url.PathEscape(itemID), nil, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) RemoveItem(ctx context.Context, itemID string) (*models.Cart, error) {
	const op = "storefront.cart.RemoveItem"

	if itemID == "" {
		return nil, invalid(op, "empty item id")
	}

	var out models.Cart
	if err := c.Do(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(itemID), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) ClearCart(ctx context.Context) error {
	const op = "storefront.cart.ClearCart"

	if err := c.Do(ctx, http.MethodDelete, "/cart", nil, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
