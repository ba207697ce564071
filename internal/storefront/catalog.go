package storefront

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pribylovaa/go-storefront/internal/models"
)

// ListProducts — страница каталога.
func (c *Client) ListProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	const op = "storefront.catalog.ListProducts"

	if q.Page < 0 || q.Limit < 0 {
		return nil, invalid(op, "page and limit must be non-negative")
	}

	v := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	var out models.ProductPage
	if err := c.Do(ctx, http.MethodGet, "/products", v, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*models.Product, error) {
	const op = "storefront.catalog.Product"

	if id == "" {
		return nil, invalid(op, "empty product id")
	}

	var out models.Product
	if err := c.Do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
