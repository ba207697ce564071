package storefront

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/go-storefront/internal/models"
)

func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	const op = "storefront.profile.Profile"

	var out models.Profile
	if err := c.Do(ctx, http.MethodGet, "/profile", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// UpdateProfile — частичное обновление (PATCH); пустой запрос отклоняется.
func (c *Client) UpdateProfile(ctx context.Context, in models.UpdateProfileRequest) (*models.Profile, error) {
	const op = "storefront.profile.UpdateProfile"

	if in.FirstName == nil && in.LastName == nil && in.Phone == nil && in.Address == nil {
		return nil, invalid(op, "nothing to update")
	}

	var out models.Profile
	if err := c.Do(ctx, http.MethodPatch, "/profile", nil, in, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}
