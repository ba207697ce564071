package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pribylovaa/go-storefront/pkg/redact"
)

// SessionInfo — локальные сведения о текущей сессии.
//
// Claims access-токена читаются БЕЗ проверки подписи: только для отображения
// (кто вошёл, когда истекает). Доверенной проверкой занимается backend.
type SessionInfo struct {
	Authenticated bool      `json:"authenticated"`
	Subject       string    `json:"subject,omitempty"`
	Email         string    `json:"email,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitempty"`
	Expired       bool      `json:"expired"`
	AccessFP      string    `json:"accessFingerprint,omitempty"`
	RefreshFP     string    `json:"refreshFingerprint,omitempty"`
}

// Session читает пару из хранилища; сетевых вызовов не делает.
// Без пары — ErrNotAuthenticated. Непрозрачный (не JWT) access-токен
// не ошибка: заполняются только отпечатки.
func (c *Client) Session(ctx context.Context) (*SessionInfo, error) {
	const op = "storefront.session.Session"

	pair, err := c.api.Store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if pair.Empty() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	info := &SessionInfo{
		Authenticated: true,
		AccessFP:      redact.Fingerprint(pair.AccessToken),
		RefreshFP:     redact.Fingerprint(pair.RefreshToken),
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, claims); err != nil {
		return info, nil
	}

	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		info.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time.UTC()
		info.Expired = !info.ExpiresAt.After(time.Now())
	}

	return info, nil
}
