package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/proxy/apierrors"
	"github.com/pribylovaa/go-storefront/internal/storefront"
	logctx "github.com/pribylovaa/go-storefront/pkg/log"
)

// sessionResponse — ответ /session/*: токены фронту не отдаются.
type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeSession(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	out, err := h.SF.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: out.User})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeSession(w, r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	out, err := h.SF.Register(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Authenticated: true, User: out.User})
}

// Logout всегда закрывает локальную сессию; ошибка backend'а только логируется.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.SF.Logout(r.Context()); err != nil {
		logctx.From(r.Context()).Warn("logout_degraded", slog.String("err", err.Error()))
	}

	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
}

func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	info, err := h.SF.Session(r.Context())
	if errors.Is(err, storefront.ErrNotAuthenticated) {
		writeJSON(w, http.StatusOK, storefront.SessionInfo{})
		return
	}
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	// Отпечатки токенов фронту не нужны.
	info.AccessFP, info.RefreshFP = "", ""
	writeJSON(w, http.StatusOK, info)
}
