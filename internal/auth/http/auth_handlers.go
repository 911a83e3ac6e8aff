// Package http exposes the auth API over JSON.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/halolight/officehub/internal/auth/service"
	"github.com/halolight/officehub/pkg/httpx"
	"github.com/halolight/officehub/pkg/slogx"
)

const (
	minPasswordLen = 6
	maxBodyBytes   = 64 << 10
)

type authHandlers struct {
	auth *service.AuthService
	// devMode exposes password reset tokens in responses instead of
	// delivering them by email.
	devMode bool
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func validUsername(username string) bool {
	if len(username) < 3 || len(username) > 32 {
		return false
	}
	for _, c := range username {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}

func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{IP: httpx.ClientIPKey(r), UserAgent: r.UserAgent()}
}

func (h *authHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		httpx.Error(w, http.StatusBadRequest, "Name is required")
		return
	case !validEmail(req.Email):
		httpx.Error(w, http.StatusBadRequest, "A valid email is required")
		return
	case !validUsername(strings.TrimSpace(req.Username)):
		httpx.Error(w, http.StatusBadRequest, "Username must be 3-32 characters (letters, digits, - _ .)")
		return
	case len(req.Password) < minPasswordLen:
		httpx.Error(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	user, pair, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Username, req.Password, clientInfo(r))
	if err != nil {
		if errors.Is(err, service.ErrDuplicateIdentity) {
			httpx.Error(w, http.StatusConflict, "Email or username already exists")
			return
		}
		h.serverError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.Created(w, sessionDTO{User: toUserDTO(user), tokenPairDTO: toTokenPairDTO(pair)}, "Registration successful")
}

func (h *authHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, pair, err := h.auth.Login(r.Context(), req.Email, req.Password, clientInfo(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.serverError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.SuccessMessage(w, sessionDTO{User: toUserDTO(user), tokenPairDTO: toTokenPairDTO(pair)}, "Login successful")
}

func (h *authHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httpx.Error(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	pair, _, err := h.auth.Refresh(r.Context(), req.RefreshToken, clientInfo(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			httpx.Error(w, http.StatusUnauthorized, "Invalid or expired refresh token")
			return
		}
		h.serverError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.Success(w, toTokenPairDTO(pair))
}

func (h *authHandlers) logout(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := authContextFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	var req struct {
		RefreshToken string `json:"refreshToken"`
		Everywhere   bool   `json:"everywhere"`
	}
	if r.ContentLength != 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}
	// No token supplied means "log out everywhere", however the body spells
	// it: absent, {}, or an empty refreshToken.
	everywhere := req.Everywhere || req.RefreshToken == ""

	if err := h.auth.Logout(r.Context(), authCtx.User.ID, req.RefreshToken, everywhere); err != nil {
		h.serverError(w, r, err)
		return
	}
	httpx.SuccessMessage(w, nil, "Logged out successfully")
}

func (h *authHandlers) me(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := authContextFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	roles := make([]roleDTO, len(authCtx.Roles))
	perms := []string{}
	for i, role := range authCtx.Roles {
		roles[i] = toRoleDTO(role)
		perms = append(perms, role.PermissionNames()...)
	}
	httpx.Success(w, meDTO{
		User:        toUserDTO(authCtx.User),
		Roles:       roles,
		Permissions: perms,
	})
}

func (h *authHandlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !validEmail(req.Email) {
		httpx.Error(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	token, err := h.auth.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	// The response never reveals whether the account exists.
	var data any
	if h.devMode && token != "" {
		data = map[string]string{"resetToken": token}
	}
	httpx.SuccessMessage(w, data, "If the email exists, a password reset link has been sent")
}

func (h *authHandlers) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	switch {
	case req.Token == "":
		httpx.Error(w, http.StatusBadRequest, "Reset token is required")
		return
	case len(req.NewPassword) < minPasswordLen:
		httpx.Error(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			httpx.Error(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		h.serverError(w, r, err)
		return
	}
	httpx.SuccessMessage(w, nil, "Password has been reset")
}

func (h *authHandlers) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Error("request failed", "error", err.Error())
	httpx.Error(w, http.StatusInternalServerError, "Internal server error")
}
