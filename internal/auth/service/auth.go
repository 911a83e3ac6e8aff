package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/internal/auth/store"
	"github.com/halolight/officehub/pkg/cryptox"
	"github.com/halolight/officehub/pkg/idx"
	"github.com/halolight/officehub/pkg/jwtx"
	"github.com/halolight/officehub/pkg/slogx"
)

// AuthService orchestrates the credential and session flows.
type AuthService struct {
	store  store.Store
	tokens *TokenService
	codec  *jwtx.Codec
	hasher *cryptox.Hasher
	now    func() time.Time
}

// NewAuthService wires an AuthService.
func NewAuthService(st store.Store, tokens *TokenService, codec *jwtx.Codec, hasher *cryptox.Hasher) *AuthService {
	return &AuthService{store: st, tokens: tokens, codec: codec, hasher: hasher, now: time.Now}
}

// Register creates an account with the default USER role and logs it in. The
// user row and the role assignment commit together.
func (s *AuthService) Register(ctx context.Context, name, email, username, password string, client ClientInfo) (domain.User, domain.TokenPair, error) {
	email = normalizeEmail(email)
	username = strings.TrimSpace(username)

	role, err := s.store.Roles().GetByName(ctx, domain.RoleUser)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	now := s.now()
	user := domain.User{
		ID:           idx.New(),
		Email:        email,
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.WithTx(ctx, func(tx store.Repos) error {
		if err := tx.Users().Create(ctx, &user); err != nil {
			return err
		}
		return tx.Roles().Assign(ctx, user.ID, role.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, domain.TokenPair{}, ErrDuplicateIdentity
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID, client)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", user.ID.String()))
	return user, pair, nil
}

// Login checks credentials and issues a token pair. Unknown email, wrong
// password and non-active accounts all fail with ErrInvalidCredentials; a
// dummy hash verification keeps the unknown-email path from returning faster
// than the wrong-password path. Success stamps the last-login time.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (domain.User, domain.TokenPair, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.hasher.Verify(password, dummyHash)
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}
	if user.Status != domain.StatusActive {
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	loginAt := s.now()
	if err := s.store.Users().UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	user.LastLoginAt = &loginAt

	pair, err := s.tokens.IssuePair(ctx, user.ID, client)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	slogx.FromContext(ctx).Info("user logged in", slog.String("user_id", user.ID.String()))
	return user, pair, nil
}

// Refresh rotates a refresh token into a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, rawToken string, client ClientInfo) (domain.TokenPair, domain.User, error) {
	return s.tokens.Rotate(ctx, rawToken, client)
}

// Logout ends the session for rawToken. When no token is supplied, or when
// everywhere is set, every session the user holds is revoked. Revoking an
// unknown token is a silent success.
func (s *AuthService) Logout(ctx context.Context, userID idx.ID, rawToken string, everywhere bool) error {
	if everywhere || rawToken == "" {
		n, err := s.tokens.RevokeAll(ctx, userID)
		if err != nil {
			return err
		}
		slogx.FromContext(ctx).Info("user logged out everywhere",
			slog.String("user_id", userID.String()), slog.Int64("sessions", n))
		return nil
	}
	return s.tokens.Revoke(ctx, userID, rawToken)
}

// Authenticate verifies a bearer access token and loads the account behind
// it. The caller can distinguish a bad token, a vanished user and an inactive
// account.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (domain.AuthContext, error) {
	claims, err := s.codec.Verify(accessToken, jwtx.KindAccess)
	if err != nil {
		return domain.AuthContext{}, ErrInvalidAccessToken
	}

	userID, err := idx.Parse(claims.Subject)
	if err != nil {
		return domain.AuthContext{}, ErrInvalidAccessToken
	}

	return s.loadAuthContext(ctx, userID)
}

// Me returns the auth context for a known user id, for the /me endpoint.
func (s *AuthService) Me(ctx context.Context, userID idx.ID) (domain.AuthContext, error) {
	return s.loadAuthContext(ctx, userID)
}

func (s *AuthService) loadAuthContext(ctx context.Context, userID idx.ID) (domain.AuthContext, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthContext{}, ErrUserNotFound
		}
		return domain.AuthContext{}, err
	}
	if user.Status != domain.StatusActive {
		return domain.AuthContext{}, ErrAccountInactive
	}

	roles, err := s.store.Roles().ListForUser(ctx, userID)
	if err != nil {
		return domain.AuthContext{}, err
	}

	var names []string
	for _, role := range roles {
		names = append(names, role.PermissionNames()...)
	}
	return domain.AuthContext{
		User:        user,
		Roles:       roles,
		Permissions: domain.NewPermissionSet(names...),
	}, nil
}

// ForgotPassword issues a password reset token for the account, or nothing
// when the email is unknown or the account is not active. Callers must
// respond identically either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if user.Status != domain.StatusActive {
		return "", nil
	}

	token, _, err := s.codec.Issue(jwtx.KindReset, user.ID.String())
	if err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("password reset requested", slog.String("user_id", user.ID.String()))
	return token, nil
}

// ResetPassword validates a reset token, stores the new password hash and
// revokes every refresh token the user holds, all in one transaction.
func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := s.codec.Verify(resetToken, jwtx.KindReset)
	if err != nil {
		return ErrInvalidResetToken
	}
	userID, err := idx.Parse(claims.Subject)
	if err != nil {
		return ErrInvalidResetToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx store.Repos) error {
		if err := tx.Users().UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		_, err := tx.RefreshTokens().RevokeAllForUser(ctx, userID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset completed", slog.String("user_id", userID.String()))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// dummyHash absorbs a verification when the email is unknown. Generated once
// from a throwaway password.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$oJvCSbYmFMHZTHmECWSoSANrnNE5o9NIRGXOS0EbAFM"
