package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/internal/auth/store"
	"github.com/halolight/officehub/internal/obs"
	"github.com/halolight/officehub/pkg/cryptox"
	"github.com/halolight/officehub/pkg/idx"
	"github.com/halolight/officehub/pkg/jwtx"
	"github.com/halolight/officehub/pkg/slogx"
)

// ClientInfo describes the client a token is issued to. Both fields may be
// empty.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// TokenService mints, rotates and revokes token pairs. Refresh tokens are
// JWTs whose fingerprints are additionally tracked in the store, so a token
// must pass both signature verification and a live database record check to
// be exchanged.
type TokenService struct {
	store   store.Store
	codec   *jwtx.Codec
	metrics *obs.Metrics
	now     func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithTokenMetrics attaches the issuance/revocation counters.
func WithTokenMetrics(m *obs.Metrics) TokenOption {
	return func(s *TokenService) { s.metrics = m }
}

// NewTokenService wires a TokenService.
func NewTokenService(st store.Store, codec *jwtx.Codec, opts ...TokenOption) *TokenService {
	s := &TokenService{store: st, codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssuePair mints a fresh access/refresh pair for userID and records the
// refresh token with the issuing client's details. Expired unrevoked records
// for the user are pruned in the same transaction so sessions do not
// accumulate dead rows.
func (s *TokenService) IssuePair(ctx context.Context, userID idx.ID, client ClientInfo) (domain.TokenPair, error) {
	access, accessExp, err := s.codec.Issue(jwtx.KindAccess, userID.String())
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := s.codec.Issue(jwtx.KindRefresh, userID.String())
	if err != nil {
		return domain.TokenPair{}, err
	}

	record := domain.RefreshToken{
		ID:        idx.New(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(refresh),
		IP:        client.IP,
		UserAgent: client.UserAgent,
		ExpiresAt: refreshExp,
		CreatedAt: s.now(),
	}
	err = s.store.WithTx(ctx, func(tx store.Repos) error {
		if err := tx.RefreshTokens().DeleteExpiredForUser(ctx, userID, s.now()); err != nil {
			return fmt.Errorf("prune expired tokens: %w", err)
		}
		if err := tx.RefreshTokens().Create(ctx, &record); err != nil {
			return fmt.Errorf("record refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	if s.metrics != nil {
		s.metrics.TokenIssued()
	}

	return domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Rotate exchanges a refresh token for a new pair. The presented token must
// have a live store record (present, unrevoked, unexpired) and verify as a
// refresh JWT whose subject owns that record; the account must still be
// active. The old record is revoked and the new one created atomically, and
// the revocation must hit exactly one live row, so a token can be exchanged
// at most once even under concurrent attempts.
func (s *TokenService) Rotate(ctx context.Context, rawToken string, client ClientInfo) (domain.TokenPair, domain.User, error) {
	logger := slogx.FromContext(ctx)
	hash := cryptox.FingerprintToken(rawToken)

	record, err := s.store.RefreshTokens().GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.User{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, domain.User{}, err
	}
	if !record.Usable(s.now()) {
		logger.Debug("refresh rejected", slog.String("reason", "revoked or expired record"))
		return domain.TokenPair{}, domain.User{}, ErrInvalidRefreshToken
	}

	// The record check and the signature check are independent; both must
	// pass.
	claims, err := s.codec.Verify(rawToken, jwtx.KindRefresh)
	if err != nil {
		logger.Debug("refresh rejected", slog.String("reason", "jwt verification failed"))
		return domain.TokenPair{}, domain.User{}, ErrInvalidRefreshToken
	}
	if claims.Subject != record.UserID.String() {
		return domain.TokenPair{}, domain.User{}, ErrInvalidRefreshToken
	}

	user, err := s.store.Users().GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.User{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, domain.User{}, err
	}
	if user.Status != domain.StatusActive {
		return domain.TokenPair{}, domain.User{}, ErrInvalidRefreshToken
	}

	access, accessExp, err := s.codec.Issue(jwtx.KindAccess, user.ID.String())
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}
	refresh, refreshExp, err := s.codec.Issue(jwtx.KindRefresh, user.ID.String())
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}

	next := domain.RefreshToken{
		ID:        idx.New(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		IP:        client.IP,
		UserAgent: client.UserAgent,
		ExpiresAt: refreshExp,
		CreatedAt: s.now(),
	}
	err = s.store.WithTx(ctx, func(tx store.Repos) error {
		n, err := tx.RefreshTokens().Revoke(ctx, user.ID, hash)
		if err != nil {
			return fmt.Errorf("revoke rotated token: %w", err)
		}
		// A concurrent rotation already spent the token; abort so only one
		// exchange wins.
		if n == 0 {
			return ErrInvalidRefreshToken
		}
		if err := tx.RefreshTokens().Create(ctx, &next); err != nil {
			return fmt.Errorf("record rotated token: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}
	if s.metrics != nil {
		s.metrics.TokenIssued()
		s.metrics.TokensRevoked(1)
	}

	return domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, user, nil
}

// Revoke marks the user's record for rawToken revoked. Unknown or already
// revoked tokens are a silent no-op, so logout is idempotent.
func (s *TokenService) Revoke(ctx context.Context, userID idx.ID, rawToken string) error {
	n, err := s.store.RefreshTokens().Revoke(ctx, userID, cryptox.FingerprintToken(rawToken))
	if err != nil {
		return err
	}
	if s.metrics != nil && n > 0 {
		s.metrics.TokensRevoked(n)
	}
	return nil
}

// RevokeAll revokes every live refresh token the user holds and reports how
// many sessions were ended.
func (s *TokenService) RevokeAll(ctx context.Context, userID idx.ID) (int64, error) {
	n, err := s.store.RefreshTokens().RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.metrics != nil && n > 0 {
		s.metrics.TokensRevoked(n)
	}
	return n, nil
}
