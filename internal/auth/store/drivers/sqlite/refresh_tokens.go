package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/pkg/idx"
)

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) Create(ctx context.Context, t *domain.RefreshToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, ip, user_agent, expires_at, revoked_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID.String(), t.TokenHash, t.IP, t.UserAgent,
		encodeTime(t.ExpiresAt), encodeNullTime(t.RevokedAt), encodeTime(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, ip, user_agent, expires_at, revoked_at, created_at
		FROM refresh_tokens WHERE token_hash = ?`, hash)

	var (
		t          domain.RefreshToken
		id, userID string
		expiresAt  string
		revokedAt  sql.NullString
		createdAt  string
	)
	err := row.Scan(&id, &userID, &t.TokenHash, &t.IP, &t.UserAgent, &expiresAt, &revokedAt, &createdAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}

	t.ID = idx.ID(id)
	t.UserID = idx.ID(userID)
	if t.ExpiresAt, err = decodeTime(expiresAt); err != nil {
		return domain.RefreshToken{}, err
	}
	if t.RevokedAt, err = decodeNullTime(revokedAt); err != nil {
		return domain.RefreshToken{}, err
	}
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return domain.RefreshToken{}, err
	}
	return t, nil
}

func (r *refreshTokensRepo) Revoke(ctx context.Context, userID idx.ID, hash string) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = ?
		WHERE user_id = ? AND token_hash = ? AND revoked_at IS NULL`,
		encodeTime(time.Now()), userID.String(), hash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) RevokeAllForUser(ctx context.Context, userID idx.ID) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE refresh_tokens SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL`,
		encodeTime(time.Now()), userID.String())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *refreshTokensRepo) DeleteExpiredForUser(ctx context.Context, userID idx.ID, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE user_id = ? AND expires_at < ? AND revoked_at IS NULL`,
		userID.String(), encodeTime(now))
	return err
}

func (r *refreshTokensRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`, encodeTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
