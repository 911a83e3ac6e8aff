package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/pkg/idx"
)

type usersRepo struct {
	q querier
}

const userColumns = "id, email, username, name, password_hash, status, last_login_at, created_at, updated_at"

func (r *usersRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, username, name, password_hash, status, last_login_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Email, u.Username, u.Name, u.PasswordHash, string(u.Status),
		encodeNullTime(u.LastLoginAt), encodeTime(u.CreatedAt), encodeTime(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetByID(ctx context.Context, id idx.ID) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) UpdatePassword(ctx context.Context, id idx.ID, passwordHash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, encodeTime(time.Now()), id.String())
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) UpdateStatus(ctx context.Context, id idx.ID, status domain.Status) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), encodeTime(time.Now()), id.String())
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, id idx.ID, at time.Time) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		encodeTime(at), id.String())
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *usersRepo) List(ctx context.Context, offset, limit int) ([]domain.User, int, error) {
	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                    domain.User
		id, status           string
		lastLoginAt          sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &u.Email, &u.Username, &u.Name, &u.PasswordHash, &status,
		&lastLoginAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.ID = idx.ID(id)
	u.Status = domain.Status(status)
	if u.LastLoginAt, err = decodeNullTime(lastLoginAt); err != nil {
		return domain.User{}, err
	}
	if u.CreatedAt, err = decodeTime(createdAt); err != nil {
		return domain.User{}, err
	}
	if u.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
