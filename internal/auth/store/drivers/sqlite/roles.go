package sqlite

import (
	"context"
	"errors"

	"github.com/halolight/officehub/internal/auth/domain"
	"github.com/halolight/officehub/internal/auth/store"
	"github.com/halolight/officehub/pkg/idx"
)

type rolesRepo struct {
	q querier
}

func (r *rolesRepo) Create(ctx context.Context, role *domain.Role) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO roles (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		role.ID.String(), role.Name, role.Description,
		encodeTime(role.CreatedAt), encodeTime(role.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *rolesRepo) GetByID(ctx context.Context, id idx.ID) (domain.Role, error) {
	return r.getOne(ctx, `WHERE id = ?`, id.String())
}

func (r *rolesRepo) GetByName(ctx context.Context, name string) (domain.Role, error) {
	return r.getOne(ctx, `WHERE name = ?`, name)
}

func (r *rolesRepo) getOne(ctx context.Context, where string, arg any) (domain.Role, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles `+where, arg)

	role, err := scanRole(row)
	if err != nil {
		return domain.Role{}, err
	}
	if role.Permissions, err = r.permissionsOf(ctx, role.ID); err != nil {
		return domain.Role{}, err
	}
	return role, nil
}

func (r *rolesRepo) List(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		if roles[i].Permissions, err = r.permissionsOf(ctx, roles[i].ID); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

// EnsurePermission inserts the permission unless one with the same name
// already exists, in which case p.ID is updated to the existing row's id.
func (r *rolesRepo) EnsurePermission(ctx context.Context, p *domain.Permission) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO permissions (id, name, description) VALUES (?, ?, ?)`,
		p.ID.String(), p.Name, p.Description)
	if err == nil {
		return nil
	}
	if !errors.Is(mapConstraint(err), store.ErrAlreadyExists) {
		return err
	}

	var existing string
	if err := r.q.QueryRowContext(ctx,
		`SELECT id FROM permissions WHERE name = ?`, p.Name).Scan(&existing); err != nil {
		return mapNotFound(err)
	}
	p.ID = idx.ID(existing)
	return nil
}

func (r *rolesRepo) Grant(ctx context.Context, roleID, permissionID idx.ID) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)
		ON CONFLICT (role_id, permission_id) DO NOTHING`,
		roleID.String(), permissionID.String())
	return err
}

func (r *rolesRepo) Assign(ctx context.Context, userID, roleID idx.ID) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)
		ON CONFLICT (user_id, role_id) DO NOTHING`,
		userID.String(), roleID.String())
	return err
}

func (r *rolesRepo) ListForUser(ctx context.Context, userID idx.ID) ([]domain.Role, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.name`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range roles {
		if roles[i].Permissions, err = r.permissionsOf(ctx, roles[i].ID); err != nil {
			return nil, err
		}
	}
	return roles, nil
}

func (r *rolesRepo) permissionsOf(ctx context.Context, roleID idx.ID) ([]domain.Permission, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT p.id, p.name, p.description
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = ?
		ORDER BY p.name`, roleID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		var id string
		if err := rows.Scan(&id, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		p.ID = idx.ID(id)
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func scanRole(row rowScanner) (domain.Role, error) {
	var (
		role                 domain.Role
		id                   string
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &role.Name, &role.Description, &createdAt, &updatedAt); err != nil {
		return domain.Role{}, mapNotFound(err)
	}

	role.ID = idx.ID(id)
	var err error
	if role.CreatedAt, err = decodeTime(createdAt); err != nil {
		return domain.Role{}, err
	}
	if role.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return domain.Role{}, err
	}
	return role, nil
}
