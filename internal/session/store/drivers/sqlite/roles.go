package sqlite

import (
	"context"

	"github.com/plannerhq/sessiond/internal/session/store"
)

type rolesRepo struct {
	db dbtx
}

func (r *rolesRepo) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.name
		 FROM user_roles ur
		 JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = ?
		 ORDER BY r.name`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *rolesRepo) GrantRole(ctx context.Context, userID, roleName string) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (user_id, role_id)
		 SELECT ?, id FROM roles WHERE name = ?`, userID, roleName)
	if err != nil {
		return err
	}
	// Zero rows means either the role name is unknown or the grant already
	// existed. Distinguish the two so typos surface.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists int
		row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roles WHERE name = ?`, roleName)
		if err := row.Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrNotFound
		}
	}
	return nil
}

func (r *rolesRepo) RevokeRole(ctx context.Context, userID, roleName string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles
		 WHERE user_id = ? AND role_id IN (SELECT id FROM roles WHERE name = ?)`,
		userID, roleName)
	return err
}

func (r *rolesRepo) RolesChanged(ctx context.Context, userID string, snapshot []string) (bool, error) {
	current, err := r.GetUserRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	return !store.RolesEqual(current, snapshot), nil
}
