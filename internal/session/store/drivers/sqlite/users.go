package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/plannerhq/sessiond/internal/session/domain"
	"github.com/plannerhq/sessiond/internal/session/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, username, email, password_hash, refresh_jti, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := nowUTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, refresh_jti, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, now, now)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var jti sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &jti, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	if jti.Valid {
		u.RefreshJTI = jti.String
	}
	return u, nil
}
