package sqlite

import (
	"context"
	"database/sql"

	"github.com/plannerhq/sessiond/internal/session/store"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) SetRefreshJTI(ctx context.Context, userID, jti string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_jti = NULLIF(?, ''), updated_at = ? WHERE id = ?`,
		jti, nowUTC(), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) SwapRefreshJTI(ctx context.Context, userID, oldJTI, newJTI string) error {
	// Single conditional update: the swap only lands if oldJTI is still the
	// recorded jti, so a concurrent sign-in or renewal cannot interleave
	// into a torn state.
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_jti = NULLIF(?, ''), updated_at = ?
		 WHERE id = ? AND refresh_jti = ?`,
		newJTI, nowUTC(), userID, oldJTI)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrJTIMismatch
	}
	return nil
}

func (r *sessionsRepo) IsCurrentRefreshJTI(ctx context.Context, userID, jti string) (bool, error) {
	var current sql.NullString
	row := r.db.QueryRowContext(ctx, `SELECT refresh_jti FROM users WHERE id = ?`, userID)
	if err := row.Scan(&current); err != nil {
		return false, mapNotFound(err)
	}
	return current.Valid && jti != "" && current.String == jti, nil
}
