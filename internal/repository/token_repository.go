package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
)

// TokenRepo persists password reset token ids (single 'token_hash' column).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreReset records a freshly issued reset token and retires any older
// unused token of the same user, so only the latest link works.
func (r *TokenRepo) StoreReset(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"UPDATE password_resets SET used_at=UTC_TIMESTAMP() WHERE user_id=? AND used_at IS NULL",
		userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO password_resets (token_hash, user_id, expires_at) VALUES (?,?,?)",
		tokenHash, userID, exp.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

// ConsumeReset locks the token row, runs apply with its user and marks the
// token used only when apply succeeds, so a failed update leaves the link
// valid. Unknown tokens yield apperr.ErrInvalidToken, spent ones
// apperr.ErrTokenUsed and stale ones apperr.ErrTokenExpired.
func (r *TokenRepo) ConsumeReset(ctx context.Context, tokenHash string, now time.Time, apply func(ctx context.Context, userID string) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		userID    string
		expiresAt time.Time
		usedAt    sql.NullTime
	)
	err = tx.QueryRowContext(ctx,
		"SELECT user_id, expires_at, used_at FROM password_resets WHERE token_hash=? LIMIT 1 FOR UPDATE",
		tokenHash).Scan(&userID, &expiresAt, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	if usedAt.Valid {
		return apperr.ErrTokenUsed
	}
	if now.UTC().After(expiresAt) {
		return apperr.ErrTokenExpired
	}
	if err := apply(ctx, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE password_resets SET used_at=? WHERE token_hash=?", now.UTC(), tokenHash); err != nil {
		return err
	}
	return tx.Commit()
}

// PurgeExpired deletes reset rows that can no longer be used.
func (r *TokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM password_resets WHERE expires_at < ? OR used_at IS NOT NULL", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
