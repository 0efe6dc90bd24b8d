package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

const jwtSecretKey = "jwt_secret"

// GetJWTSecret retrieves the token verification secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	fresh, err := newSecret()
	if err != nil {
		return "", err
	}

	_, err = db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`,
		jwtSecretKey, fresh,
	)
	if err != nil {
		return "", fmt.Errorf("storing jwt_secret: %w", err)
	}

	secret, err := GetSetting(ctx, db, jwtSecretKey)
	if err != nil {
		return "", err
	}
	return secret, nil
}

// GetSetting returns a setting's value, or "" if it is unset.
func GetSetting(ctx context.Context, db *sql.DB, key string) (string, error) {
	query, args, err := sq.Select("value").From("settings").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", fmt.Errorf("building setting query: %w", err)
	}

	var value string
	err = db.QueryRowContext(ctx, query, args...).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a setting, replacing any previous value.
func SetSetting(ctx context.Context, db *sql.DB, key, value string) error {
	query, args, err := sq.Replace("settings").Columns("key", "value").Values(key, value).ToSql()
	if err != nil {
		return fmt.Errorf("building setting insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

// RotateJWTSecret replaces the stored secret with a new random one. Every
// token signed with the old secret stops verifying.
func RotateJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	secret, err := newSecret()
	if err != nil {
		return "", err
	}
	if err := SetSetting(ctx, db, jwtSecretKey, secret); err != nil {
		return "", err
	}
	return secret, nil
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
