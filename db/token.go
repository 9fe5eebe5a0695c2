package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// marks a token hash as logged out until the token's own expiry.
// Revoking the same token twice is fine.
func RevokeToken(tokenHash string, expiresAt time.Time, pool *pgxpool.Pool) error {
	_, err := pool.Exec(
		context.Background(),
		`INSERT INTO revoked_tokens (token_hash, expires_at) VALUES ($1, $2)
		ON CONFLICT (token_hash) DO NOTHING`,
		tokenHash, expiresAt.In(time.UTC),
	)
	if err != nil {
		return fmt.Errorf("failed to insert revoked token, %v", err)
	}
	return nil
}

func TokenIsRevoked(tokenHash string, pool *pgxpool.Pool) (bool, error) {
	var revoked bool

	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE token_hash = $1 AND expires_at > NOW()
		)`,
		tokenHash,
	).Scan(&revoked)

	if err != nil {
		return false, fmt.Errorf("failed to check revocation, %v", err)
	}

	return revoked, nil
}

// Deletes revocation rows whose tokens have expired on their own.
// Returns the number of rows it removed.
func PurgeExpiredTokens(pool *pgxpool.Pool) (int, error) {
	tag, err := pool.Exec(
		context.Background(),
		"DELETE FROM revoked_tokens WHERE expires_at <= NOW()",
	)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}
