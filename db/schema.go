package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// creates any missing tables. Safe to run at every startup.
func EnsureSchema(pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			hashed_password TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS platforms (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			platform_type TEXT NOT NULL,
			wallet_address TEXT NOT NULL DEFAULT '',
			owner_id BIGINT NOT NULL REFERENCES users (id)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			asset_name TEXT NOT NULL,
			contract_type TEXT NOT NULL DEFAULT '',
			amount NUMERIC NOT NULL,
			cost NUMERIC NOT NULL DEFAULT 0,
			cost_asset TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ,
			transaction_type TEXT NOT NULL,
			owner_id BIGINT NOT NULL REFERENCES users (id),
			platform_id BIGINT NOT NULL REFERENCES platforms (id)
		)`,
		`CREATE TABLE IF NOT EXISTS revoked_tokens (
			token_hash TEXT PRIMARY KEY,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		_, err := pool.Exec(context.Background(), stmt)
		if err != nil {
			return fmt.Errorf("failed to ensure schema, %v", err)
		}
	}

	return nil
}
