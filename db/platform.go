package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PlatformType string

const (
	PlatformExchange   PlatformType = "EXCHANGE"
	PlatformBlockchain PlatformType = "BLOCKCHAIN"
)

func ParsePlatformType(s string) (PlatformType, error) {
	switch s {
	case string(PlatformExchange):
		return PlatformExchange, nil
	case string(PlatformBlockchain):
		return PlatformBlockchain, nil
	}
	return "", fmt.Errorf("invalid PlatformType value %s", s)
}

// a custody venue: a centralised exchange account or a blockchain
// wallet
type Platform struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	PlatformType  PlatformType `json:"platform_type"`
	WalletAddress string       `json:"wallet_address,omitempty"`
	OwnerID       int64        `json:"owner_id"`
}

func WriteRecordPlatforms(platform Platform, pool *pgxpool.Pool) (Platform, error) {
	err := pool.QueryRow(
		context.Background(),
		`INSERT INTO platforms (name, platform_type, wallet_address, owner_id)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		platform.Name, platform.PlatformType, platform.WalletAddress, platform.OwnerID,
	).Scan(&platform.ID)

	if err != nil {
		return platform, fmt.Errorf("failed to insert platform, %v", err)
	}

	return platform, nil
}

func ReadRecordPlatforms(platformID int64, pool *pgxpool.Pool) (Platform, error) {
	var platform Platform

	row := pool.QueryRow(
		context.Background(),
		"SELECT id, name, platform_type, wallet_address, owner_id FROM platforms WHERE id=$1",
		platformID,
	)

	err := row.Scan(
		&platform.ID, &platform.Name, &platform.PlatformType,
		&platform.WalletAddress, &platform.OwnerID,
	)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return platform, ErrNotFound
		}
		return platform, fmt.Errorf("failed to scan row, %v", err)
	}

	return platform, nil
}

// get all platforms belonging to a user
func ReadAllRecordsPlatforms(ownerID int64, pool *pgxpool.Pool) ([]Platform, error) {
	platforms := []Platform{}

	rows, err := pool.Query(
		context.Background(),
		"SELECT id, name, platform_type, wallet_address, owner_id FROM platforms WHERE owner_id=$1",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows, %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var platform Platform
		err := rows.Scan(
			&platform.ID, &platform.Name, &platform.PlatformType,
			&platform.WalletAddress, &platform.OwnerID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row, %v", err)
		}

		platforms = append(platforms, platform)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during row iteration, %v", err)
	}

	return platforms, nil
}

func DeleteRecordPlatforms(platformID int64, pool *pgxpool.Pool) error {
	tag, err := pool.Exec(
		context.Background(),
		"DELETE FROM platforms WHERE id = $1",
		platformID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete platform, %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PlatformUpdate carries the fields of a partial update. A nil field
// was not supplied by the caller and must be left untouched.
type PlatformUpdate struct {
	Name          *string `json:"name"`
	PlatformType  *string `json:"platform_type"`
	WalletAddress *string `json:"wallet_address"`
}

// applies the supplied fields of upd to the stored record. Returns
// ErrNotFound if the platform doesn't exist, and is a no-op when no
// field is supplied.
func UpdateRecordPlatforms(platformID int64, upd PlatformUpdate, pool *pgxpool.Pool) error {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("UPDATE platforms SET ")

	args := []interface{}{platformID}
	argCount := 2
	setClauses := []string{}

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if upd.Name != nil {
		addSet("name", *upd.Name)
	}
	if upd.PlatformType != nil {
		addSet("platform_type", *upd.PlatformType)
	}
	if upd.WalletAddress != nil {
		addSet("wallet_address", *upd.WalletAddress)
	}

	if len(setClauses) == 0 {
		return nil
	}

	queryBuilder.WriteString(strings.Join(setClauses, ", "))
	queryBuilder.WriteString(" WHERE id = $1")

	tag, err := pool.Exec(context.Background(), queryBuilder.String(), args...)
	if err != nil {
		return fmt.Errorf("failed to execute update, %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
