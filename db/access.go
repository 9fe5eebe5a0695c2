package db

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoUser = errors.New("user doesn't exist")
var ErrNotFound = errors.New("record doesn't exist")
var ErrEmailTaken = errors.New("email already registered")

func GetConnPool(dbName string, dbUser string, dbPass string, testing bool) (*pgxpool.Pool, error) {
	// establish db name
	if testing {
		dbName += "_dev"
	}

	// create pool config
	connectionString := fmt.Sprintf(
		"postgresql://%s:%s@localhost:5432/%s",
		dbUser, dbPass, dbName,
	)
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse pool config: %v", err)
	}

	// Set AfterConnect hook to register decimal type
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	// create pool with the config
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("couldn't connect to db: %v", err)
	}

	return pool, nil
}
