package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cryptowallet/app/positions"
)

type Transaction struct {
	ID              int64                     `json:"id"`
	AssetName       string                    `json:"asset_name"`
	ContractType    string                    `json:"contract_type,omitempty"`
	Amount          decimal.Decimal           `json:"amount"`
	Cost            decimal.Decimal           `json:"cost"`
	CostAsset       string                    `json:"cost_asset,omitempty"`
	Date            *time.Time                `json:"date,omitempty"`
	TransactionType positions.TransactionType `json:"transaction_type"`
	OwnerID         int64                     `json:"owner_id"`
	PlatformID      int64                     `json:"platform_id"`
}

func (tr Transaction) String() string {
	return fmt.Sprintf(
		"Transaction{ID: %d, Asset: %s, Type: %s, Amount: %s, Cost: %s, CostAsset: %s, Platform: %d}",
		tr.ID, tr.AssetName, tr.TransactionType, tr.Amount, tr.Cost, tr.CostAsset, tr.PlatformID,
	)
}

// writes a transaction and returns it with its assigned id
func WriteRecordTransactions(tr Transaction, pool *pgxpool.Pool) (Transaction, error) {
	err := pool.QueryRow(
		context.Background(),
		`INSERT INTO transactions (
			asset_name, contract_type, amount, cost, cost_asset, date,
			transaction_type, owner_id, platform_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		tr.AssetName, tr.ContractType, tr.Amount, tr.Cost, tr.CostAsset,
		tr.Date, tr.TransactionType, tr.OwnerID, tr.PlatformID,
	).Scan(&tr.ID)

	if err != nil {
		return tr, fmt.Errorf("failed to insert transaction, %v", err)
	}

	return tr, nil
}

func ReadRecordTransactions(transactionID int64, pool *pgxpool.Pool) (Transaction, error) {
	var tr Transaction

	row := pool.QueryRow(
		context.Background(),
		`SELECT id, asset_name, contract_type, amount, cost, cost_asset, date,
			transaction_type, owner_id, platform_id
		FROM transactions WHERE id=$1`,
		transactionID,
	)

	err := row.Scan(
		&tr.ID, &tr.AssetName, &tr.ContractType, &tr.Amount, &tr.Cost,
		&tr.CostAsset, &tr.Date, &tr.TransactionType, &tr.OwnerID, &tr.PlatformID,
	)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return tr, ErrNotFound
		}
		return tr, fmt.Errorf("failed to scan row, %v", err)
	}

	return tr, nil
}

// get all transactions belonging to a user
func ReadAllRecordsTransactions(ownerID int64, pool *pgxpool.Pool) ([]Transaction, error) {
	transactions := []Transaction{}

	rows, err := pool.Query(
		context.Background(),
		`SELECT id, asset_name, contract_type, amount, cost, cost_asset, date,
			transaction_type, owner_id, platform_id
		FROM transactions WHERE owner_id=$1`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows, %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr Transaction
		err := rows.Scan(
			&tr.ID, &tr.AssetName, &tr.ContractType, &tr.Amount, &tr.Cost,
			&tr.CostAsset, &tr.Date, &tr.TransactionType, &tr.OwnerID, &tr.PlatformID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row, %v", err)
		}

		transactions = append(transactions, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during row iteration, %v", err)
	}

	return transactions, nil
}

func DeleteRecordTransactions(transactionID int64, pool *pgxpool.Pool) error {
	tag, err := pool.Exec(
		context.Background(),
		"DELETE FROM transactions WHERE id = $1",
		transactionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transaction, %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TransactionUpdate carries the fields of a partial update. A nil
// field was not supplied by the caller and must be left untouched.
type TransactionUpdate struct {
	AssetName       *string          `json:"asset_name"`
	ContractType    *string          `json:"contract_type"`
	Amount          *decimal.Decimal `json:"amount"`
	Cost            *decimal.Decimal `json:"cost"`
	CostAsset       *string          `json:"cost_asset"`
	Date            *time.Time       `json:"date"`
	TransactionType *string          `json:"transaction_type"`
	PlatformID      *int64           `json:"platform_id"`
}

// applies the supplied fields of upd to the stored record. Returns
// ErrNotFound if the transaction doesn't exist, and is a no-op when no
// field is supplied.
func UpdateRecordTransactions(transactionID int64, upd TransactionUpdate, pool *pgxpool.Pool) error {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("UPDATE transactions SET ")

	args := []interface{}{transactionID}
	argCount := 2
	setClauses := []string{}

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if upd.AssetName != nil {
		addSet("asset_name", *upd.AssetName)
	}
	if upd.ContractType != nil {
		addSet("contract_type", *upd.ContractType)
	}
	if upd.Amount != nil {
		addSet("amount", *upd.Amount)
	}
	if upd.Cost != nil {
		addSet("cost", *upd.Cost)
	}
	if upd.CostAsset != nil {
		addSet("cost_asset", *upd.CostAsset)
	}
	if upd.Date != nil {
		addSet("date", *upd.Date)
	}
	if upd.TransactionType != nil {
		addSet("transaction_type", *upd.TransactionType)
	}
	if upd.PlatformID != nil {
		addSet("platform_id", *upd.PlatformID)
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
