package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptowallet/app/positions"
)

// ReadAssetTotals sums a user's transactions into one row per distinct
// (asset, cost asset, transaction type, platform name) combination.
// The cost asset is coalesced to an empty string so downstream keys
// never carry a null. The output feeds positions.Compute.
func ReadAssetTotals(ownerID int64, pool *pgxpool.Pool) ([]positions.AggregatedGroup, error) {
	groups := []positions.AggregatedGroup{}

	rows, err := pool.Query(
		context.Background(),
		`
		SELECT
			t.asset_name,
			COALESCE(t.cost_asset, '') AS cost_asset,
			t.transaction_type,
			p.name AS platform_name,
			COALESCE(SUM(t.amount), 0) AS total_amount,
			COALESCE(SUM(t.cost), 0) AS total_cost
		FROM transactions t
		JOIN platforms p ON p.id = t.platform_id
		WHERE t.owner_id = $1
		GROUP BY t.asset_name, t.cost_asset, t.transaction_type, p.name
		`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows, %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g positions.AggregatedGroup
		var transactionType string

		err := rows.Scan(
			&g.AssetName, &g.CostAsset, &transactionType,
			&g.PlatformName, &g.TotalAmount, &g.TotalCost,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row, %v", err)
		}

		g.TransactionType = positions.TransactionType(transactionType)
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed during row iteration, %v", err)
	}

	return groups, nil
}
