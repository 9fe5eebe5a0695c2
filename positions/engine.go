package positions

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionType is the closed set of transaction kinds a wallet can
// record. Anything outside this set contributes nothing to a position.
type TransactionType string

const (
	Deposit  TransactionType = "DEPOSIT"
	Buy      TransactionType = "BUY"
	Sell     TransactionType = "SELL"
	Withdraw TransactionType = "WITHDRAW"
	Airdrop  TransactionType = "AIRDROP"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case string(Deposit):
		return Deposit, nil
	case string(Buy):
		return Buy, nil
	case string(Sell):
		return Sell, nil
	case string(Withdraw):
		return Withdraw, nil
	case string(Airdrop):
		return Airdrop, nil
	}
	return "", fmt.Errorf("invalid TransactionType value %s", s)
}

// AggregatedGroup is one pre-summed bucket of a user's transactions
// sharing (asset, cost asset, type, platform). The sums come from the
// persistence layer, already scoped to a single user.
type AggregatedGroup struct {
	AssetName       string
	CostAsset       string
	TransactionType TransactionType
	PlatformName    string
	TotalAmount     decimal.Decimal
	TotalCost       decimal.Decimal
}

// Position is the net quantity of an asset currently held on a
// platform, with the cost basis that accumulated alongside it.
type Position struct {
	AssetName    string          `json:"asset_name"`
	CostAsset    string          `json:"cost_asset"`
	PlatformName string          `json:"platform_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

type positionKey struct {
	assetName    string
	costAsset    string
	platformName string
}

type totals struct {
	amount decimal.Decimal
	cost   decimal.Decimal
}

// Compute folds aggregated transaction groups into the user's current
// holdings. A BUY of an asset paid for in another asset also reduces
// the paying asset's balance by the cost, and a SELL increases it, so
// funding currencies track spend and receipt from trades. Only
// positions with a strictly positive amount are returned; output order
// is not specified.
//
// Compute holds no state between calls and the result does not depend
// on the order of the input groups.
func Compute(groups []AggregatedGroup) []Position {
	held := map[positionKey]totals{}

	for _, g := range groups {
		key := positionKey{g.AssetName, g.CostAsset, g.PlatformName}

		switch g.TransactionType {
		case Deposit, Airdrop:
			t := held[key]
			t.amount = t.amount.Add(g.TotalAmount)
			held[key] = t

		case Withdraw:
			t := held[key]
			t.amount = t.amount.Sub(g.TotalAmount)
			held[key] = t

		case Buy:
			t := held[key]
			t.amount = t.amount.Add(g.TotalAmount)
			t.cost = t.cost.Add(g.TotalCost)
			held[key] = t

			if g.CostAsset != "" {
				costKey := positionKey{g.CostAsset, "", g.PlatformName}
				ct := held[costKey]
				ct.amount = ct.amount.Sub(g.TotalCost)
				held[costKey] = ct
			}

		case Sell:
			t := held[key]
			t.amount = t.amount.Sub(g.TotalAmount)
			t.cost = t.cost.Sub(g.TotalCost)
			held[key] = t

			// unlike BUY, the funding asset is credited even when
			// CostAsset is empty
			costKey := positionKey{g.CostAsset, "", g.PlatformName}
			ct := held[costKey]
			ct.amount = ct.amount.Add(g.TotalCost)
			held[costKey] = ct
		}
		// unrecognised types are skipped
	}

	result := []Position{}
	for key, t := range held {
		if !t.amount.IsPositive() {
			continue
		}
		result = append(result, Position{
			AssetName:    key.assetName,
			CostAsset:    key.costAsset,
			PlatformName: key.platformName,
			TotalAmount:  t.amount,
			TotalCost:    t.cost,
		})
	}

	return result
}
