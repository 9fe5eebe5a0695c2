package main

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cryptowallet/app/db"
	"github.com/cryptowallet/app/positions"
)

func validTransactionRequest() TransactionCreateRequest {
	return TransactionCreateRequest{
		AssetName:       "BTC",
		Amount:          decimal.RequireFromString("0.5"),
		CostAsset:       "USD",
		TransactionType: "BUY",
		PlatformID:      1,
	}
}

func TestBuildTransactionNormalisesNames(t *testing.T) {
	tr, err := buildTransaction(validTransactionRequest(), 7)
	if err != nil {
		t.Fatalf("failed to build transaction, %v", err)
	}

	if tr.AssetName != "btc" || tr.CostAsset != "usd" {
		t.Fatalf("expected lowercased names, got %s / %s", tr.AssetName, tr.CostAsset)
	}
	if tr.TransactionType != positions.Buy {
		t.Fatalf("expected BUY, got %s", tr.TransactionType)
	}
	if tr.OwnerID != 7 {
		t.Fatalf("expected owner 7, got %d", tr.OwnerID)
	}
	if !tr.Cost.IsZero() {
		t.Fatalf("expected zero cost when absent, got %s", tr.Cost)
	}
}

func TestBuildTransactionRejectsBadInput(t *testing.T) {
	shortName := validTransactionRequest()
	shortName.AssetName = "ab"
	if _, err := buildTransaction(shortName, 1); err == nil {
		t.Fatalf("expected error for short asset name")
	}

	zeroAmount := validTransactionRequest()
	zeroAmount.Amount = decimal.Zero
	if _, err := buildTransaction(zeroAmount, 1); err == nil {
		t.Fatalf("expected error for zero amount")
	}

	negativeCost := validTransactionRequest()
	negative := decimal.RequireFromString("-1")
	negativeCost.Cost = &negative
	if _, err := buildTransaction(negativeCost, 1); err == nil {
		t.Fatalf("expected error for negative cost")
	}

	badType := validTransactionRequest()
	badType.TransactionType = "STAKE"
	if _, err := buildTransaction(badType, 1); err == nil {
		t.Fatalf("expected error for unknown transaction type")
	}

	noPlatform := validTransactionRequest()
	noPlatform.PlatformID = 0
	if _, err := buildTransaction(noPlatform, 1); err == nil {
		t.Fatalf("expected error for missing platform id")
	}
}

func TestValidateTransactionUpdateNormalisesAndRejects(t *testing.T) {
	name := "ETH"
	upd := db.TransactionUpdate{AssetName: &name}
	if err := validateTransactionUpdate(&upd); err != nil {
		t.Fatalf("failed to validate update, %v", err)
	}
	if *upd.AssetName != "eth" {
		t.Fatalf("expected lowercased name, got %s", *upd.AssetName)
	}

	badType := "STAKE"
	upd = db.TransactionUpdate{TransactionType: &badType}
	if err := validateTransactionUpdate(&upd); err == nil {
		t.Fatalf("expected error for unknown transaction type")
	}

	zero := decimal.Zero
	upd = db.TransactionUpdate{Amount: &zero}
	if err := validateTransactionUpdate(&upd); err == nil {
		t.Fatalf("expected error for zero amount")
	}

	// an empty update is valid: nothing to check, nothing to change
	upd = db.TransactionUpdate{}
	if err := validateTransactionUpdate(&upd); err != nil {
		t.Fatalf("empty update should validate, got %v", err)
	}
}

func TestBuildPlatformValidation(t *testing.T) {
	platform, err := buildPlatform(PlatformCreateRequest{
		Name:         "binance",
		PlatformType: "EXCHANGE",
	}, 3)
	if err != nil {
		t.Fatalf("failed to build platform, %v", err)
	}
	if platform.PlatformType != db.PlatformExchange || platform.OwnerID != 3 {
		t.Fatalf("unexpected platform %+v", platform)
	}

	if _, err := buildPlatform(PlatformCreateRequest{Name: "ab", PlatformType: "EXCHANGE"}, 1); err == nil {
		t.Fatalf("expected error for short name")
	}

	if _, err := buildPlatform(PlatformCreateRequest{Name: "wallet", PlatformType: "COLD_STORAGE"}, 1); err == nil {
		t.Fatalf("expected error for unknown platform type")
	}

	// a blockchain platform with a wallet address must carry a real one
	_, err = buildPlatform(PlatformCreateRequest{
		Name:          "metamask",
		PlatformType:  "BLOCKCHAIN",
		WalletAddress: "not-an-address",
	}, 1)
	if err == nil {
		t.Fatalf("expected error for invalid wallet address")
	}

	platform, err = buildPlatform(PlatformCreateRequest{
		Name:          "metamask",
		PlatformType:  "BLOCKCHAIN",
		WalletAddress: "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
	}, 1)
	if err != nil {
		t.Fatalf("failed to build platform with valid address, %v", err)
	}
	if platform.WalletAddress == "" {
		t.Fatalf("wallet address was dropped")
	}

	// exchanges don't need an address at all
	if _, err := buildPlatform(PlatformCreateRequest{Name: "kraken", PlatformType: "EXCHANGE"}, 1); err != nil {
		t.Fatalf("failed to build exchange platform, %v", err)
	}
}

func TestEmailIsOK(t *testing.T) {
	if !emailIsOK("someone@example.com") {
		t.Fatalf("expected plain address to be valid")
	}
	if emailIsOK("Someone <someone@example.com>") {
		t.Fatalf("expected named address form to be rejected")
	}
	if emailIsOK("not-an-email") {
		t.Fatalf("expected bare string to be rejected")
	}
	if emailIsOK("") {
		t.Fatalf("expected empty string to be rejected")
	}
}
