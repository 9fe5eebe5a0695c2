package db

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/cryptowallet/app/positions"
)

var creds map[string]string
var pool *pgxpool.Pool

func TestMain(m *testing.M) {
	// read settings env
	envPath := "settings.env"
	var err error
	creds, err = godotenv.Read(envPath)
	if err != nil {
		// no dev database configured on this machine
		log.Printf("skipping db tests, failed to read env file, %v", err)
		os.Exit(0)
	}

	// set up pool against the dev database
	pool, err = GetConnPool(creds["DB_NAME"], creds["DB_USER"], creds["DB_PASS"], true)
	if err != nil {
		log.Fatalf("failed to acquire pool, %v", err)
	}

	if err := EnsureSchema(pool); err != nil {
		log.Fatalf("failed to ensure schema, %v", err)
	}

	// run tests
	testResult := m.Run()
	os.Exit(testResult)
}

func truncateAll(t *testing.T) {
	t.Helper()

	_, err := pool.Exec(
		context.Background(),
		"TRUNCATE TABLE transactions, platforms, users, revoked_tokens;",
	)
	if err != nil {
		t.Fatalf("failed to truncate, %v", err)
	}
}

func mustWriteUser(t *testing.T, email string) User {
	t.Helper()

	user, err := WriteRecordUsers(User{Email: email, HashedPassword: "x"}, pool)
	if err != nil {
		t.Fatalf("failed to write user, %v", err)
	}
	return user
}

func mustWritePlatform(t *testing.T, ownerID int64, name string) Platform {
	t.Helper()

	platform, err := WriteRecordPlatforms(Platform{
		Name:         name,
		PlatformType: PlatformExchange,
		OwnerID:      ownerID,
	}, pool)
	if err != nil {
		t.Fatalf("failed to write platform, %v", err)
	}
	return platform
}

func TestWriteAndReadUsers(t *testing.T) {
	truncateAll(t)

	user := mustWriteUser(t, "someone@example.com")

	readUser, err := ReadUserByEmail("someone@example.com", pool)
	if err != nil {
		t.Fatalf("failed to read user, %v", err)
	}

	if readUser.ID != user.ID || readUser.Email != user.Email || readUser.HashedPassword != "x" {
		t.Fatalf("expected %s, got %s", user, readUser)
	}

	// duplicate email must be rejected
	_, err = WriteRecordUsers(User{Email: "someone@example.com", HashedPassword: "y"}, pool)
	if err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// missing email maps to ErrNoUser
	_, err = ReadUserByEmail("nobody@example.com", pool)
	if err != ErrNoUser {
		t.Fatalf("expected ErrNoUser, got %v", err)
	}
}

func TestPlatformRoundTripAndUpdate(t *testing.T) {
	truncateAll(t)

	user := mustWriteUser(t, "p@example.com")
	platform := mustWritePlatform(t, user.ID, "binance")

	readPlatform, err := ReadRecordPlatforms(platform.ID, pool)
	if err != nil {
		t.Fatalf("failed to read platform, %v", err)
	}
	if readPlatform != platform {
		t.Fatalf("expected %+v, got %+v", platform, readPlatform)
	}

	// partial update: only the supplied field changes
	newName := "binance main"
	err = UpdateRecordPlatforms(platform.ID, PlatformUpdate{Name: &newName}, pool)
	if err != nil {
		t.Fatalf("failed to update platform, %v", err)
	}

	readPlatform, err = ReadRecordPlatforms(platform.ID, pool)
	if err != nil {
		t.Fatalf("failed to re-read platform, %v", err)
	}
	if readPlatform.Name != newName || readPlatform.PlatformType != PlatformExchange {
		t.Fatalf("unexpected platform after update, %+v", readPlatform)
	}

	// empty update is a no-op, not an error
	err = UpdateRecordPlatforms(platform.ID, PlatformUpdate{}, pool)
	if err != nil {
		t.Fatalf("empty update errored, %v", err)
	}

	err = DeleteRecordPlatforms(platform.ID, pool)
	if err != nil {
		t.Fatalf("failed to delete platform, %v", err)
	}
	_, err = ReadRecordPlatforms(platform.ID, pool)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionRoundTripAndUpdate(t *testing.T) {
	truncateAll(t)

	user := mustWriteUser(t, "t@example.com")
	platform := mustWritePlatform(t, user.ID, "binance")

	tr, err := WriteRecordTransactions(Transaction{
		AssetName:       "btc",
		Amount:          decimal.RequireFromString("0.5"),
		Cost:            decimal.RequireFromString("10000"),
		CostAsset:       "usd",
		TransactionType: positions.Buy,
		OwnerID:         user.ID,
		PlatformID:      platform.ID,
	}, pool)
	if err != nil {
		t.Fatalf("failed to write transaction, %v", err)
	}

	readTr, err := ReadRecordTransactions(tr.ID, pool)
	if err != nil {
		t.Fatalf("failed to read transaction, %v", err)
	}
	if readTr.AssetName != "btc" || !readTr.Amount.Equal(tr.Amount) ||
		!readTr.Cost.Equal(tr.Cost) || readTr.TransactionType != positions.Buy {
		t.Fatalf("expected %s, got %s", tr, readTr)
	}
	if readTr.Date != nil {
		t.Fatalf("expected nil date, got %v", readTr.Date)
	}

	// patch the amount only
	newAmount := decimal.RequireFromString("0.75")
	err = UpdateRecordTransactions(tr.ID, TransactionUpdate{Amount: &newAmount}, pool)
	if err != nil {
		t.Fatalf("failed to update transaction, %v", err)
	}

	readTr, err = ReadRecordTransactions(tr.ID, pool)
	if err != nil {
		t.Fatalf("failed to re-read transaction, %v", err)
	}
	if !readTr.Amount.Equal(newAmount) || readTr.AssetName != "btc" || readTr.CostAsset != "usd" {
		t.Fatalf("unexpected transaction after update, %s", readTr)
	}

	err = DeleteRecordTransactions(tr.ID, pool)
	if err != nil {
		t.Fatalf("failed to delete transaction, %v", err)
	}
	err = DeleteRecordTransactions(tr.ID, pool)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestReadAssetTotalsGroupsAndSums(t *testing.T) {
	truncateAll(t)

	user := mustWriteUser(t, "a@example.com")
	other := mustWriteUser(t, "other@example.com")
	platform := mustWritePlatform(t, user.ID, "binance")
	otherPlatform := mustWritePlatform(t, other.ID, "kraken")

	write := func(ownerID, platformID int64, asset, costAsset string, typ positions.TransactionType, amount, cost string) {
		t.Helper()
		_, err := WriteRecordTransactions(Transaction{
			AssetName:       asset,
			CostAsset:       costAsset,
			Amount:          decimal.RequireFromString(amount),
			Cost:            decimal.RequireFromString(cost),
			TransactionType: typ,
			OwnerID:         ownerID,
			PlatformID:      platformID,
		}, pool)
		if err != nil {
			t.Fatalf("failed to write transaction, %v", err)
		}
	}

	// two deposits in the same group must be summed into one row
	write(user.ID, platform.ID, "btc", "", positions.Deposit, "0.5", "0")
	write(user.ID, platform.ID, "btc", "", positions.Deposit, "0.25", "0")
	write(user.ID, platform.ID, "btc", "usd", positions.Buy, "0.1", "5000")
	// another user's rows must not leak in
	write(other.ID, otherPlatform.ID, "btc", "", positions.Deposit, "9", "0")

	groups, err := ReadAssetTotals(user.ID, pool)
	if err != nil {
		t.Fatalf("failed to read asset totals, %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}

	for _, g := range groups {
		if g.PlatformName != "binance" {
			t.Fatalf("unexpected platform %s", g.PlatformName)
		}
		switch g.TransactionType {
		case positions.Deposit:
			if !g.TotalAmount.Equal(decimal.RequireFromString("0.75")) {
				t.Fatalf("expected deposit sum 0.75, got %s", g.TotalAmount)
			}
		case positions.Buy:
			if !g.TotalCost.Equal(decimal.RequireFromString("5000")) {
				t.Fatalf("expected buy cost 5000, got %s", g.TotalCost)
			}
		default:
			t.Fatalf("unexpected group %+v", g)
		}
	}
}

func TestTokenRevocationStore(t *testing.T) {
	truncateAll(t)

	hash := "deadbeef"

	revoked, err := TokenIsRevoked(hash, pool)
	if err != nil {
		t.Fatalf("failed to check revocation, %v", err)
	}
	if revoked {
		t.Fatalf("token revoked before being stored")
	}

	err = RevokeToken(hash, time.Now().Add(time.Hour), pool)
	if err != nil {
		t.Fatalf("failed to revoke token, %v", err)
	}
	// revoking again is a no-op
	err = RevokeToken(hash, time.Now().Add(time.Hour), pool)
	if err != nil {
		t.Fatalf("failed to revoke token twice, %v", err)
	}

	revoked, err = TokenIsRevoked(hash, pool)
	if err != nil {
		t.Fatalf("failed to check revocation, %v", err)
	}
	if !revoked {
		t.Fatalf("expected token to be revoked")
	}

	// an already-expired entry no longer counts and gets purged
	err = RevokeToken("expired", time.Now().Add(-time.Minute), pool)
	if err != nil {
		t.Fatalf("failed to store expired token, %v", err)
	}
	revoked, err = TokenIsRevoked("expired", pool)
	if err != nil {
		t.Fatalf("failed to check revocation, %v", err)
	}
	if revoked {
		t.Fatalf("expired entry should not count as revoked")
	}

	purged, err := PurgeExpiredTokens(pool)
	if err != nil {
		t.Fatalf("failed to purge, %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected to purge 1 row, purged %d", purged)
	}
}
