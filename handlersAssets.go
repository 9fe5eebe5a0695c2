package main

import (
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptowallet/app/db"
	"github.com/cryptowallet/app/positions"
)

// current holdings per asset per platform: aggregate the user's
// transactions and fold them into net positions. No ordering is
// promised to the client.
func onGetAssets(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool) {
	user, err := currentUser(r, pool)
	if err != nil {
		log.Printf("failed to authorise, %v", err)
		sendStructToUser(ErrResponse{"Authorization error"}, w, 401)
		return
	}

	groups, err := db.ReadAssetTotals(user.ID, pool)
	if err != nil {
		log.Printf("%s : failed to read asset totals, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	held := positions.Compute(groups)

	log.Printf("%s : served %d positions from %d groups", user.Email, len(held), len(groups))
	sendStructToUser(held, w, 200)
}
