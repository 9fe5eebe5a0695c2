package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cryptowallet/app/common"
	"github.com/cryptowallet/app/db"
)

var ENVPATH = "inputs/settings.env"
var DEFAULT_TOKEN_EXPIRE_MINUTES = 30
var TOKEN_PURGE_INTERVAL = time.Hour

var TESTING bool
var dbConnPool *pgxpool.Pool

func main() {
	// set up logger
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	logger := &lumberjack.Logger{ // change file at 200MB, and delete after 7 days
		Filename:   "log.log",
		MaxSize:    200,        // in MB
		MaxBackups: 9999999999, // set very large to effectively disable the max simultaneous number of logfiles
		MaxAge:     7,          // days
	}

	wrt := io.MultiWriter(os.Stdout, logger)
	log.SetOutput(wrt)
	defer logger.Close()

	log.Printf("launching…")

	// get creds from settings env
	creds, err := godotenv.Read(ENVPATH)
	if err != nil {
		log.Fatalf("failed to read creds, %v", err)
	}
	TESTING, err := strconv.ParseBool(creds["TESTING"])
	if err != nil {
		log.Fatalf("non bool creds.TESTING %s, %v", creds["TESTING"], err)
	}
	log.Printf("in testing mode: %t", TESTING)

	common.STAFF_DISC_WH_URL = creds["STAFF_DISC_WH_URL"]

	secretKey := creds["SECRET_KEY"]
	if secretKey == "" {
		log.Fatalf("SECRET_KEY must be set")
	}

	tokenTTLMinutes := DEFAULT_TOKEN_EXPIRE_MINUTES
	if creds["ACCESS_TOKEN_EXPIRE_MINUTES"] != "" {
		tokenTTLMinutes, err = strconv.Atoi(creds["ACCESS_TOKEN_EXPIRE_MINUTES"])
		if err != nil {
			log.Fatalf("non int creds.ACCESS_TOKEN_EXPIRE_MINUTES %s, %v", creds["ACCESS_TOKEN_EXPIRE_MINUTES"], err)
		}
	}

	// get database connection pool
	pool, err := db.GetConnPool(creds["DB_NAME"], creds["DB_USER"], creds["DB_PASS"], TESTING)
	if err != nil {
		log.Fatalf("failed to get conn pool, %v", err)
	}
	dbConnPool = pool

	if err := db.EnsureSchema(pool); err != nil {
		log.Fatalf("failed to ensure schema, %v", err)
	}
	log.Printf("successfully ensured schema")

	// create JWT verifier backed by the persisted revocation store
	v := NewVerifier(
		secretKey,
		time.Duration(tokenTTLMinutes)*time.Minute,
		func(tokenHash string) (bool, error) {
			return db.TokenIsRevoked(tokenHash, pool)
		},
	)

	// launch services
	go launchRevokedTokenPurger(pool)

	// listen to http requests
	port := creds["LOCAL_PORT"]
	if port == "" {
		port = "8080"
	}

	server := CreateServer(":"+port, pool, v)
	log.Printf("listening on port %s", port)

	if creds["DOMAIN_NAME"] != "" {
		err = server.ListenAndServeTLS(
			fmt.Sprintf("/etc/letsencrypt/live/%s/fullchain.pem", creds["DOMAIN_NAME"]),
			fmt.Sprintf("/etc/letsencrypt/live/%s/privkey.pem", creds["DOMAIN_NAME"]),
		)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil {
		log.Fatalf("err serving http, %v", err)
	}
}

// Periodically deletes revocation entries for tokens that have expired
// on their own, so the revoked_tokens table stays bounded by the token
// TTL.
func launchRevokedTokenPurger(pool *pgxpool.Pool) {
	log.Printf("tokenPurger : launched revoked token purger")

	for {
		timer := time.NewTimer(TOKEN_PURGE_INTERVAL)
		<-timer.C

		purged, err := db.PurgeExpiredTokens(pool)
		if err != nil {
			common.LogAndSendAlertF("tokenPurger : failed to purge expired tokens, %v", err)
			continue
		}

		if purged > 0 {
			log.Printf("tokenPurger : purged %d expired token(s)", purged)
		}
	}
}
