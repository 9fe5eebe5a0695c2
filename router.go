package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

func CreateServer(
	addr string,
	dbConnPool *pgxpool.Pool,
	v *verifier,
) *http.Server {
	router := http.NewServeMux()

	// no auth
	router.Handle("/", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		sendStructToUser(MessageResponse{"Welcome to the Crypto Wallet API"}, w, 200)
	})))
	router.Handle("/users", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		onRegisterUser(w, r, dbConnPool)
	})))

	// token lifecycle. Verification and logout inspect the bearer
	// token themselves, so no middleware here
	router.Handle("/token", corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			onLogin(w, r, dbConnPool, v)
		case http.MethodGet:
			onVerifyToken(w, r, v)
		case http.MethodDelete:
			onLogout(w, r, dbConnPool, v)
		default:
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		}
	})))

	// needs auth
	router.Handle("/transactions", corsMiddleware(v.authoriseJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			onCreateTransaction(w, r, dbConnPool)
		case http.MethodGet:
			onListTransactions(w, r, dbConnPool)
		default:
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		}
	}))))
	router.Handle("/transactions/", corsMiddleware(v.authoriseJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/transactions/")

		if rest == "export" {
			if r.Method != http.MethodGet {
				http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
				return
			}
			onExportTransactions(w, r, dbConnPool)
			return
		}

		transactionID, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			onGetTransaction(w, r, dbConnPool, transactionID)
		case http.MethodPut:
			onUpdateTransaction(w, r, dbConnPool, transactionID)
		case http.MethodDelete:
			onDeleteTransaction(w, r, dbConnPool, transactionID)
		default:
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		}
	}))))
	router.Handle("/platforms", corsMiddleware(v.authoriseJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			onCreatePlatform(w, r, dbConnPool)
		case http.MethodGet:
			onListPlatforms(w, r, dbConnPool)
		default:
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		}
	}))))
	router.Handle("/platforms/", corsMiddleware(v.authoriseJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/platforms/")

		platformID, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			onGetPlatform(w, r, dbConnPool, platformID)
		case http.MethodPut:
			onUpdatePlatform(w, r, dbConnPool, platformID)
		case http.MethodDelete:
			onDeletePlatform(w, r, dbConnPool, platformID)
		default:
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		}
	}))))
	router.Handle("/assets", corsMiddleware(v.authoriseJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		onGetAssets(w, r, dbConnPool)
	}))))

	server := &http.Server{
		Addr:     addr,
		Handler:  router,
		ErrorLog: log.New(&errorLogWriter{}, "", 0), // custom error logger
	}

	return server
}

type errorLogWriter struct{}

func (elw *errorLogWriter) Write(p []byte) (n int, err error) {
	msg := string(p)
	if strings.HasSuffix(msg, "tls: first record does not look like a TLS handshake") {
		return len(p), nil // Suppress this specific log message
	}
	return os.Stdout.Write(p) // Log other messages
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowedOrigins := []string{
			"http://localhost:3000",
			"https://cwd.danjon.xyz",
		}

		isAllowed := false
		for _, allowedOrigin := range allowedOrigins {
			if allowedOrigin == origin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				isAllowed = true
				break
			}
		}
		if !isAllowed {
			w.Header().Set("Access-Control-Allow-Origin", "none")
		}

		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		// if it's just an OPTIONS request (a preflight request), nothing other than the headers is needed
		if r.Method == "OPTIONS" {
			return
		}

		next.ServeHTTP(w, r)
	})
}
