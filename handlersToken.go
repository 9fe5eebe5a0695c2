package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/cryptowallet/app/db"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// exchange email + password for an access token
func onLogin(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, v *verifier) {
	var req LoginRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		log.Printf("NO AUTH : bad login request, %v", err)
		sendStructToUser(ErrResponse{"Badly formatted request"}, w, http.StatusBadRequest)
		return
	}

	req.Email = normaliseEmail(req.Email)

	user, err := db.ReadUserByEmail(req.Email, pool)
	if err == db.ErrNoUser {
		sendStructToUser(ErrResponse{"Invalid credentials"}, w, http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("failed to read user, %v", err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password))
	if err != nil {
		log.Printf("%s : failed login attempt", user.Email)
		sendStructToUser(ErrResponse{"Invalid credentials"}, w, http.StatusUnauthorized)
		return
	}

	token, err := v.IssueToken(user.Email)
	if err != nil {
		log.Printf("%s : failed to issue token, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : logged in", user.Email)
	sendStructToUser(TokenResponse{AccessToken: token, TokenType: "bearer"}, w, 200)
}

// report whether the presented token is currently valid
func onVerifyToken(w http.ResponseWriter, r *http.Request, v *verifier) {
	_, err := v.ParseToken(bearerToken(r))
	if err != nil {
		log.Printf("NO AUTH : token verify failed, %v", err)
		sendStructToUser(ErrResponse{"Invalid token."}, w, http.StatusUnauthorized)
		return
	}

	sendStructToUser(MessageResponse{"Token is valid"}, w, 200)
}

// log the token out by storing its hash until the token would have
// expired on its own. A token that doesn't validate can't be used
// anyway, so logout always reports success.
func onLogout(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, v *verifier) {
	tokenString := bearerToken(r)

	claims, err := v.parseClaims(tokenString)
	if err == nil {
		expiresAt := time.Unix(claims.ExpiresAt, 0)
		err = db.RevokeToken(hashToken(tokenString), expiresAt, pool)
		if err != nil {
			log.Printf("%s : failed to revoke token, %v", claims.Subject, err)
			sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
			return
		}
		log.Printf("%s : logged out", claims.Subject)
	}

	sendStructToUser(MessageResponse{"Successfully logged out"}, w, 200)
}
