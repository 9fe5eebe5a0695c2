package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// verifier issues and validates the HS256 access tokens the API hands
// out at login. Revocation is checked through isRevoked, which the
// caller points at the persisted revocation store, so a logout
// survives process restarts and is visible to every instance.
type verifier struct {
	secret    []byte
	tokenTTL  time.Duration
	isRevoked func(tokenHash string) (bool, error)
}

type ctxKey string

const CtxKeyclaims = ctxKey("claims")

func NewVerifier(
	secret string,
	tokenTTL time.Duration,
	isRevoked func(tokenHash string) (bool, error),
) *verifier {
	return &verifier{
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		isRevoked: isRevoked,
	}
}

// the revocation store is keyed by hash so raw tokens never land in
// the database
func hashToken(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}

// creates a signed access token identifying the given email
func (v *verifier) IssueToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.StandardClaims{
		Subject:   email,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(v.tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token, %v", err)
	}

	return signed, nil
}

func (v *verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return v.secret, nil
}

// validates signature and expiry only, without consulting the
// revocation store. Logout uses this to learn the token's expiry.
func (v *verifier) parseClaims(tokenString string) (*jwt.StandardClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.StandardClaims{}, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token, %v", err)
	}

	claims, ok := token.Claims.(*jwt.StandardClaims)
	if !ok || !token.Valid {
		return nil, errors.New("token not valid")
	}

	return claims, nil
}

// full check: revocation store first, then signature and expiry
func (v *verifier) ParseToken(tokenString string) (*jwt.StandardClaims, error) {
	revoked, err := v.isRevoked(hashToken(tokenString))
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation, %v", err)
	}
	if revoked {
		return nil, errors.New("token has been logged out")
	}

	return v.parseClaims(tokenString)
}

func bearerToken(r *http.Request) string {
	tokenString := r.Header.Get("Authorization")
	return strings.TrimPrefix(tokenString, "Bearer ")
}

// middleware that rejects requests without a valid, unrevoked token,
// and puts the claims into the context for the next handler
func (v *verifier) authoriseJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)

		claims, err := v.ParseToken(tokenString)
		if err != nil {
			log.Printf("failed to auth, %v", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := contextWithClaims(r, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithClaims(r *http.Request, claims *jwt.StandardClaims) context.Context {
	return context.WithValue(r.Context(), CtxKeyclaims, claims)
}

// will log errors
func extractUserEmail(r *http.Request) (string, error) {
	// get email from JWT claims
	val := r.Context().Value(CtxKeyclaims)
	if val == nil {
		err := fmt.Errorf("no claims in context. Context: %v", r.Context())
		log.Printf("extractUserEmail error: %v", err)
		return "", err
	}

	claims, ok := val.(*jwt.StandardClaims)
	if !ok {
		err := fmt.Errorf("claims are not of type *jwt.StandardClaims. Type: %T, Value: %v", val, val)
		log.Printf("extractUserEmail error: %v", err)
		return "", err
	}

	return claims.Subject, nil
}
