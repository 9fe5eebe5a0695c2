package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptowallet/app/common"
	"github.com/cryptowallet/app/db"
)

// send any interface that can be marshalled as an http response.
func sendStructToUser(v any, w http.ResponseWriter, code int) {
	w.WriteHeader(code)

	// marshall struct as json
	jsonData, err := json.Marshal(v)
	if err != nil {
		log.Printf("err marshalling json, %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// send to user
	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonData)

	if code == 500 {
		go common.SendStaffAlert("Sent 500 response to user, check logs.")
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrResponse struct {
	Err string `json:"err"`
}

// resolve the authenticated request to its user record
func currentUser(r *http.Request, pool *pgxpool.Pool) (db.User, error) {
	email, err := extractUserEmail(r)
	if err != nil {
		return db.User{}, err
	}

	return db.ReadUserByEmail(email, pool)
}

func emailIsOK(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// reject "Name <a@b.c>" style input, only a bare address is valid
	return addr.Address == email
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
