package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/cryptowallet/app/common"
	"github.com/cryptowallet/app/db"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// create a new user account. Emails are stored lowercase and must be
// unique.
func onRegisterUser(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool) {
	var req RegisterRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		log.Printf("NO AUTH : bad register request, %v", err)
		sendStructToUser(ErrResponse{"Badly formatted request"}, w, http.StatusBadRequest)
		return
	}

	req.Email = normaliseEmail(req.Email)
	if !emailIsOK(req.Email) {
		sendStructToUser(ErrResponse{"Invalid email address"}, w, http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		sendStructToUser(ErrResponse{"Password must not be empty"}, w, http.StatusBadRequest)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("failed to hash password, %v", err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	user, err := db.WriteRecordUsers(db.User{
		Email:          req.Email,
		HashedPassword: string(hashed),
	}, pool)
	if err == db.ErrEmailTaken {
		sendStructToUser(ErrResponse{"Email already registered"}, w, http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("failed to write user, %v", err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : registered new user", user.Email)
	go common.SendStaffAlert(fmt.Sprintf("New signup: %s", user.Email))

	sendStructToUser(user, w, 200)
}
