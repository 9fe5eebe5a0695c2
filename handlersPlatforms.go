package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cryptowallet/app/db"
)

type PlatformCreateRequest struct {
	Name          string `json:"name"`
	PlatformType  string `json:"platform_type"`
	WalletAddress string `json:"wallet_address"`
}

// validates a create request and turns it into a record. A blockchain
// platform carrying a wallet address must carry a real hex address.
// The returned error is safe to show the user.
func buildPlatform(req PlatformCreateRequest, ownerID int64) (db.Platform, error) {
	var platform db.Platform

	req.Name = strings.TrimSpace(req.Name)

	if len(req.Name) < 3 {
		return platform, errors.New("name must be at least 3 characters")
	}
	if len(req.WalletAddress) > 100 {
		return platform, errors.New("wallet_address must be at most 100 characters")
	}

	platformType, err := db.ParsePlatformType(req.PlatformType)
	if err != nil {
		return platform, fmt.Errorf("invalid platform_type %s", req.PlatformType)
	}

	if platformType == db.PlatformBlockchain && req.WalletAddress != "" {
		if !ethcommon.IsHexAddress(req.WalletAddress) {
			return platform, errors.New("wallet_address is not a valid address")
		}
	}

	platform = db.Platform{
		Name:          req.Name,
		PlatformType:  platformType,
		WalletAddress: req.WalletAddress,
		OwnerID:       ownerID,
	}
	return platform, nil
}

// validates the supplied fields of a partial update. Absent fields are
// not checked.
func validatePlatformUpdate(upd *db.PlatformUpdate) error {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if len(name) < 3 {
			return errors.New("name must be at least 3 characters")
		}
		upd.Name = &name
	}
	if upd.PlatformType != nil {
		if _, err := db.ParsePlatformType(*upd.PlatformType); err != nil {
			return fmt.Errorf("invalid platform_type %s", *upd.PlatformType)
		}
	}
	if upd.WalletAddress != nil && len(*upd.WalletAddress) > 100 {
		return errors.New("wallet_address must be at most 100 characters")
	}
	return nil
}

func onCreatePlatform(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool) {
	user, err := currentUser(r, pool)
	if err != nil {
		log.Printf("failed to authorise, %v", err)
		sendStructToUser(ErrResponse{"Authorization error"}, w, 401)
		return
	}

	var req PlatformCreateRequest
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		log.Printf("%s : bad create platform request, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Badly formatted request"}, w, http.StatusBadRequest)
		return
	}

	platform, err := buildPlatform(req, user.ID)
	if err != nil {
		log.Printf("%s : invalid platform, %v", user.Email, err)
		sendStructToUser(ErrResponse{err.Error()}, w, http.StatusBadRequest)
		return
	}

	platform, err = db.WriteRecordPlatforms(platform, pool)
	if err != nil {
		log.Printf("%s : failed to write platform, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : created platform %d (%s)", user.Email, platform.ID, platform.Name)
	sendStructToUser(platform, w, 200)
}

func onListPlatforms(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool) {
	user, err := currentUser(r, pool)
	if err != nil {
		log.Printf("failed to authorise, %v", err)
		sendStructToUser(ErrResponse{"Authorization error"}, w, 401)
		return
	}

	platforms, err := db.ReadAllRecordsPlatforms(user.ID, pool)
	if err != nil {
		log.Printf("%s : failed to read platforms, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : served %d platforms", user.Email, len(platforms))
	sendStructToUser(platforms, w, 200)
}

// fetch a platform, enforcing that it exists and belongs to the
// caller. Writes the error response itself when it returns an error.
func ownedPlatform(
	w http.ResponseWriter,
	r *http.Request,
	pool *pgxpool.Pool,
	platformID int64,
) (db.Platform, db.User, error) {
	user, err := currentUser(r, pool)
	if err != nil {
		log.Printf("failed to authorise, %v", err)
		sendStructToUser(ErrResponse{"Authorization error"}, w, 401)
		return db.Platform{}, db.User{}, err
	}

	platform, err := db.ReadRecordPlatforms(platformID, pool)
	if err == db.ErrNotFound {
		sendStructToUser(ErrResponse{"Platform not found"}, w, http.StatusNotFound)
		return platform, user, err
	}
	if err != nil {
		log.Printf("%s : failed to read platform %d, %v", user.Email, platformID, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return platform, user, err
	}

	if platform.OwnerID != user.ID {
		log.Printf("%s : denied access to platform %d", user.Email, platformID)
		sendStructToUser(
			ErrResponse{"You do not have permission to access this platform"},
			w, http.StatusForbidden,
		)
		return platform, user, errors.New("not the owner")
	}

	return platform, user, nil
}

func onGetPlatform(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, platformID int64) {
	platform, user, err := ownedPlatform(w, r, pool, platformID)
	if err != nil {
		return
	}

	log.Printf("%s : served platform %d", user.Email, platform.ID)
	sendStructToUser(platform, w, 200)
}

func onUpdatePlatform(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, platformID int64) {
	_, user, err := ownedPlatform(w, r, pool, platformID)
	if err != nil {
		return
	}

	var upd db.PlatformUpdate
	err = json.NewDecoder(r.Body).Decode(&upd)
	if err != nil {
		log.Printf("%s : bad update platform request, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Badly formatted request"}, w, http.StatusBadRequest)
		return
	}

	if err := validatePlatformUpdate(&upd); err != nil {
		log.Printf("%s : invalid platform update, %v", user.Email, err)
		sendStructToUser(ErrResponse{err.Error()}, w, http.StatusBadRequest)
		return
	}

	err = db.UpdateRecordPlatforms(platformID, upd, pool)
	if err != nil {
		log.Printf("%s : failed to update platform %d, %v", user.Email, platformID, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	platform, err := db.ReadRecordPlatforms(platformID, pool)
	if err != nil {
		log.Printf("%s : failed to re-read platform %d, %v", user.Email, platformID, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : updated platform %d", user.Email, platform.ID)
	sendStructToUser(platform, w, 200)
}

func onDeletePlatform(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, platformID int64) {
	platform, user, err := ownedPlatform(w, r, pool, platformID)
	if err != nil {
		return
	}

	err = db.DeleteRecordPlatforms(platformID, pool)
	if err != nil {
		log.Printf("%s : failed to delete platform %d, %v", user.Email, platformID, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : deleted platform %d", user.Email, platform.ID)
	sendStructToUser(platform, w, 200)
}
