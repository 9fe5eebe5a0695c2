package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cryptowallet/app/db"
	"github.com/cryptowallet/app/positions"
)

type TransactionCreateRequest struct {
	AssetName       string           `json:"asset_name"`
	ContractType    string           `json:"contract_type"`
	Amount          decimal.Decimal  `json:"amount"`
	Cost            *decimal.Decimal `json:"cost"`
	CostAsset       string           `json:"cost_asset"`
	Date            *time.Time       `json:"date"`
	TransactionType string           `json:"transaction_type"`
	PlatformID      int64            `json:"platform_id"`
}

// validates a create request and turns it into a record. Asset names
// are stored lowercase. The returned error is safe to show the user.
func buildTransaction(req TransactionCreateRequest, ownerID int64) (db.Transaction, error) {
	var tr db.Transaction

	req.AssetName = strings.ToLower(strings.TrimSpace(req.AssetName))
	req.CostAsset = strings.ToLower(strings.TrimSpace(req.CostAsset))

	if len(req.AssetName) < 3 {
		return tr, errors.New("asset_name must be at least 3 characters")
	}
	if len(req.ContractType) > 50 {
		return tr, errors.New("contract_type must be at most 50 characters")
	}
	if len(req.CostAsset) > 50 {
		return tr, errors.New("cost_asset must be at most 50 characters")
	}
	if !req.Amount.IsPositive() {
		return tr, errors.New("amount must be greater than 0")
	}

	cost := decimal.Zero
	if req.Cost != nil {
		if req.Cost.IsNegative() {
			return tr, errors.New("cost must not be negative")
		}
		cost = *req.Cost
	}

	transactionType, err := positions.ParseTransactionType(req.TransactionType)
	if err != nil {
		return tr, fmt.Errorf("invalid transaction_type %s", req.TransactionType)
	}

	if req.PlatformID == 0 {
		return tr, errors.New("platform_id is required")
	}

	tr = db.Transaction{
		AssetName:       req.AssetName,
		ContractType:    req.ContractType,
		Amount:          req.Amount,
		Cost:            cost,
		CostAsset:       req.CostAsset,
		Date:            req.Date,
		TransactionType: transactionType,
		OwnerID:         ownerID,
		PlatformID:      req.PlatformID,
	}
	return tr, nil
}

// validates the supplied fields of a partial update, normalising asset
// names in place. Absent fields are not checked.
func validateTransactionUpdate(upd *db.TransactionUpdate) error {
	if upd.AssetName != nil {
		name := strings.ToLower(strings.TrimSpace(*upd.AssetName))
		if len(name) < 3 {
			return errors.New("asset_name must be at least 3 characters")
		}
		upd.AssetName = &name
	}
	if upd.ContractType != nil && len(*upd.ContractType) > 50 {
		return errors.New("contract_type must be at most 50 characters")
	}
	if upd.CostAsset != nil {
		costAsset := strings.ToLower(strings.TrimSpace(*upd.CostAsset))
		if len(costAsset) > 50 {
			return errors.New("cost_asset must be at most 50 characters")
		}
		upd.CostAsset = &costAsset
	}
	if upd.Amount != nil && !upd.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	if upd.Cost != nil && upd.Cost.IsNegative() {
		return errors.New("cost must not be negative")
	}
	if upd.TransactionType != nil {
		if _, err := positions.ParseTransactionType(*upd.TransactionType); err != nil {
			return fmt.Errorf("invalid transaction_type %s", *upd.TransactionType)
		}
	}
	return nil
}

func onCreateTransaction(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool) {
	user, err := currentUser(r, pool)
	if err != nil {
		log.Printf("failed to authorise, %v", err)
		sendStructToUser(ErrResponse{"Authorization error"}, w, 401)
		return
	}

	var req TransactionCreateRequest
	err = json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		log.Printf("%s : bad create transaction request, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Badly formatted request"}, w, http.StatusBadRequest)
		return
	}

	tr, err := buildTransaction(req, user.ID)
	if err != nil {
		log.Printf("%s : invalid transaction, %v", user.Email, err)
		sendStructToUser(ErrResponse{err.Error()}, w, http.StatusBadRequest)
		return
	}

	tr, err = db.WriteRecordTransactions(tr, pool)
	if err != nil {
		log.Printf("%s : failed to write transaction, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : created transaction %d", user.Email, tr.ID)
	sendStructToUser(tr, w, 200)
}

func onListTransactions(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool) {
	user, err := currentUser(r, pool)
	if err != nil {
		log.Printf("failed to authorise, %v", err)
		sendStructToUser(ErrResponse{"Authorization error"}, w, 401)
		return
	}

	transactions, err := db.ReadAllRecordsTransactions(user.ID, pool)
	if err != nil {
		log.Printf("%s : failed to read transactions, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : served %d transactions", user.Email, len(transactions))
	sendStructToUser(transactions, w, 200)
}

// fetch a transaction, enforcing that it exists and belongs to the
// caller. Writes the error response itself when it returns an error.
func ownedTransaction(
	w http.ResponseWriter,
	r *http.Request,
	pool *pgxpool.Pool,
	transactionID int64,
) (db.Transaction, db.User, error) {
	user, err := currentUser(r, pool)
	if err != nil {
		log.Printf("failed to authorise, %v", err)
		sendStructToUser(ErrResponse{"Authorization error"}, w, 401)
		return db.Transaction{}, db.User{}, err
	}

	tr, err := db.ReadRecordTransactions(transactionID, pool)
	if err == db.ErrNotFound {
		sendStructToUser(ErrResponse{"Transaction not found"}, w, http.StatusNotFound)
		return tr, user, err
	}
	if err != nil {
		log.Printf("%s : failed to read transaction %d, %v", user.Email, transactionID, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return tr, user, err
	}

	if tr.OwnerID != user.ID {
		log.Printf("%s : denied access to transaction %d", user.Email, transactionID)
		sendStructToUser(
			ErrResponse{"You do not have permission to access this transaction"},
			w, http.StatusForbidden,
		)
		return tr, user, errors.New("not the owner")
	}

	return tr, user, nil
}

func onGetTransaction(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, transactionID int64) {
	tr, user, err := ownedTransaction(w, r, pool, transactionID)
	if err != nil {
		return
	}

	log.Printf("%s : served transaction %d", user.Email, tr.ID)
	sendStructToUser(tr, w, 200)
}

func onUpdateTransaction(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, transactionID int64) {
	_, user, err := ownedTransaction(w, r, pool, transactionID)
	if err != nil {
		return
	}

	var upd db.TransactionUpdate
	err = json.NewDecoder(r.Body).Decode(&upd)
	if err != nil {
		log.Printf("%s : bad update transaction request, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Badly formatted request"}, w, http.StatusBadRequest)
		return
	}

	if err := validateTransactionUpdate(&upd); err != nil {
		log.Printf("%s : invalid transaction update, %v", user.Email, err)
		sendStructToUser(ErrResponse{err.Error()}, w, http.StatusBadRequest)
		return
	}

	err = db.UpdateRecordTransactions(transactionID, upd, pool)
	if err != nil {
		log.Printf("%s : failed to update transaction %d, %v", user.Email, transactionID, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	tr, err := db.ReadRecordTransactions(transactionID, pool)
	if err != nil {
		log.Printf("%s : failed to re-read transaction %d, %v", user.Email, transactionID, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : updated transaction %d", user.Email, tr.ID)
	sendStructToUser(tr, w, 200)
}

func onDeleteTransaction(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool, transactionID int64) {
	tr, user, err := ownedTransaction(w, r, pool, transactionID)
	if err != nil {
		return
	}

	err = db.DeleteRecordTransactions(transactionID, pool)
	if err != nil {
		log.Printf("%s : failed to delete transaction %d, %v", user.Email, transactionID, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	log.Printf("%s : deleted transaction %d", user.Email, tr.ID)
	sendStructToUser(tr, w, 200)
}
