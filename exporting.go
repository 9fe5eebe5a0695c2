package main

import (
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tealeg/xlsx"

	"github.com/cryptowallet/app/db"
	"github.com/cryptowallet/app/positions"
)

// download the caller's transactions as an xlsx workbook: one sheet
// per platform, plus a Positions sheet with the current holdings.
func onExportTransactions(w http.ResponseWriter, r *http.Request, pool *pgxpool.Pool) {
	user, err := currentUser(r, pool)
	if err != nil {
		log.Printf("failed to authorise, %v", err)
		sendStructToUser(ErrResponse{"Authorization error"}, w, 401)
		return
	}

	file, count, err := buildExportFile(user.ID, pool)
	if err != nil {
		log.Printf("%s : failed to build export, %v", user.Email, err)
		sendStructToUser(ErrResponse{"Internal server error"}, w, 500)
		return
	}

	currentDate := time.Now().UTC().Format("2January")
	filename := "transactions_" + currentDate + ".xlsx"

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	err = file.Write(w)
	if err != nil {
		log.Printf("%s : failed to write export, %v", user.Email, err)
		return
	}

	log.Printf("%s : exported %d transactions into %s", user.Email, count, filename)
}

// build the workbook for one user. Returns the file and the number of
// transactions it contains.
func buildExportFile(userID int64, pool *pgxpool.Pool) (*xlsx.File, int, error) {
	file := xlsx.NewFile()

	// positions sheet first, sorted so sheets are stable between
	// downloads
	positionsSheet, err := file.AddSheet("Positions")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to add positions sheet, %v", err)
	}
	headerRow := positionsSheet.AddRow()
	headerRow.AddCell().SetString("Asset")
	headerRow.AddCell().SetString("CostAsset")
	headerRow.AddCell().SetString("Platform")
	headerRow.AddCell().SetString("Amount")
	headerRow.AddCell().SetString("Cost")

	groups, err := db.ReadAssetTotals(userID, pool)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read asset totals, %v", err)
	}

	held := positions.Compute(groups)
	sort.Slice(held, func(i, j int) bool {
		if held[i].PlatformName != held[j].PlatformName {
			return held[i].PlatformName < held[j].PlatformName
		}
		return held[i].AssetName < held[j].AssetName
	})

	for _, p := range held {
		row := positionsSheet.AddRow()
		row.AddCell().SetString(p.AssetName)
		row.AddCell().SetString(p.CostAsset)
		row.AddCell().SetString(p.PlatformName)
		row.AddCell().SetString(p.TotalAmount.String())
		row.AddCell().SetString(p.TotalCost.String())
	}

	// one sheet per platform with the raw transactions
	platforms, err := db.ReadAllRecordsPlatforms(userID, pool)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read platforms, %v", err)
	}
	platformNames := map[int64]string{}
	for _, p := range platforms {
		platformNames[p.ID] = p.Name
	}

	transactions, err := db.ReadAllRecordsTransactions(userID, pool)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read transactions, %v", err)
	}

	for _, tr := range transactions {
		sheetName := platformNames[tr.PlatformID]
		if sheetName == "" {
			sheetName = fmt.Sprintf("platform %d", tr.PlatformID)
		}

		// check if a sheet for this platform exists
		sheet, ok := file.Sheet[sheetName]
		if !ok {
			sheet, err = file.AddSheet(sheetName)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to add sheet %s, %v", sheetName, err)
			}
			// add column headers
			headerRow := sheet.AddRow()
			headerRow.AddCell().SetString("Asset")
			headerRow.AddCell().SetString("Type")
			headerRow.AddCell().SetString("Amount")
			headerRow.AddCell().SetString("Cost")
			headerRow.AddCell().SetString("CostAsset")
			headerRow.AddCell().SetString("ContractType")
			headerRow.AddCell().SetString("Date")
		}

		row := sheet.AddRow()
		row.AddCell().SetString(tr.AssetName)
		row.AddCell().SetString(string(tr.TransactionType))
		row.AddCell().SetString(tr.Amount.String())
		row.AddCell().SetString(tr.Cost.String())
		row.AddCell().SetString(tr.CostAsset)
		row.AddCell().SetString(tr.ContractType)
		if tr.Date != nil {
			row.AddCell().SetString(tr.Date.Format(time.RFC3339))
		} else {
			row.AddCell().SetString("")
		}
	}

	return file, len(transactions), nil
}
