package seed

import (
	"encoding/csv"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Defaults inserts the settings every fresh install needs. Existing values
// are left untouched.
func Defaults(db *sqlx.DB) {
	defaults := [][2]string{
		{"shop_name", "Barbershop"},
		{"shop_address", ""},
		{"shop_phone", ""},
		{"shop_email", ""},
		{"working_hours", "09:00-21:00"},
		{"tax_rate", "0.15"},
	}
	for _, kv := range defaults {
		if _, err := db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			log.Printf("unable to seed setting %s: %v", kv[0], err)
		}
	}
}

// LoadCatalog ingests the CSV into the products table, ignoring duplicates.
// Expected columns: name, barcode, price, cost, quantity, low_stock_threshold, category.
func LoadCatalog(db *sqlx.DB, csvPath string) {
	file, err := os.Open(csvPath)
	if err != nil {
		log.Printf("unable to load product catalog %s: %v", csvPath, err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		log.Printf("unable to read catalog header: %v", err)
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		log.Printf("unable to start catalog transaction: %v", err)
		return
	}
	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO products (name, barcode, price, cost, quantity, low_stock_threshold, category) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("unable to prepare product insert: %v", err)
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("unable to read catalog row: %v", err)
			continue
		}
		if len(record) < 7 {
			continue
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		var barcode *string
		if b := strings.TrimSpace(record[1]); b != "" {
			barcode = &b
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil || price < 0 {
			continue
		}
		cost, _ := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		quantity, _ := strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64)
		threshold, _ := strconv.ParseInt(strings.TrimSpace(record[5]), 10, 64)
		category := strings.TrimSpace(record[6])

		if _, err := stmt.Exec(name, barcode, price, cost, quantity, threshold, category); err != nil {
			log.Printf("unable to insert product %s: %v", name, err)
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("unable to commit catalog seed: %v", err)
	} else {
		log.Printf("seeded product catalog with %d rows", rows)
	}
}
