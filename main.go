package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"barberpos/m/internal/api"
	"barberpos/m/internal/config"
	"barberpos/m/internal/database"
	"barberpos/m/internal/ledger"
	"barberpos/m/internal/logger"
	"barberpos/m/internal/migrations"
	"barberpos/m/internal/report"
	"barberpos/m/internal/sales"
	"barberpos/m/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.Fatalf("unable to create database directory: %v", err)
	}

	db := database.Connect(cfg.DatabasePath)
	defer db.Close()

	migrations.Run(db)
	seed.Defaults(db)
	seed.LoadCatalog(db, "assets/catalog.csv")

	appLog := logger.New()
	store := ledger.New(db, appLog)
	poster := sales.NewPoster(store, appLog)
	reports := report.New(db)

	handler := api.New(store, poster, reports, appLog, cfg.Secret, cfg.DatabasePath, cfg.BackupDir)

	log.Printf("BarberPOS server starting on :%s", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, handler.Router()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
