package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup/internal/models"
	"github.com/stitts-dev/dfs-lineup/pkg/config"
	"github.com/stitts-dev/dfs-lineup/pkg/database"
	"github.com/stitts-dev/dfs-lineup/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: migrate [up|down|status]")
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := models.AutoMigrate(db.DB); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Info("Tables dropped successfully")

	case "status":
		for _, table := range []interface{}{&models.OptimizationRun{}, &models.Lineup{}, &models.LineupPlayer{}} {
			fmt.Printf("%-20T %v\n", table, db.Migrator().HasTable(table))
		}

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func dropTables(db *database.DB) error {
	// children first for the foreign keys
	return db.Migrator().DropTable(&models.LineupPlayer{}, &models.Lineup{}, &models.OptimizationRun{})
}
