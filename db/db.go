package db

import (
	"os"

	"github.com/inconshreveable/log15"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var logger = log15.New("module", "db")

var DB *gorm.DB

// Init connects the action archive. Without DATABASE_URL the bot runs with
// archiving and the daily digest disabled; the ledger snapshots are the only
// durable state.
func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Warn("DATABASE_URL not set, action archive disabled")
		return
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Crit("failed to connect to DB", "err", err)
		os.Exit(1)
	}

	if err := DB.AutoMigrate(&ModActionRecord{}, &ServerConfig{}); err != nil {
		logger.Crit("failed to migrate DB", "err", err)
		os.Exit(1)
	}
	logger.Info("connected to DB")
}

// Enabled reports whether the archive is available.
func Enabled() bool {
	return DB != nil
}
