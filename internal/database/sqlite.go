package database

import (
	"log"

	"github.com/roomradar/rate-shopper/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Initialize(dbPath string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	log.Println("Database connected successfully")

	// Clean up before AutoMigrate adds constraints
	if err := demoteDuplicateMainProperties(DB); err != nil {
		log.Printf("Warning: main property cleanup failed: %v", err)
	}

	// Auto-migrate the schema
	err = DB.AutoMigrate(
		&models.Property{},
		&models.Search{},
		&models.Bundle{},
		&models.PriceRecord{},
	)
	if err != nil {
		return err
	}

	if err := RunMigrations(DB); err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
