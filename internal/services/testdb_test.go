package services

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/roomradar/rate-shopper/internal/models"
)

// newTestDB opens a fresh in-memory database per test
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Property{},
		&models.Search{},
		&models.Bundle{},
		&models.PriceRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// seedProperty creates a property to hang searches and prices off
func seedProperty(t *testing.T, db *gorm.DB, hotelID uint, platform models.Platform, bundleSize int, main bool) *models.Property {
	t.Helper()

	category := models.CategoryCompetitor
	if main {
		category = models.CategoryMain
	}
	property := &models.Property{
		HotelID:        hotelID,
		Name:           fmt.Sprintf("Hotel %d/%s", hotelID, platform),
		Platform:       platform,
		Category:       category,
		SourceURL:      "https://example.test/hotel",
		MaxBundleSize:  bundleSize,
		IsMainProperty: main,
		Active:         true,
	}
	if err := db.Create(property).Error; err != nil {
		t.Fatalf("failed to seed property: %v", err)
	}
	return property
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
