package database

import (
	"log"

	"gorm.io/gorm"
)

// demoteDuplicateMainProperties ensures at most one main property per hotel
// before the application-level validation starts enforcing it. Keeps the
// most recently updated row, demotes the rest to plain competitors.
// This runs BEFORE AutoMigrate so it works against legacy schemas too.
func demoteDuplicateMainProperties(db *gorm.DB) error {
	if !db.Migrator().HasTable("properties") {
		return nil // Fresh database, nothing to clean
	}
	if !db.Migrator().HasColumn("properties", "is_main_property") {
		return nil
	}

	result := db.Exec(`
		UPDATE properties
		SET is_main_property = 0
		WHERE is_main_property = 1
		AND id NOT IN (
			SELECT MAX(id)
			FROM properties
			WHERE is_main_property = 1
			GROUP BY hotel_id
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Demoted %d duplicate main properties", result.RowsAffected)
	}
	return nil
}

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	if err := migratePlatformField(db); err != nil {
		return err
	}
	if err := migrateBundleSizeField(db); err != nil {
		return err
	}
	return nil
}

// migratePlatformField backfills the platform column on properties created
// before platform-specific extraction existed. Everything historical came
// from Booking.com scrapes.
func migratePlatformField(db *gorm.DB) error {
	if db.Migrator().HasColumn("properties", "platform") {
		result := db.Exec(`UPDATE properties SET platform = 'BOOKING' WHERE platform IS NULL OR platform = ''`)
		if result.Error != nil {
			log.Printf("Warning: failed to backfill platform values: %v", result.Error)
		} else if result.RowsAffected > 0 {
			log.Printf("Backfilled platform for %d properties", result.RowsAffected)
		}
	}
	return nil
}

// migrateBundleSizeField normalizes zero or negative bundle sizes to the
// default. A non-positive max_bundle_size would make partitioning loop.
func migrateBundleSizeField(db *gorm.DB) error {
	if db.Migrator().HasColumn("properties", "max_bundle_size") {
		result := db.Exec(`UPDATE properties SET max_bundle_size = 7 WHERE max_bundle_size IS NULL OR max_bundle_size <= 0`)
		if result.Error != nil {
			log.Printf("Warning: failed to normalize bundle sizes: %v", result.Error)
		} else if result.RowsAffected > 0 {
			log.Printf("Normalized max_bundle_size for %d properties", result.RowsAffected)
		}
	}
	return nil
}
