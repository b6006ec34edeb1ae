package services

import (
	"errors"
	"testing"

	"github.com/roomradar/rate-shopper/internal/models"
)

func TestCreatePropertyDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewPropertyService(db)

	property, err := svc.Create(&models.CreatePropertyRequest{
		HotelID: 1,
		Name:    "Seaside Inn",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if property.Platform != models.PlatformBooking {
		t.Errorf("platform = %s, want BOOKING default", property.Platform)
	}
	if property.Category != models.CategoryCompetitor {
		t.Errorf("category = %s, want COMPETITOR default", property.Category)
	}
	if property.MaxBundleSize != models.DefaultMaxBundleSize {
		t.Errorf("max_bundle_size = %d, want %d", property.MaxBundleSize, models.DefaultMaxBundleSize)
	}
	if !property.Active {
		t.Error("new property should be active")
	}
}

func TestCreatePropertyValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewPropertyService(db)

	tests := []struct {
		name string
		req  models.CreatePropertyRequest
	}{
		{"unknown platform", models.CreatePropertyRequest{HotelID: 1, Name: "X", Platform: "AIRBNB"}},
		{"unknown category", models.CreatePropertyRequest{HotelID: 1, Name: "X", Category: "FRIEND"}},
		{"negative bundle size", models.CreatePropertyRequest{HotelID: 1, Name: "X", MaxBundleSize: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(&tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCreateSecondMainPropertyRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewPropertyService(db)

	first, err := svc.Create(&models.CreatePropertyRequest{
		HotelID: 1, Name: "Own Listing", IsMainProperty: true,
	})
	if err != nil {
		t.Fatalf("first main create failed: %v", err)
	}
	if first.Category != models.CategoryMain {
		t.Errorf("main property category = %s, want MAIN", first.Category)
	}

	_, err = svc.Create(&models.CreatePropertyRequest{
		HotelID: 1, Name: "Second Listing", IsMainProperty: true,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for second main, got %v", err)
	}

	// A different hotel can still have its own main
	if _, err := svc.Create(&models.CreatePropertyRequest{
		HotelID: 2, Name: "Other Hotel", IsMainProperty: true,
	}); err != nil {
		t.Fatalf("main create for other hotel failed: %v", err)
	}
}

func TestUpdatePromoteToMain(t *testing.T) {
	db := newTestDB(t)
	svc := NewPropertyService(db)

	main := seedProperty(t, db, 1, models.PlatformBooking, 7, true)
	competitor := seedProperty(t, db, 1, models.PlatformExpedia, 7, false)

	yes := true
	_, err := svc.Update(competitor.ID, &models.UpdatePropertyRequest{IsMainProperty: &yes})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError promoting second main, got %v", err)
	}

	// Demote the current main, then promotion succeeds
	no := false
	if _, err := svc.Update(main.ID, &models.UpdatePropertyRequest{IsMainProperty: &no}); err != nil {
		t.Fatalf("demote failed: %v", err)
	}
	updated, err := svc.Update(competitor.ID, &models.UpdatePropertyRequest{IsMainProperty: &yes})
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if !updated.IsMainProperty || updated.Category != models.CategoryMain {
		t.Errorf("promoted property = main:%v category:%s, want main:true category:MAIN",
			updated.IsMainProperty, updated.Category)
	}
}

func TestUpdateSameMainPropertyAllowed(t *testing.T) {
	db := newTestDB(t)
	svc := NewPropertyService(db)
	main := seedProperty(t, db, 1, models.PlatformBooking, 7, true)

	// Re-asserting main on the current main must not trip the rule
	yes := true
	name := "Renamed"
	if _, err := svc.Update(main.ID, &models.UpdatePropertyRequest{IsMainProperty: &yes, Name: &name}); err != nil {
		t.Fatalf("update of existing main failed: %v", err)
	}
}

func TestListOrdersMainFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewPropertyService(db)

	seedProperty(t, db, 1, models.PlatformExpedia, 7, false)
	seedProperty(t, db, 1, models.PlatformBooking, 7, true)
	seedProperty(t, db, 2, models.PlatformBooking, 7, true)

	properties, err := svc.List(1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(properties) != 2 {
		t.Fatalf("List returned %d properties, want 2", len(properties))
	}
	if !properties[0].IsMainProperty {
		t.Error("main property should sort first")
	}
}

func TestGetMissingProperty(t *testing.T) {
	db := newTestDB(t)
	svc := NewPropertyService(db)

	if _, err := svc.Get(404); !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("Get(404) = %v, want ErrPropertyNotFound", err)
	}
}
