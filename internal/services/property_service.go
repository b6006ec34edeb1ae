package services

import (
	"gorm.io/gorm"

	"github.com/roomradar/rate-shopper/internal/models"
)

// PropertyService manages the hotel's tracked listings. It owns the one
// rule the schema doesn't enforce: a hotel has at most one main property.
type PropertyService struct {
	db *gorm.DB
}

// NewPropertyService creates a property service on an explicit database handle
func NewPropertyService(db *gorm.DB) *PropertyService {
	return &PropertyService{db: db}
}

// List returns all properties tracked for a hotel, main first
func (s *PropertyService) List(hotelID uint) ([]models.Property, error) {
	var properties []models.Property
	err := s.db.
		Where("hotel_id = ?", hotelID).
		Order("is_main_property DESC, id").
		Find(&properties).Error
	return properties, err
}

// Get returns one property by id
func (s *PropertyService) Get(id uint) (*models.Property, error) {
	var property models.Property
	if err := s.db.First(&property, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPropertyNotFound
		}
		return nil, err
	}
	return &property, nil
}

// Create validates and persists a new property
func (s *PropertyService) Create(req *models.CreatePropertyRequest) (*models.Property, error) {
	platform := req.Platform
	if platform == "" {
		platform = models.PlatformBooking
	}
	if !platform.Valid() {
		return nil, NewValidationError("platform", "unknown platform")
	}

	category := req.Category
	if category == "" {
		category = models.CategoryCompetitor
	}
	if !category.Valid() {
		return nil, NewValidationError("category", "unknown category")
	}

	bundleSize := req.MaxBundleSize
	if bundleSize == 0 {
		bundleSize = models.DefaultMaxBundleSize
	}
	if bundleSize < 0 {
		return nil, NewValidationError("max_bundle_size", "must be positive")
	}

	if req.IsMainProperty {
		if err := s.checkNoOtherMain(req.HotelID, 0); err != nil {
			return nil, err
		}
	}

	property := models.Property{
		HotelID:        req.HotelID,
		Name:           req.Name,
		Platform:       platform,
		Category:       category,
		SourceURL:      req.SourceURL,
		MaxBundleSize:  bundleSize,
		IsMainProperty: req.IsMainProperty,
		Active:         true,
	}
	if property.IsMainProperty {
		property.Category = models.CategoryMain
	}

	if err := s.db.Create(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// Update applies a partial update, holding the one-main-per-hotel rule
func (s *PropertyService) Update(id uint, req *models.UpdatePropertyRequest) (*models.Property, error) {
	property, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		property.Name = *req.Name
	}
	if req.Platform != nil {
		if !req.Platform.Valid() {
			return nil, NewValidationError("platform", "unknown platform")
		}
		property.Platform = *req.Platform
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, NewValidationError("category", "unknown category")
		}
		property.Category = *req.Category
	}
	if req.SourceURL != nil {
		property.SourceURL = *req.SourceURL
	}
	if req.MaxBundleSize != nil {
		if *req.MaxBundleSize <= 0 {
			return nil, NewValidationError("max_bundle_size", "must be positive")
		}
		property.MaxBundleSize = *req.MaxBundleSize
	}
	if req.IsMainProperty != nil {
		if *req.IsMainProperty {
			if err := s.checkNoOtherMain(property.HotelID, property.ID); err != nil {
				return nil, err
			}
			property.Category = models.CategoryMain
		}
		property.IsMainProperty = *req.IsMainProperty
	}
	if req.Active != nil {
		property.Active = *req.Active
	}

	if err := s.db.Save(property).Error; err != nil {
		return nil, err
	}
	return property, nil
}

// checkNoOtherMain rejects a second main property for the same hotel
func (s *PropertyService) checkNoOtherMain(hotelID, excludeID uint) error {
	var count int64
	err := s.db.Model(&models.Property{}).
		Where("hotel_id = ? AND is_main_property = ? AND id != ?", hotelID, true, excludeID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return NewValidationError("is_main_property", "hotel already has a main property")
	}
	return nil
}
