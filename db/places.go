package db

import (
	"context"

	"github.com/jinzhu/gorm"

	"ubilite/models"
)

// SavedPlaceStore is the gorm-backed clients.SavedPlaces implementation.
type SavedPlaceStore struct {
	db *gorm.DB
}

func NewSavedPlaceStore(database *gorm.DB) *SavedPlaceStore {
	return &SavedPlaceStore{db: database}
}

func (s *SavedPlaceStore) ByUser(ctx context.Context, userID string) ([]models.SavedPlace, error) {
	var places []models.SavedPlace
	err := s.db.Where("user_id = ?", userID).Order("label asc").Find(&places).Error
	if err != nil {
		return nil, err
	}
	return places, nil
}

// Set upserts by (user, label): saving "home" twice keeps one row.
func (s *SavedPlaceStore) Set(ctx context.Context, userID, label string, loc models.Location) error {
	var place models.SavedPlace
	err := s.db.Where("user_id = ? AND label = ?", userID, label).First(&place).Error
	if err != nil && !gorm.IsRecordNotFoundError(err) {
		return err
	}
	place.UserID = userID
	place.Label = label
	place.Address = loc.Address
	place.Lat = loc.Coords.Lat
	place.Lng = loc.Coords.Lng
	return s.db.Save(&place).Error
}
