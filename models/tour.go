package models

import (
	"time"

	"gorm.io/datatypes"
)

type Tour struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	Title         string  `gorm:"size:255;not null" json:"title"`
	Slug          string  `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Category      string  `gorm:"size:100;index" json:"category"`
	Location      string  `gorm:"size:255" json:"location"`
	DurationHours float64 `gorm:"column:duration_hours" json:"duration_hours"`
	Price         float64 `json:"price"`
	Currency      string  `gorm:"size:3;not null;default:USD" json:"currency"`

	Description string                      `gorm:"type:text" json:"description"`
	Itinerary   string                      `gorm:"type:text" json:"itinerary"`
	Highlights  datatypes.JSONSlice[string] `json:"highlights"`
	Inclusions  datatypes.JSONSlice[string] `json:"inclusions"`
	Exclusions  datatypes.JSONSlice[string] `json:"exclusions"`
	PickupInfo  string                      `gorm:"column:pickup_info;type:text" json:"pickup_info"`

	IsFeatured bool `gorm:"column:is_featured;not null;index" json:"is_featured"`
	IsActive   bool `gorm:"column:is_active;not null;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Images []TourImage `gorm:"foreignKey:TourID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// MainImage returns the image with the lowest sort order, or nil when the tour has none.
func (t *Tour) MainImage() *TourImage {
	var main *TourImage
	for i := range t.Images {
		img := &t.Images[i]
		if main == nil || img.SortOrder < main.SortOrder ||
			(img.SortOrder == main.SortOrder && img.ID < main.ID) {
			main = img
		}
	}
	return main
}
