package models

import "time"

type TourImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TourID     uint      `gorm:"not null;index" json:"tour_id"`
	URL        string    `gorm:"size:1024;not null" json:"url"`
	StorageKey string    `gorm:"size:512" json:"-"`
	AltText    string    `gorm:"size:255" json:"alt_text"`
	SortOrder  int       `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}
