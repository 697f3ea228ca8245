package models

import "time"

type SiteSetting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"column:setting_key;size:100;not null;uniqueIndex" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Label       string    `gorm:"size:255" json:"label"`
	Description string    `gorm:"size:500" json:"description"`
	Category    string    `gorm:"size:100;index" json:"category"`
	UpdatedAt   time.Time `json:"updated_at"`
}
