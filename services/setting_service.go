package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tour-backend/models"
	"tour-backend/utils"
)

type SettingService struct {
	DB *gorm.DB
}

func NewSettingService(db *gorm.DB) *SettingService {
	return &SettingService{DB: db}
}

// SettingInput updates one setting. Nil descriptive fields are left as they are.
type SettingInput struct {
	Value       string  `json:"value" validate:"max=5000"`
	Label       *string `json:"label" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
}

// ListSettings returns every setting ordered by category and key, plus a key → value map.
func (s *SettingService) ListSettings(ctx context.Context) ([]models.SiteSetting, map[string]string, error) {
	list := []models.SiteSetting{}
	if err := s.DB.WithContext(ctx).Order("category ASC").Order("setting_key ASC").Find(&list).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve settings: %w", err)
	}
	values := make(map[string]string, len(list))
	for _, st := range list {
		values[st.Key] = st.Value
	}
	return list, values, nil
}

// Value returns the stored value for key, or "" when it is not set.
func (s *SettingService) Value(ctx context.Context, key string) string {
	var st models.SiteSetting
	if err := s.DB.WithContext(ctx).Where("setting_key = ?", key).Limit(1).Find(&st).Error; err != nil {
		return ""
	}
	return st.Value
}

func validSettingKey(key string) bool {
	if len(key) < 2 || len(key) > 100 {
		return false
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

// UpsertSetting creates the setting or updates it in place.
func (s *SettingService) UpsertSetting(ctx context.Context, caller *models.Caller, key string, in SettingInput) (*models.SiteSetting, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if !validSettingKey(key) {
		return nil, newValidationError("key", "must be 2-100 characters of a-z, 0-9 or _")
	}
	fields, err := utils.FieldErrors(in)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	row := models.SiteSetting{Key: key, Value: in.Value, UpdatedAt: time.Now()}
	update := []string{"value", "updated_at"}
	if in.Label != nil {
		row.Label = strings.TrimSpace(*in.Label)
		update = append(update, "label")
	}
	if in.Description != nil {
		row.Description = strings.TrimSpace(*in.Description)
		update = append(update, "description")
	}
	if in.Category != nil {
		row.Category = strings.TrimSpace(*in.Category)
		update = append(update, "category")
	}

	db := s.DB.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to save setting: %w", err)
	}

	var saved models.SiteSetting
	if err := db.Where("setting_key = ?", key).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("failed to reload setting: %w", err)
	}
	return &saved, nil
}
