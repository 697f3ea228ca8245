package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tour-backend/models"
	"tour-backend/utils"
)

// maxSlugSuffix bounds the "-2", "-3", ... search before a random suffix is used.
const maxSlugSuffix = 50

type TourService struct {
	DB             *gorm.DB
	Images         ImageStore
	MaxUploadBytes int64
}

func NewTourService(db *gorm.DB, images ImageStore, maxUploadBytes int64) *TourService {
	return &TourService{DB: db, Images: images, MaxUploadBytes: maxUploadBytes}
}

// TourFilter narrows the public catalog.
type TourFilter struct {
	Category string
	Featured *bool
}

// TourInput is the admin create/update payload. Update replaces every field.
type TourInput struct {
	Title         string   `json:"title" validate:"required,min=2,max=255"`
	Slug          string   `json:"slug" validate:"max=255"`
	Category      string   `json:"category" validate:"max=100"`
	Location      string   `json:"location" validate:"max=255"`
	DurationHours float64  `json:"duration_hours" validate:"min=0"`
	Price         float64  `json:"price" validate:"min=0"`
	Currency      string   `json:"currency" validate:"omitempty,len=3"`
	Description   string   `json:"description"`
	Itinerary     string   `json:"itinerary"`
	Highlights    []string `json:"highlights"`
	Inclusions    []string `json:"inclusions"`
	Exclusions    []string `json:"exclusions"`
	PickupInfo    string   `json:"pickup_info"`
	IsFeatured    bool     `json:"is_featured"`
	IsActive      *bool    `json:"is_active"`
}

func cleanList(in []string) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return datatypes.JSONSlice[string](out)
}

func (in *TourInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	fields, err := utils.FieldErrors(in)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (in *TourInput) apply(t *models.Tour) {
	t.Title = in.Title
	t.Category = strings.TrimSpace(in.Category)
	t.Location = strings.TrimSpace(in.Location)
	t.DurationHours = in.DurationHours
	t.Price = in.Price
	t.Currency = in.Currency
	if t.Currency == "" {
		t.Currency = "USD"
	}
	t.Description = in.Description
	t.Itinerary = in.Itinerary
	t.Highlights = cleanList(in.Highlights)
	t.Inclusions = cleanList(in.Inclusions)
	t.Exclusions = cleanList(in.Exclusions)
	t.PickupInfo = in.PickupInfo
	t.IsFeatured = in.IsFeatured
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("id ASC")
}

// ---------------------------
// Public catalog
// ---------------------------

// ListTours returns active tours, featured first, then newest.
func (s *TourService) ListTours(ctx context.Context, f TourFilter) ([]models.Tour, error) {
	q := s.DB.WithContext(ctx).Preload("Images", orderedImages).Where("is_active = ?", true)
	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("LOWER(category) = ?", strings.ToLower(c))
	}
	if f.Featured != nil {
		q = q.Where("is_featured = ?", *f.Featured)
	}

	tours := []models.Tour{}
	if err := q.Order("is_featured DESC").Order("created_at DESC").Order("id DESC").Find(&tours).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tours: %w", err)
	}
	return tours, nil
}

// GetTourBySlug returns one active tour with its ordered gallery.
func (s *TourService) GetTourBySlug(ctx context.Context, slugValue string) (*models.Tour, error) {
	var t models.Tour
	err := s.DB.WithContext(ctx).Preload("Images", orderedImages).
		Where("slug = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(slugValue)), true).
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("failed to retrieve tour: %w", err)
	}
	return &t, nil
}

// ---------------------------
// Admin
// ---------------------------

func (s *TourService) ListAllTours(ctx context.Context, caller *models.Caller) ([]models.Tour, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	tours := []models.Tour{}
	if err := s.DB.WithContext(ctx).Preload("Images", orderedImages).
		Order("created_at DESC").Order("id DESC").Find(&tours).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tours: %w", err)
	}
	return tours, nil
}

func (s *TourService) GetTour(ctx context.Context, caller *models.Caller, id uint) (*models.Tour, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.findTour(s.DB.WithContext(ctx), id)
}

func (s *TourService) findTour(db *gorm.DB, id uint) (*models.Tour, error) {
	var t models.Tour
	if err := db.Preload("Images", orderedImages).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("failed to retrieve tour: %w", err)
	}
	return &t, nil
}

// resolveSlug turns an explicit slug or the title into a slug unused by any tour other than exceptID.
func (s *TourService) resolveSlug(db *gorm.DB, explicit, title string, exceptID uint) (string, error) {
	taken := func(candidate string) (bool, error) {
		var n int64
		q := db.Model(&models.Tour{}).Where("slug = ?", candidate)
		if exceptID != 0 {
			q = q.Where("id <> ?", exceptID)
		}
		if err := q.Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	}

	if explicit != "" {
		candidate := slug.Make(explicit)
		if candidate == "" {
			return "", newValidationError("slug", "must contain letters or digits")
		}
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if used {
			return "", ErrSlugTaken
		}
		return candidate, nil
	}

	base := slug.Make(title)
	if base == "" {
		base = "tour"
	}
	for i := 1; i <= maxSlugSuffix; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return base + "-" + uuid.NewString()[:8], nil
}

func (s *TourService) CreateTour(ctx context.Context, caller *models.Caller, in TourInput) (*models.Tour, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	slugValue, err := s.resolveSlug(db, in.Slug, in.Title, 0)
	if err != nil {
		return nil, err
	}

	t := models.Tour{Slug: slugValue, IsActive: true}
	in.apply(&t)
	if err := db.Omit("Images").Create(&t).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}
	log.Printf("✅ tour %q created (%s)", t.Title, t.Slug)
	return s.findTour(db, t.ID)
}

// UpdateTour rewrites the tour's fields. Booking title snapshots are never touched.
func (s *TourService) UpdateTour(ctx context.Context, caller *models.Caller, id uint, in TourInput) (*models.Tour, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	t, err := s.findTour(db, id)
	if err != nil {
		return nil, err
	}
	if in.Slug != "" && slug.Make(in.Slug) != t.Slug {
		if t.Slug, err = s.resolveSlug(db, in.Slug, in.Title, id); err != nil {
			return nil, err
		}
	}
	in.apply(t)

	if err := db.Model(&models.Tour{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":          t.Title,
		"slug":           t.Slug,
		"category":       t.Category,
		"location":       t.Location,
		"duration_hours": t.DurationHours,
		"price":          t.Price,
		"currency":       t.Currency,
		"description":    t.Description,
		"itinerary":      t.Itinerary,
		"highlights":     t.Highlights,
		"inclusions":     t.Inclusions,
		"exclusions":     t.Exclusions,
		"pickup_info":    t.PickupInfo,
		"is_featured":    t.IsFeatured,
		"is_active":      t.IsActive,
	}).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}
	return s.findTour(db, id)
}

// DeleteTour removes the tour and its gallery. Bookings keep their title
// snapshot and lose only the tour_id link.
func (s *TourService) DeleteTour(ctx context.Context, caller *models.Caller, id uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	var keys []string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TourImage{}).Where("tour_id = ?", id).Pluck("storage_key", &keys).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Booking{}).Where("tour_id = ?", id).Update("tour_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("tour_id = ?", id).Delete(&models.TourImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tour{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTourNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTourNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete tour: %w", err)
	}

	s.deleteBlobs(ctx, keys)
	log.Printf("🗑️  tour %d deleted by user %d", id, caller.UserID)
	return nil
}

func (s *TourService) deleteBlobs(ctx context.Context, keys []string) {
	if s.Images == nil {
		return
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.Images.Delete(ctx, k); err != nil {
			log.Printf("⚠️  failed to delete image blob %s: %v", k, err)
		}
	}
}

// AddImage stores an uploaded image and appends it to the end of the gallery.
func (s *TourService) AddImage(ctx context.Context, caller *models.Caller, tourID uint, r io.Reader, altText string) (*models.TourImage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if s.Images == nil {
		return nil, errors.New("image storage not configured")
	}
	db := s.DB.WithContext(ctx)
	if _, err := s.findTour(db, tourID); err != nil {
		return nil, err
	}

	data, contentType, ext, err := SniffImage(r, s.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	key := NewImageKey(tourID, ext)
	url, err := s.Images.Put(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	var next struct{ Max *int }
	if err := db.Model(&models.TourImage{}).Select("MAX(sort_order) AS max").
		Where("tour_id = ?", tourID).Scan(&next).Error; err != nil {
		s.deleteBlobs(ctx, []string{key})
		return nil, fmt.Errorf("failed to read image order: %w", err)
	}
	order := 0
	if next.Max != nil {
		order = *next.Max + 1
	}

	img := models.TourImage{
		TourID:     tourID,
		URL:        url,
		StorageKey: key,
		AltText:    strings.TrimSpace(altText),
		SortOrder:  order,
	}
	if err := db.Create(&img).Error; err != nil {
		s.deleteBlobs(ctx, []string{key})
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	return &img, nil
}

// ReorderImages assigns sort orders 0..n-1 following imageIDs. Every id must
// belong to the tour; images not listed keep their relative order after them.
func (s *TourService) ReorderImages(ctx context.Context, caller *models.Caller, tourID uint, imageIDs []uint) ([]models.TourImage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var images []models.TourImage
		if err := orderedImages(tx.Where("tour_id = ?", tourID)).Find(&images).Error; err != nil {
			return err
		}
		byID := make(map[uint]bool, len(images))
		for _, img := range images {
			byID[img.ID] = true
		}

		seen := make(map[uint]bool, len(imageIDs))
		order := make([]uint, 0, len(images))
		for _, id := range imageIDs {
			if !byID[id] {
				return ErrImageNotFound
			}
			if !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
		for _, img := range images {
			if !seen[img.ID] {
				order = append(order, img.ID)
			}
		}

		for i, id := range order {
			if err := tx.Model(&models.TourImage{}).Where("id = ?", id).Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to reorder images: %w", err)
	}

	images := []models.TourImage{}
	if err := orderedImages(s.DB.WithContext(ctx).Where("tour_id = ?", tourID)).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve images: %w", err)
	}
	return images, nil
}

func (s *TourService) DeleteImage(ctx context.Context, caller *models.Caller, tourID, imageID uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	db := s.DB.WithContext(ctx)

	var img models.TourImage
	if err := db.Where("id = ? AND tour_id = ?", imageID, tourID).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("failed to retrieve image: %w", err)
	}
	if err := db.Delete(&img).Error; err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	s.deleteBlobs(ctx, []string{img.StorageKey})
	return nil
}
