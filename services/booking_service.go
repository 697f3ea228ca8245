// services/booking_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"tour-backend/models"
	"tour-backend/utils"

	"gorm.io/gorm"
)

// MaxReferenceAttempts bounds how many fresh references CreateBooking tries
// before giving up with ErrReferenceGeneration.
const MaxReferenceAttempts = 5

// BookingService owns the booking lifecycle: public creation and tracking,
// and the admin moderation operations.
type BookingService struct {
	DB       *gorm.DB
	Notifier Notifier
	Mailer   EmailSender
	Tokens   *utils.TokenIssuer
	Location *time.Location

	Now               func() time.Time
	GenerateReference func() (string, error)
}

func NewBookingService(db *gorm.DB, notifier Notifier, mailer EmailSender, tokens *utils.TokenIssuer, loc *time.Location) *BookingService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		DB:                db,
		Notifier:          notifier,
		Mailer:            mailer,
		Tokens:            tokens,
		Location:          loc,
		Now:               time.Now,
		GenerateReference: utils.GenerateBookingReference,
	}
}

// BookingInput is what the public booking form submits.
type BookingInput struct {
	TourID   uint   `json:"tour_id" validate:"required"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"required,min=8,max=20"`
	Country  string `json:"country" validate:"required,min=2,max=100"`
	TourDate string `json:"tour_date" validate:"required,datetime=2006-01-02"`
	Adults   int    `json:"adults" validate:"min=1,max=50"`
	Children int    `json:"children" validate:"min=0,max=50"`
	Message  string `json:"message" validate:"max=1000"`
}

func (in *BookingInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Country = strings.TrimSpace(in.Country)
	in.TourDate = strings.TrimSpace(in.TourDate)
	in.Message = strings.TrimSpace(in.Message)
}

// BookingFilter narrows ListBookings. Zero values mean "no filter".
type BookingFilter struct {
	Status models.BookingStatus
	Query  string
}

// BookingStats feeds the admin dashboard.
type BookingStats struct {
	Total          int64                          `json:"total_bookings"`
	ByStatus       map[models.BookingStatus]int64 `json:"by_status"`
	UnreadMessages int64                          `json:"unread_messages"`
	ActiveTours    int64                          `json:"active_tours"`
}

func (s *BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *BookingService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *BookingService) newReference() (string, error) {
	if s.GenerateReference != nil {
		return s.GenerateReference()
	}
	return utils.GenerateBookingReference()
}

// validate checks field rules and the future-date rule, returning the parsed tour date.
func (s *BookingService) validate(in BookingInput) (time.Time, error) {
	fields, err := utils.FieldErrors(in)
	if err != nil {
		return time.Time{}, err
	}
	if fields == nil {
		fields = map[string]string{}
	}

	var tourDate time.Time
	if _, bad := fields["tour_date"]; !bad {
		loc := s.location()
		d, perr := time.ParseInLocation("2006-01-02", in.TourDate, loc)
		if perr != nil {
			fields["tour_date"] = "must be a date in YYYY-MM-DD format"
		} else {
			now := s.now().In(loc)
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
			if !d.After(today) {
				fields["tour_date"] = "must be a future date"
			}
			tourDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		}
	}

	if len(fields) > 0 {
		return time.Time{}, &ValidationError{Fields: fields}
	}
	return tourDate, nil
}

// CreateBooking validates the input, snapshots the tour title and inserts a
// pending booking under a freshly generated reference.
func (s *BookingService) CreateBooking(ctx context.Context, in BookingInput) (*models.Booking, error) {
	in.normalize()
	tourDate, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	var tour models.Tour
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND is_active = ?", in.TourID, true).
		First(&tour).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, fmt.Errorf("%w: load tour: %v", ErrBookingCreation, err)
	}

	tourID := tour.ID
	booking := models.Booking{
		TourID:    &tourID,
		TourTitle: tour.Title,
		FullName:  in.FullName,
		Email:     in.Email,
		Phone:     in.Phone,
		Country:   in.Country,
		TourDate:  tourDate,
		Adults:    in.Adults,
		Children:  in.Children,
		Message:   in.Message,
		Status:    models.BookingPending,
	}

	// create with retries on unique collision
	var createErr error
	for attempt := 1; attempt <= MaxReferenceAttempts; attempt++ {
		ref, gErr := s.newReference()
		if gErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrReferenceGeneration, gErr)
		}
		booking.ID = 0
		booking.BookingReference = ref

		createErr = s.DB.WithContext(ctx).Omit("Tour").Create(&booking).Error
		if createErr == nil {
			break
		}
		if isDuplicateKeyError(createErr) {
			log.Printf("booking reference collision (attempt %d) - retrying", attempt)
			continue
		}
		return nil, fmt.Errorf("%w: %v", ErrBookingCreation, createErr)
	}
	if createErr != nil {
		return nil, fmt.Errorf("%w after %d attempts", ErrReferenceGeneration, MaxReferenceAttempts)
	}

	log.Printf("✅ booking %s created for tour %d (%s)", booking.BookingReference, tour.ID, utils.MaskEmail(booking.Email))

	snapshot := booking
	s.Notifier.Dispatch(Notification{Type: NotifyBooking, Booking: &snapshot})
	return &booking, nil
}

// TrackBooking returns the booking only when both reference and email match.
// Every miss is ErrBookingNotFound.
func (s *BookingService) TrackBooking(ctx context.Context, reference, email string) (*models.Booking, error) {
	ref := utils.NormalizeReference(reference)
	mail := utils.NormalizeEmail(email)
	if ref == "" || mail == "" {
		return nil, ErrBookingNotFound
	}

	var b models.Booking
	err := s.DB.WithContext(ctx).
		Where("booking_reference = ? AND LOWER(email) = ?", ref, mail).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to track booking: %w", err)
	}
	return &b, nil
}

// likeEscaper makes % and _ match literally under ESCAPE '!'. A backslash
// would need different quoting in MySQL and Postgres.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// ListBookings returns bookings newest first.
func (s *BookingService) ListBookings(ctx context.Context, caller *models.Caller, f BookingFilter) ([]models.Booking, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	q := s.DB.WithContext(ctx).Model(&models.Booking{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where(
			"LOWER(full_name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR "+
				"LOWER(booking_reference) LIKE ? ESCAPE '!' OR LOWER(tour_title) LIKE ? ESCAPE '!'",
			like, like, like, like,
		)
	}

	list := []models.Booking{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve bookings: %w", err)
	}
	return list, nil
}

func (s *BookingService) GetBooking(ctx context.Context, caller *models.Caller, id uint) (*models.Booking, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.findBooking(ctx, id)
}

func (s *BookingService) findBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := s.DB.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to retrieve booking: %w", err)
	}
	return &b, nil
}

// UpdateBookingStatus sets any of the four states from any state.
// Concurrent updates race and the last write wins.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, caller *models.Caller, id uint, status models.BookingStatus) (*models.Booking, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	parsed, err := models.ParseBookingStatus(string(status))
	if err != nil {
		return nil, newValidationError("status", "must be one of: pending, approved, rejected, archived")
	}

	res := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     parsed,
			"updated_at": s.now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrBookingNotFound
	}

	b, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Printf("booking %s set to %s by user %d", b.BookingReference, b.Status, caller.UserID)

	snapshot := *b
	s.Notifier.Dispatch(Notification{Type: NotifyBookingStatus, Booking: &snapshot})
	return b, nil
}

// DeletionRequest is the first step of the two-step delete.
type DeletionRequest struct {
	Booking           *models.Booking `json:"booking"`
	ConfirmationToken string          `json:"confirmation_token"`
	ExpiresAt         time.Time       `json:"expires_at"`
}

// RequestBookingDeletion issues a short-lived token that ConfirmBookingDeletion requires.
func (s *BookingService) RequestBookingDeletion(ctx context.Context, caller *models.Caller, id uint) (*DeletionRequest, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	b, err := s.findBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.Tokens.IssueConfirmation(utils.PurposeDeleteBooking, strconv.FormatUint(uint64(b.ID), 10), caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue confirmation token: %w", err)
	}
	return &DeletionRequest{Booking: b, ConfirmationToken: token, ExpiresAt: exp}, nil
}

// ConfirmBookingDeletion removes the row for good. The token must have been
// issued for this booking and this admin.
func (s *BookingService) ConfirmBookingDeletion(ctx context.Context, caller *models.Caller, id uint, token string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	claims, err := s.Tokens.Parse(token, utils.PurposeDeleteBooking)
	if err != nil {
		return ErrInvalidConfirmation
	}
	if claims.Subject != strconv.FormatUint(uint64(id), 10) || claims.UserID != caller.UserID {
		return ErrInvalidConfirmation
	}

	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Booking{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete booking: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	log.Printf("🗑️  booking %d deleted by user %d", id, caller.UserID)
	return nil
}

// CustomerEmail is an ad-hoc message from an admin to the booking's customer.
type CustomerEmail struct {
	Subject string `json:"subject" validate:"required,max=200"`
	HTML    string `json:"html" validate:"required,max=20000"`
}

// EmailCustomer sends synchronously so the admin sees the outcome. A failed
// send comes back as *NotificationError and leaves the booking untouched.
func (s *BookingService) EmailCustomer(ctx context.Context, caller *models.Caller, id uint, msg CustomerEmail) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	msg.Subject = strings.TrimSpace(msg.Subject)
	fields, err := utils.FieldErrors(msg)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	b, err := s.findBooking(ctx, id)
	if err != nil {
		return err
	}
	if s.Mailer == nil {
		return &NotificationError{Channel: "email", Type: "admin_email", Err: errors.New("mailer not configured")}
	}
	if err := s.Mailer.Send(ctx, utils.Email{To: b.Email, Subject: msg.Subject, HTML: msg.HTML}); err != nil {
		nerr := &NotificationError{Channel: "email", Type: "admin_email", Err: err}
		log.Printf("⚠️  %v", nerr)
		return nerr
	}
	return nil
}

// Stats counts bookings by status plus unread messages and active tours.
func (s *BookingService) Stats(ctx context.Context, caller *models.Caller) (*BookingStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	type row struct {
		Status models.BookingStatus
		Count  int64
	}
	var rows []row
	if err := s.DB.WithContext(ctx).Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	stats := &BookingStats{ByStatus: make(map[models.BookingStatus]int64, len(models.BookingStatuses))}
	for _, st := range models.BookingStatuses {
		stats.ByStatus[st] = 0
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
		stats.Total += r.Count
	}

	if err := s.DB.WithContext(ctx).Model(&models.Message{}).Where("is_read = ?", false).Count(&stats.UnreadMessages).Error; err != nil {
		return nil, fmt.Errorf("failed to count messages: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(&models.Tour{}).Where("is_active = ?", true).Count(&stats.ActiveTours).Error; err != nil {
		return nil, fmt.Errorf("failed to count tours: %w", err)
	}
	return stats, nil
}
