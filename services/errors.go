package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrBookingNotFound = errors.New("booking_not_found")
	ErrTourNotFound    = errors.New("tour_not_found")
	ErrImageNotFound   = errors.New("image_not_found")
	ErrMessageNotFound = errors.New("message_not_found")
	ErrUserNotFound    = errors.New("user_not_found")

	// ErrBookingCreation wraps any storage failure of the booking insert.
	ErrBookingCreation = errors.New("booking_creation_failed")
	// ErrReferenceGeneration means no unused reference was found within MaxReferenceAttempts.
	ErrReferenceGeneration = errors.New("reference_generation_failed")

	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidConfirmation = errors.New("invalid_confirmation")

	ErrSlugTaken        = errors.New("slug_taken")
	ErrEmailTaken       = errors.New("email_taken")
	ErrUnsupportedImage = errors.New("unsupported_image")
	ErrImageTooLarge    = errors.New("image_too_large")
)

// ValidationError carries one message per rejected input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation: " + strings.Join(parts, "; ")
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// NotificationError is a failed best-effort delivery on one channel.
type NotificationError struct {
	Channel string
	Type    string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %s via %s failed: %v", e.Type, e.Channel, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// isDuplicateKeyError covers gorm's translated error, raw MySQL 1062 and driver messages.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1062
	}
	lc := strings.ToLower(err.Error())
	return strings.Contains(lc, "duplicate") || strings.Contains(lc, "unique constraint")
}

// IsForeignKeyError reports a violated foreign key (MySQL 1452 or translated).
func IsForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		return merr.Number == 1452
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "foreign key")
}
