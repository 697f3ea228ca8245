package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tour-backend/config"
	"tour-backend/models"
	"tour-backend/utils"
)

var (
	adminCaller = &models.Caller{UserID: 1, Email: "admin@example.com", Roles: []string{models.RoleAdmin}}
	staffCaller = &models.Caller{UserID: 2, Email: "staff@example.com", Roles: []string{models.RoleStaff}}
)

// fixedNow is a Monday morning; "tomorrow" is 2026-06-16.
var fixedNow = time.Date(2026, time.June, 15, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func testTokens() *utils.TokenIssuer {
	return utils.NewTokenIssuer("test-secret", time.Hour, 5*time.Minute)
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []Notification
}

func (r *recordingNotifier) Dispatch(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.got))
	copy(out, r.got)
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []utils.Email
	err  error
}

func (m *fakeMailer) Send(_ context.Context, e utils.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

func (m *fakeMailer) AdminInbox() string { return "ops@example.com" }

func (m *fakeMailer) emails() []utils.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]utils.Email, len(m.sent))
	copy(out, m.sent)
	return out
}

func newTestBookingService(db *gorm.DB, notifier Notifier, mailer EmailSender) *BookingService {
	svc := NewBookingService(db, notifier, mailer, testTokens(), time.UTC)
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

func createTestTour(t *testing.T, db *gorm.DB, title string) *models.Tour {
	t.Helper()
	tour := &models.Tour{
		Title:    title,
		Slug:     uuid.NewString(),
		Category: "safari",
		Price:    120,
		IsActive: true,
	}
	require.NoError(t, db.Create(tour).Error)
	return tour
}

func validBookingInput(tourID uint) BookingInput {
	return BookingInput{
		TourID:   tourID,
		FullName: "Amina Juma",
		Email:    "a@example.com",
		Phone:    "+255712345678",
		Country:  "Tanzania",
		TourDate: "2026-06-16",
		Adults:   2,
		Children: 1,
		Message:  "Vegetarian lunch please",
	}
}
