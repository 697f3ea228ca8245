package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tour-backend/config"
	"tour-backend/controllers"
	"tour-backend/middleware"
	"tour-backend/models"
	"tour-backend/services"
	"tour-backend/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	router *gin.Engine
	tours  *services.TourService
	auth   *services.AuthService
}

func setupTestApp(t *testing.T) *testApp {
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

	tokens := utils.NewTokenIssuer("routes-test-secret", time.Hour, 5*time.Minute)
	mailer := utils.NewMailer(config.EmailConfig{})

	bookingSvc := services.NewBookingService(db, services.NopNotifier{}, mailer, tokens, time.UTC)
	tourSvc := services.NewTourService(db, services.NewLocalImageStore(t.TempDir(), "/uploads"), 1<<20)
	settingSvc := services.NewSettingService(db)
	authSvc := services.NewAuthService(db, tokens)

	h := Handlers{
		Bookings: controllers.NewBookingController(bookingSvc, settingSvc, "+10000000000"),
		Tours:    controllers.NewTourController(tourSvc),
		Messages: controllers.NewMessageController(services.NewMessageService(db, services.NopNotifier{})),
		Settings: controllers.NewSettingsController(settingSvc),
		Auth:     controllers.NewAuthController(authSvc),
	}
	return &testApp{
		router: SetupRouter(h, authSvc, Options{CORSOrigins: []string{"http://localhost:3000"}}),
		tours:  tourSvc,
		auth:   authSvc,
	}
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// login creates a user with roles and returns a session token for them.
func (a *testApp) login(t *testing.T, email string, roles ...string) string {
	t.Helper()
	_, err := a.auth.CreateUser(context.Background(), services.UserInput{
		FullName: "Test User",
		Email:    email,
		Password: "correct-horse",
		Roles:    roles,
	})
	require.NoError(t, err)

	w := a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decodeData(t, w, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (a *testApp) createTour(t *testing.T) *models.Tour {
	t.Helper()
	tour, err := a.tours.CreateTour(context.Background(), &models.Caller{UserID: 1, Roles: []string{models.RoleAdmin}}, services.TourInput{
		Title:    "Desert Safari",
		Category: "desert",
		Price:    45,
		Currency: "USD",
	})
	require.NoError(t, err)
	return tour
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "success", env.Status, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

func bookingPayload(tourID uint) gin.H {
	return gin.H{
		"tour_id":   tourID,
		"full_name": "Jane Traveller",
		"email":     "Jane@Example.com",
		"phone":     "+971500000000",
		"country":   "Germany",
		"tour_date": time.Now().UTC().AddDate(0, 0, 10).Format("2006-01-02"),
		"adults":    2,
		"children":  0,
	}
}

type createdBooking struct {
	Reference string         `json:"booking_reference"`
	Booking   models.Booking `json:"booking"`
}

func TestHealthAndRequestID(t *testing.T) {
	app := setupTestApp(t)

	w := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestPublicBookingCreateAndTrack(t *testing.T) {
	app := setupTestApp(t)
	tour := app.createTour(t)

	w := app.do(t, http.MethodPost, "/api/bookings", "", bookingPayload(tour.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created createdBooking
	decodeData(t, w, &created)
	assert.True(t, utils.IsValidReferenceFormat(created.Reference), created.Reference)
	assert.Equal(t, models.BookingPending, created.Booking.Status)
	assert.Equal(t, "Desert Safari", created.Booking.TourTitle)

	t.Run("email is case-insensitive", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/bookings/track", "", gin.H{
			"reference": created.Reference,
			"email":     "  jane@EXAMPLE.com ",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out struct {
			Booking    models.Booking    `json:"booking"`
			StatusInfo models.StatusInfo `json:"status_info"`
		}
		decodeData(t, w, &out)
		assert.Equal(t, created.Reference, out.Booking.BookingReference)
		assert.Equal(t, models.StatusPresentation(models.BookingPending).Label, out.StatusInfo.Label)
	})

	t.Run("wrong email looks like unknown reference", func(t *testing.T) {
		wrongEmail := app.do(t, http.MethodPost, "/api/bookings/track", "", gin.H{"reference": created.Reference, "email": "other@example.com"})
		unknownRef := app.do(t, http.MethodPost, "/api/bookings/track", "", gin.H{"reference": "ZZ-999999", "email": "jane@example.com"})
		assert.Equal(t, http.StatusNotFound, wrongEmail.Code)
		assert.Equal(t, http.StatusNotFound, unknownRef.Code)
		assert.Equal(t, wrongEmail.Body.String(), unknownRef.Body.String())
	})
}

func TestCreateBookingRejectsInvalidInput(t *testing.T) {
	app := setupTestApp(t)
	tour := app.createTour(t)

	payload := bookingPayload(tour.ID)
	payload["email"] = "not-an-email"
	payload["adults"] = 0

	w := app.do(t, http.MethodPost, "/api/bookings", "", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.validation", errorCode(t, w))
	assert.Contains(t, w.Body.String(), `"email"`)
	assert.Contains(t, w.Body.String(), `"adults"`)

	w = app.do(t, http.MethodPost, "/api/bookings", "", bookingPayload(tour.ID+100))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error.tour_not_found", errorCode(t, w))
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	app := setupTestApp(t)
	staff := app.login(t, "staff@example.com", models.RoleStaff)
	admin := app.login(t, "admin@example.com", models.RoleAdmin)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"staff", staff, http.StatusForbidden},
		{"admin", admin, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := app.do(t, http.MethodGet, "/api/admin/bookings", tc.token, nil)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestAdminStatusChangeAndTwoStepDelete(t *testing.T) {
	app := setupTestApp(t)
	admin := app.login(t, "admin@example.com", models.RoleAdmin)
	tour := app.createTour(t)

	w := app.do(t, http.MethodPost, "/api/bookings", "", bookingPayload(tour.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	var created createdBooking
	decodeData(t, w, &created)
	path := fmt.Sprintf("/api/admin/bookings/%d", created.Booking.ID)

	w = app.do(t, http.MethodPatch, path+"/status", admin, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodPatch, path+"/status", admin, gin.H{"status": "cancelled"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/bookings/track", "", gin.H{"reference": created.Reference, "email": "jane@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)

	w = app.do(t, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.confirmation_required", errorCode(t, w))

	w = app.do(t, http.MethodDelete, path+"?confirmation_token=forged", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.invalid_confirmation", errorCode(t, w))

	w = app.do(t, http.MethodPost, path+"/delete-request", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var req struct {
		ConfirmationToken string `json:"confirmation_token"`
	}
	decodeData(t, w, &req)
	require.NotEmpty(t, req.ConfirmationToken)

	w = app.do(t, http.MethodDelete, path+"?confirmation_token="+req.ConfirmationToken, admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = app.do(t, http.MethodPost, "/api/bookings/track", "", gin.H{"reference": created.Reference, "email": "jane@example.com"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminInvalidIDAndFilters(t *testing.T) {
	app := setupTestApp(t)
	admin := app.login(t, "admin@example.com", models.RoleAdmin)

	w := app.do(t, http.MethodGet, "/api/admin/bookings/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.invalid_id", errorCode(t, w))

	w = app.do(t, http.MethodGet, "/api/admin/bookings?status=nope", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/api/admin/bookings?status=all", admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublicTourCatalog(t *testing.T) {
	app := setupTestApp(t)
	tour := app.createTour(t)

	w := app.do(t, http.MethodGet, "/api/tours?category=desert", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Tour
	decodeData(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, tour.Slug, list[0].Slug)

	w = app.do(t, http.MethodGet, "/api/tours/"+tour.Slug, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/tours?featured=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/api/tours/no-such-tour", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContactMessageRoundTrip(t *testing.T) {
	app := setupTestApp(t)
	admin := app.login(t, "admin@example.com", models.RoleAdmin)

	w := app.do(t, http.MethodPost, "/api/messages", "", gin.H{
		"full_name": "Sam Visitor",
		"email":     "sam@example.com",
		"subject":   "Private tour",
		"message":   "Do you run private tours on Fridays?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/admin/messages?unread=true", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []models.Message
	decodeData(t, w, &msgs)
	require.Len(t, msgs, 1)

	w = app.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/messages/%d/read", msgs[0].ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodGet, "/api/admin/messages?unread=true", admin, nil)
	decodeData(t, w, &msgs)
	assert.Empty(t, msgs)
}

func TestCORSPreflight(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/bookings", strings.NewReader(""))
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
