// controllers/booking_controller.go
package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tour-backend/middleware"
	"tour-backend/models"
	"tour-backend/services"
	"tour-backend/utils"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type TrackBookingPayload struct {
	Reference string `json:"reference"`
	Email     string `json:"email"`
}

type UpdateStatusPayload struct {
	Status string `json:"status"`
}

type trackedBooking struct {
	Booking    *models.Booking   `json:"booking"`
	StatusInfo models.StatusInfo `json:"status_info"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc *services.BookingService
	SettingSvc *services.SettingService

	// WhatsAppNumber is used in the failure hint when no whatsapp_number setting is stored.
	WhatsAppNumber string
}

func NewBookingController(svc *services.BookingService, settings *services.SettingService, whatsApp string) *BookingController {
	return &BookingController{BookingSvc: svc, SettingSvc: settings, WhatsAppNumber: whatsApp}
}

// fallbackHint tells the customer what to do when a submission fails.
func (bc *BookingController) fallbackHint(c *gin.Context) string {
	number := ""
	if bc.SettingSvc != nil {
		number = bc.SettingSvc.Value(c.Request.Context(), "whatsapp_number")
	}
	if number == "" {
		number = bc.WhatsAppNumber
	}
	if number == "" {
		return "Please try again in a few minutes or contact us directly."
	}
	return "Please try again in a few minutes or contact us on WhatsApp at " + number + "."
}

// CreateBooking: POST /api/bookings
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var in services.BookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	b, err := bc.BookingSvc.CreateBooking(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, services.ErrBookingCreation) || errors.Is(err, services.ErrReferenceGeneration) {
			log.Printf("❌ booking creation failed rid=%s: %v", middleware.GetRequestID(c), err)
			utils.JSONErrorDetails(c, http.StatusInternalServerError, "error.booking_creation_failed",
				"we could not submit your booking", gin.H{"hint": bc.fallbackHint(c)})
			return
		}
		respondServiceError(c, err)
		return
	}

	utils.JSONSuccess(c, http.StatusCreated, gin.H{
		"booking_reference": b.BookingReference,
		"booking":           b,
	})
}

// TrackBooking: POST /api/bookings/track
// The same 404 is returned for an unknown reference and for a wrong email.
func (bc *BookingController) TrackBooking(c *gin.Context) {
	var p TrackBookingPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}

	b, err := bc.BookingSvc.TrackBooking(c.Request.Context(), p.Reference, p.Email)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, trackedBooking{Booking: b, StatusInfo: models.StatusPresentation(b.Status)})
}

// ---------------------------
// Admin
// ---------------------------

// GetBookings: GET /api/admin/bookings?status=&q=
func (bc *BookingController) GetBookings(c *gin.Context) {
	var f services.BookingFilter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" && raw != "all" {
		st, err := models.ParseBookingStatus(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalid_status", err.Error())
			return
		}
		f.Status = st
	}
	f.Query = c.Query("q")

	list, err := bc.BookingSvc.ListBookings(c.Request.Context(), middleware.CallerFrom(c), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// GetBookingDetails: GET /api/admin/bookings/:id
func (bc *BookingController) GetBookingDetails(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	b, err := bc.BookingSvc.GetBooking(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, trackedBooking{Booking: b, StatusInfo: models.StatusPresentation(b.Status)})
}

// UpdateBookingStatus: PATCH /api/admin/bookings/:id/status
func (bc *BookingController) UpdateBookingStatus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var p UpdateStatusPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	b, err := bc.BookingSvc.UpdateBookingStatus(c.Request.Context(), middleware.CallerFrom(c), id, models.BookingStatus(p.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, b)
}

// RequestDeletion: POST /api/admin/bookings/:id/delete-request
func (bc *BookingController) RequestDeletion(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	req, err := bc.BookingSvc.RequestBookingDeletion(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, req)
}

// DeleteBooking: DELETE /api/admin/bookings/:id?confirmation_token=
func (bc *BookingController) DeleteBooking(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	token := c.Query("confirmation_token")
	if token == "" {
		token = c.GetHeader("X-Confirmation-Token")
	}
	if token == "" {
		utils.JSONError(c, http.StatusBadRequest, "error.confirmation_required", "request a deletion first and pass its confirmation_token")
		return
	}
	if err := bc.BookingSvc.ConfirmBookingDeletion(c.Request.Context(), middleware.CallerFrom(c), id, token); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

// EmailCustomer: POST /api/admin/bookings/:id/email
func (bc *BookingController) EmailCustomer(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var msg services.CustomerEmail
	if err := c.ShouldBindJSON(&msg); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	if err := bc.BookingSvc.EmailCustomer(c.Request.Context(), middleware.CallerFrom(c), id, msg); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"sent": true})
}

// GetStats: GET /api/admin/stats
func (bc *BookingController) GetStats(c *gin.Context) {
	stats, err := bc.BookingSvc.Stats(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, stats)
}
