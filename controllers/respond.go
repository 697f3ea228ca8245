package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tour-backend/middleware"
	"tour-backend/services"
	"tour-backend/utils"
)

// respondServiceError maps a service error onto the JSON error envelope.
func respondServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var nerr *services.NotificationError

	switch {
	case errors.As(err, &verr):
		utils.JSONErrorDetails(c, http.StatusBadRequest, "error.validation", "some fields are invalid", gin.H{"fields": verr.Fields})
	case errors.Is(err, services.ErrUnauthenticated):
		utils.JSONError(c, http.StatusUnauthorized, "error.unauthenticated", "authentication required")
	case errors.Is(err, services.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, "error.forbidden", "you do not have access to this resource")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.JSONError(c, http.StatusUnauthorized, "error.invalid_credentials", "invalid email or password")
	case errors.Is(err, services.ErrBookingNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.booking_not_found", "booking not found")
	case errors.Is(err, services.ErrTourNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.tour_not_found", "tour not found")
	case errors.Is(err, services.ErrImageNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.image_not_found", "image not found")
	case errors.Is(err, services.ErrMessageNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.message_not_found", "message not found")
	case errors.Is(err, services.ErrUserNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.user_not_found", "user not found")
	case errors.Is(err, services.ErrInvalidConfirmation):
		utils.JSONError(c, http.StatusBadRequest, "error.invalid_confirmation", "confirmation token is invalid or expired")
	case errors.Is(err, services.ErrSlugTaken):
		utils.JSONError(c, http.StatusConflict, "error.slug_taken", "another tour already uses this slug")
	case errors.Is(err, services.ErrEmailTaken):
		utils.JSONError(c, http.StatusConflict, "error.email_taken", "a user with this email already exists")
	case errors.Is(err, services.ErrUnsupportedImage):
		utils.JSONError(c, http.StatusUnsupportedMediaType, "error.unsupported_image", "only JPEG, PNG, WebP and GIF images are accepted")
	case errors.Is(err, services.ErrImageTooLarge):
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "error.image_too_large", "image is too large")
	case errors.As(err, &nerr):
		utils.JSONError(c, http.StatusBadGateway, "error.notification_failed", "the message could not be sent: "+nerr.Err.Error())
	default:
		log.Printf("❌ %s %s rid=%s: %v", c.Request.Method, c.Request.URL.Path, middleware.GetRequestID(c), err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "something went wrong, please try again")
	}
}

func respondInvalidPayload(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "error.invalid_payload", "request body is not valid JSON: "+err.Error())
}

// uintParam parses a positive integer path parameter, answering 400 when it is not one.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalid_id", "invalid "+name)
		return 0, false
	}
	return uint(v), true
}
