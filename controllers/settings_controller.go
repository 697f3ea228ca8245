package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-backend/middleware"
	"tour-backend/services"
	"tour-backend/utils"
)

type SettingsController struct {
	SettingSvc *services.SettingService
}

func NewSettingsController(svc *services.SettingService) *SettingsController {
	return &SettingsController{SettingSvc: svc}
}

// GetSettings: GET /api/settings
func (sc *SettingsController) GetSettings(c *gin.Context) {
	list, values, err := sc.SettingSvc.ListSettings(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"settings": list, "values": values})
}

// UpsertSetting: PUT /api/admin/settings/:key
func (sc *SettingsController) UpsertSetting(c *gin.Context) {
	var in services.SettingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	st, err := sc.SettingSvc.UpsertSetting(c.Request.Context(), middleware.CallerFrom(c), c.Param("key"), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, st)
}
