package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tour-backend/middleware"
	"tour-backend/models"
	"tour-backend/services"
	"tour-backend/utils"
)

type ReorderImagesPayload struct {
	ImageIDs []uint `json:"image_ids"`
}

// tourView is a tour with its main image picked out for listing cards.
type tourView struct {
	models.Tour
	MainImage *models.TourImage `json:"main_image"`
}

func viewOf(t models.Tour) tourView {
	if t.Images == nil {
		t.Images = []models.TourImage{}
	}
	return tourView{Tour: t, MainImage: t.MainImage()}
}

func viewsOf(list []models.Tour) []tourView {
	out := make([]tourView, 0, len(list))
	for _, t := range list {
		out = append(out, viewOf(t))
	}
	return out
}

type TourController struct {
	TourSvc *services.TourService
}

func NewTourController(svc *services.TourService) *TourController {
	return &TourController{TourSvc: svc}
}

// GetTours: GET /api/tours?category=&featured=
func (tc *TourController) GetTours(c *gin.Context) {
	f := services.TourFilter{Category: c.Query("category")}
	if raw := c.Query("featured"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "error.invalid_filter", "featured must be true or false")
			return
		}
		f.Featured = &v
	}
	list, err := tc.TourSvc.ListTours(c.Request.Context(), f)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, viewsOf(list))
}

// GetTourBySlug: GET /api/tours/:slug
func (tc *TourController) GetTourBySlug(c *gin.Context) {
	t, err := tc.TourSvc.GetTourBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, viewOf(*t))
}

// ---------------------------
// Admin
// ---------------------------

func (tc *TourController) AdminGetTours(c *gin.Context) {
	list, err := tc.TourSvc.ListAllTours(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, viewsOf(list))
}

func (tc *TourController) AdminGetTour(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	t, err := tc.TourSvc.GetTour(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, viewOf(*t))
}

func (tc *TourController) CreateTour(c *gin.Context) {
	var in services.TourInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	t, err := tc.TourSvc.CreateTour(c.Request.Context(), middleware.CallerFrom(c), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, viewOf(*t))
}

func (tc *TourController) UpdateTour(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in services.TourInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	t, err := tc.TourSvc.UpdateTour(c.Request.Context(), middleware.CallerFrom(c), id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, viewOf(*t))
}

func (tc *TourController) DeleteTour(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := tc.TourSvc.DeleteTour(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

// UploadImage: POST /api/admin/tours/:id/images (multipart "file", optional "alt_text")
func (tc *TourController) UploadImage(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.file_required", "multipart field \"file\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer f.Close()

	img, err := tc.TourSvc.AddImage(c.Request.Context(), middleware.CallerFrom(c), id, f, c.PostForm("alt_text"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, img)
}

// ReorderImages: PUT /api/admin/tours/:id/images/order
func (tc *TourController) ReorderImages(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var p ReorderImagesPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	images, err := tc.TourSvc.ReorderImages(c.Request.Context(), middleware.CallerFrom(c), id, p.ImageIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, images)
}

func (tc *TourController) DeleteImage(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := uintParam(c, "imageId")
	if !ok {
		return
	}
	if err := tc.TourSvc.DeleteImage(c.Request.Context(), middleware.CallerFrom(c), id, imageID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": imageID})
}
