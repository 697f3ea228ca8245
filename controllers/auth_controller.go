package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-backend/middleware"
	"tour-backend/services"
	"tour-backend/utils"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type rolesPayload struct {
	Roles []string `json:"roles"`
}

type AuthController struct {
	AuthSvc *services.AuthService
}

func NewAuthController(svc *services.AuthService) *AuthController {
	return &AuthController{AuthSvc: svc}
}

// Login: POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	res, err := ac.AuthSvc.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"token":      res.Token,
		"expires_at": res.ExpiresAt,
		"user": gin.H{
			"id":        res.User.ID,
			"full_name": res.User.FullName,
			"email":     res.User.Email,
			"roles":     res.Caller.Roles,
		},
	})
}

// Me: GET /api/auth/me
func (ac *AuthController) Me(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	user, err := ac.AuthSvc.GetUser(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"id":        user.ID,
		"full_name": user.FullName,
		"email":     user.Email,
		"roles":     caller.Roles,
		"is_admin":  caller.IsAdmin(),
	})
}

// GetUsers: GET /api/admin/users
func (ac *AuthController) GetUsers(c *gin.Context) {
	users, err := ac.AuthSvc.ListUsers(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, users)
}

// SetRoles: PUT /api/admin/users/:id/roles
func (ac *AuthController) SetRoles(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var p rolesPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	user, err := ac.AuthSvc.SetRoles(c.Request.Context(), middleware.CallerFrom(c), id, p.Roles)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, user)
}
