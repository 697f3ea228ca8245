package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tour-backend/models"
	"tour-backend/utils"
)

const callerKey = "caller"

// CallerResolver turns a bearer token into the caller behind it.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string) (*models.Caller, error)
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Auth requires a valid access token and stores the Caller on the context.
// Any failure is a 401.
func Auth(resolver CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.AbortError(c, http.StatusUnauthorized, "error.unauthenticated", "authentication required")
			return
		}
		caller, err := resolver.ResolveCaller(c.Request.Context(), token)
		if err != nil || caller == nil {
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("auth rejected rid=%s: %v", GetRequestID(c), err)
			}
			utils.AbortError(c, http.StatusUnauthorized, "error.unauthenticated", "invalid or expired session")
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// RequireRole rejects callers without role before the handler runs.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if caller == nil {
			utils.AbortError(c, http.StatusUnauthorized, "error.unauthenticated", "authentication required")
			return
		}
		if !caller.HasRole(role) {
			utils.AbortError(c, http.StatusForbidden, "error.forbidden", "you do not have access to this resource")
			return
		}
		c.Next()
	}
}

// CallerFrom returns the caller stored by Auth, or nil.
func CallerFrom(c *gin.Context) *models.Caller {
	v, ok := c.Get(callerKey)
	if !ok {
		return nil
	}
	caller, _ := v.(*models.Caller)
	return caller
}
