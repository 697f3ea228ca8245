package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tour-backend/controllers"
	"tour-backend/middleware"
	"tour-backend/models"
)

// Handlers groups the controller instances the router wires.
type Handlers struct {
	Bookings *controllers.BookingController
	Tours    *controllers.TourController
	Messages *controllers.MessageController
	Settings *controllers.SettingsController
	Auth     *controllers.AuthController
}

type Options struct {
	CORSOrigins []string
	// UploadsDir is served at UploadsPath when both are set (local image storage).
	UploadsDir  string
	UploadsPath string
}

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader, "X-Confirmation-Token"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

// SetupRouter wires every public and admin route.
func SetupRouter(h Handlers, resolver middleware.CallerResolver, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	if opts.UploadsDir != "" && strings.HasPrefix(opts.UploadsPath, "/") {
		r.Static(opts.UploadsPath, opts.UploadsDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		bookings := api.Group("/bookings")
		{
			bookings.POST("", h.Bookings.CreateBooking)
			bookings.POST("/track", h.Bookings.TrackBooking)
		}

		tours := api.Group("/tours")
		{
			tours.GET("", h.Tours.GetTours)
			tours.GET("/:slug", h.Tours.GetTourBySlug)
		}

		api.POST("/messages", h.Messages.CreateMessage)
		api.GET("/settings", h.Settings.GetSettings)

		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.GET("/me", middleware.Auth(resolver), h.Auth.Me)
		}

		admin := api.Group("/admin", middleware.Auth(resolver), middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/stats", h.Bookings.GetStats)

			ab := admin.Group("/bookings")
			{
				ab.GET("", h.Bookings.GetBookings)
				ab.GET("/:id", h.Bookings.GetBookingDetails)
				ab.PATCH("/:id/status", h.Bookings.UpdateBookingStatus)
				ab.POST("/:id/delete-request", h.Bookings.RequestDeletion)
				ab.DELETE("/:id", h.Bookings.DeleteBooking)
				ab.POST("/:id/email", h.Bookings.EmailCustomer)
			}

			at := admin.Group("/tours")
			{
				at.GET("", h.Tours.AdminGetTours)
				at.POST("", h.Tours.CreateTour)
				at.GET("/:id", h.Tours.AdminGetTour)
				at.PUT("/:id", h.Tours.UpdateTour)
				at.DELETE("/:id", h.Tours.DeleteTour)
				at.POST("/:id/images", h.Tours.UploadImage)
				at.PUT("/:id/images/order", h.Tours.ReorderImages)
				at.DELETE("/:id/images/:imageId", h.Tours.DeleteImage)
			}

			am := admin.Group("/messages")
			{
				am.GET("", h.Messages.GetMessages)
				am.PATCH("/:id/read", h.Messages.MarkRead)
				am.DELETE("/:id", h.Messages.DeleteMessage)
			}

			admin.PUT("/settings/:key", h.Settings.UpsertSetting)

			au := admin.Group("/users")
			{
				au.GET("", h.Auth.GetUsers)
				au.PUT("/:id/roles", h.Auth.SetRoles)
			}
		}
	}

	return r
}
