package routes

import (
	"net/http"
	"time"

	"mindhaven/handlers"
	"mindhaven/middleware"
	"mindhaven/models"
	"mindhaven/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterAvailabilityRoutes registers weekly availability endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/availability")
	api.Use(middleware.JWTAuthMiddleware(hb.Principals))
	{
		api.PUT("/:weekday", middleware.RequireRole(models.RoleProfessional), hb.Availability.SetDay)
		api.GET("/:professionalId", hb.Availability.GetWeek)
		api.GET("/:professionalId/days/:weekday", hb.Availability.GetDay)
		api.GET("/:professionalId/sessions", hb.Availability.GetSessions)
	}
}

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	bookingGroup.Use(middleware.JWTAuthMiddleware(hb.Principals))
	{
		bookingGroup.POST("", middleware.RequireRole(models.RoleClient), hb.Booking.CreateBooking)
		bookingGroup.GET("", hb.Booking.ListBookings)
		bookingGroup.GET("/:id", hb.Booking.GetBooking)

		professional := bookingGroup.Group("")
		professional.Use(middleware.RequireRole(models.RoleProfessional))
		professional.POST("/:id/confirm", hb.Booking.ConfirmBooking)
		professional.POST("/:id/confirm-reschedule", hb.Booking.ConfirmReschedule)
		professional.POST("/:id/complete", hb.Booking.CompleteBooking)
		professional.POST("/:id/reschedule", hb.Booking.RescheduleBooking)

		bookingGroup.POST("/:id/cancel", hb.Booking.CancelBooking)
	}
}

// RegisterPrincipalRoutes registers the caller's own account endpoints.
func RegisterPrincipalRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/principals/me")
	api.Use(middleware.JWTAuthMiddleware(hb.Principals))
	{
		api.GET("", hb.Device.MeHandler)
		api.PUT("/fcm-token", hb.Device.UpdateFCMTokenHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.JWTAuthAdminMiddleware(hb.Principals, hb.AdminToken))
		adminGroup.POST("/principals", hb.Admin.RegisterPrincipalHandler)
		adminGroup.GET("/principals/:id", hb.Admin.GetPrincipalHandler)
		adminGroup.POST("/principals/:id/peer-counselor", hb.Admin.PromotePeerCounselorHandler)
	}
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "Hi, I'm MindHaven"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterAvailabilityRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterPrincipalRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
