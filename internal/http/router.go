// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldops/internal/geocode"
	"fieldops/internal/http/handlers"
	"fieldops/internal/http/middleware"
	"fieldops/internal/metrics"
	"fieldops/internal/modules/appointment"
	"fieldops/internal/modules/dispatch"
)

func NewRouter(
	dispatchService *dispatch.Service,
	bookingService *appointment.Service,
	geocoder *geocode.Service,
) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	dispatchHandler := handlers.NewDispatchHandler(dispatchService, bookingService, geocoder)
	r.POST("/api/dispatch/verify-address", dispatchHandler.VerifyAddress)
	r.POST("/api/dispatch/find-technician", dispatchHandler.FindTechnician)
	r.POST("/api/dispatch/book", dispatchHandler.BookAppointment)

	appointmentHandler := handlers.NewAppointmentHandler(bookingService)
	r.GET("/api/appointments/:id", appointmentHandler.Get)
	r.POST("/api/appointments/:id/cancel", appointmentHandler.Cancel)
	r.POST("/api/appointments/:id/complete", appointmentHandler.Complete)
	r.PUT("/api/appointments/:id/status", appointmentHandler.UpdateStatus)

	webhookHandler := handlers.NewWebhookHandler(bookingService)
	r.POST("/api/webhooks/appointment-created", webhookHandler.AppointmentCreated)
	r.POST("/api/webhooks/appointment-deleted", webhookHandler.AppointmentDeleted)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return r
}
