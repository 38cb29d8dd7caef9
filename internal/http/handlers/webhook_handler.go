// README: Webhook handlers syncing external calendar events into the
// appointment store.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops/internal/modules/appointment"
	"fieldops/internal/modules/dispatch"
	"fieldops/internal/types"
)

type WebhookHandler struct {
	booking *appointment.Service
}

func NewWebhookHandler(svc *appointment.Service) *WebhookHandler {
	return &WebhookHandler{booking: svc}
}

type appointmentWebhook struct {
	ID           string   `json:"id"`
	TechnicianID *int64   `json:"technician_id"`
	Title        string   `json:"title"`
	StartTime    string   `json:"start_time"`
	EndTime      string   `json:"end_time"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Status       string   `json:"status"`
}

// AppointmentCreated mirrors an event created in the external calendar and
// invalidates any memoized routes for the affected technician and day.
func (h *WebhookHandler) AppointmentCreated(c *gin.Context) {
	var req appointmentWebhook
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		writeError(c, http.StatusBadRequest, "invalid webhook payload")
		return
	}
	start, err := dispatch.ParseInstant(req.StartTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid start_time")
		return
	}
	end, err := dispatch.ParseInstant(req.EndTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid end_time")
		return
	}

	status := appointment.Status(req.Status)
	if req.Status == "" {
		status = appointment.StatusConfirmed
	}

	a := &appointment.Appointment{
		CalendarEventID: req.ID,
		TechnicianID:    req.TechnicianID,
		ServiceType:     req.Title,
		Address:         req.Address,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: int(end.Sub(start).Minutes()),
		Status:          status,
	}
	if req.Latitude != nil && req.Longitude != nil {
		a.Location = &types.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	}

	if err := h.booking.SyncExternalEvent(c.Request.Context(), a); err != nil {
		writeAppointmentError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "success", "message": "Appointment synced"})
}

// AppointmentDeleted drops a mirrored event. The payload does not identify the
// technician, so the whole day's route cache is invalidated.
func (h *WebhookHandler) AppointmentDeleted(c *gin.Context) {
	var req appointmentWebhook
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		writeError(c, http.StatusBadRequest, "invalid webhook payload")
		return
	}
	start, err := dispatch.ParseInstant(req.StartTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid start_time")
		return
	}

	if err := h.booking.DropExternalEvent(c.Request.Context(), req.ID, start); err != nil {
		writeAppointmentError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "success", "message": "Appointment removed"})
}
