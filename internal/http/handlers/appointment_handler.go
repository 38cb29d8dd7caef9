// README: Appointment lifecycle handlers (cancel, complete, status, notes).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fieldops/internal/modules/appointment"
)

type AppointmentHandler struct {
	booking *appointment.Service
}

func NewAppointmentHandler(svc *appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{booking: svc}
}

type appointmentResp struct {
	ID           string `json:"id"`
	TechnicianID *int64 `json:"technician_id,omitempty"`
	ServiceType  string `json:"service_type"`
	CustomerName string `json:"customer_name"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
}

func toAppointmentResp(a *appointment.Appointment) appointmentResp {
	return appointmentResp{
		ID:           a.ID,
		TechnicianID: a.TechnicianID,
		ServiceType:  a.ServiceType,
		CustomerName: a.CustomerName,
		StartTime:    a.StartTime.Format(time.RFC3339),
		EndTime:      a.EndTime.Format(time.RFC3339),
		Status:       string(a.Status),
		Notes:        a.Notes,
	}
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	a, err := h.booking.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppointmentError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toAppointmentResp(a))
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	a, err := h.booking.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppointmentError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toAppointmentResp(a))
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	a, err := h.booking.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppointmentError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, toAppointmentResp(a))
}

type updateStatusReq struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		writeError(c, http.StatusBadRequest, "missing status")
		return
	}

	a, err := h.booking.SetStatus(c.Request.Context(), c.Param("id"), appointment.Status(req.Status))
	if err != nil {
		writeAppointmentError(c, err)
		return
	}
	if req.Notes != "" {
		if err := h.booking.SetNotes(c.Request.Context(), a.ID, req.Notes); err != nil {
			writeAppointmentError(c, err)
			return
		}
		a.Notes = req.Notes
	}
	writeJSON(c, http.StatusOK, toAppointmentResp(a))
}
