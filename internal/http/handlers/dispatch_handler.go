// README: Dispatch handlers for address verification, technician matching, and booking.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fieldops/internal/geocode"
	"fieldops/internal/modules/appointment"
	"fieldops/internal/modules/dispatch"
	"fieldops/internal/types"
)

type DispatchHandler struct {
	dispatch *dispatch.Service
	booking  *appointment.Service
	geocoder *geocode.Service
}

// NewDispatchHandler wires the dispatch endpoints. geocoder may be nil when no
// maps API key is configured; verify-address then answers 503.
func NewDispatchHandler(d *dispatch.Service, b *appointment.Service, g *geocode.Service) *DispatchHandler {
	return &DispatchHandler{dispatch: d, booking: b, geocoder: g}
}

type verifyAddressReq struct {
	MessyInput string `json:"messy_input"`
}

type verifyAddressResp struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Confidence       string  `json:"confidence"`
}

func (h *DispatchHandler) VerifyAddress(c *gin.Context) {
	if h.geocoder == nil {
		writeError(c, http.StatusServiceUnavailable, "address verification not configured")
		return
	}
	var req verifyAddressReq
	if err := c.ShouldBindJSON(&req); err != nil || req.MessyInput == "" {
		writeError(c, http.StatusBadRequest, "missing address input")
		return
	}
	result, err := h.geocoder.Geocode(c.Request.Context(), req.MessyInput)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			writeError(c, http.StatusBadRequest, "address not found")
			return
		}
		writeError(c, http.StatusServiceUnavailable, "address lookup failed")
		return
	}
	writeJSON(c, http.StatusOK, verifyAddressResp{
		FormattedAddress: result.FormattedAddress,
		Latitude:         result.Latitude,
		Longitude:        result.Longitude,
		Confidence:       result.Confidence,
	})
}

type findTechnicianReq struct {
	ServiceType        string  `json:"service_type"`
	ConfirmedLatitude  float64 `json:"confirmed_latitude"`
	ConfirmedLongitude float64 `json:"confirmed_longitude"`
	RequestedDatetime  string  `json:"requested_datetime"`
}

type technicianInfo struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	DistanceMiles float64 `json:"distance_miles"`
}

type findTechnicianResp struct {
	Success          bool            `json:"success"`
	Technician       *technicianInfo `json:"technician,omitempty"`
	Available        bool            `json:"available"`
	TimeSlot         string          `json:"time_slot,omitempty"`
	AlternativeSlots []string        `json:"alternative_slots,omitempty"`
	Message          string          `json:"message,omitempty"`
}

func (h *DispatchHandler) FindTechnician(c *gin.Context) {
	var req findTechnicianReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ServiceType == "" || req.RequestedDatetime == "" {
		writeError(c, http.StatusBadRequest, "missing fields")
		return
	}
	at, err := dispatch.ParseInstant(req.RequestedDatetime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid requested_datetime")
		return
	}

	decision, err := h.dispatch.Match(c.Request.Context(), dispatch.Request{
		ServiceType: req.ServiceType,
		Job:         types.Point{Lat: req.ConfirmedLatitude, Lng: req.ConfirmedLongitude},
		RequestedAt: at,
	})
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "dispatch temporarily unavailable")
		return
	}

	switch decision.Reason {
	case dispatch.ReasonNoTechnicians:
		writeJSON(c, http.StatusOK, findTechnicianResp{
			Success:   false,
			Available: false,
			Message:   "No technicians available for this service type",
		})
		return
	case dispatch.ReasonOutOfRange:
		writeJSON(c, http.StatusOK, findTechnicianResp{
			Success:   false,
			Available: false,
			Message:   "No technicians within service radius",
		})
		return
	}

	resp := findTechnicianResp{
		Success:   true,
		Available: decision.Available,
		Technician: &technicianInfo{
			ID:            decision.Technician.ID,
			Name:          decision.Technician.Name,
			DistanceMiles: round2(decision.Technician.DistanceMiles),
		},
	}
	if decision.Available {
		resp.TimeSlot = decision.TimeSlot.Format(time.RFC3339)
	} else {
		for _, alt := range decision.Alternatives {
			resp.AlternativeSlots = append(resp.AlternativeSlots, alt.Format(time.RFC3339))
		}
	}
	writeJSON(c, http.StatusOK, resp)
}

type bookAppointmentReq struct {
	CustomerName    string  `json:"customer_name"`
	CustomerPhone   string  `json:"customer_phone"`
	CustomerEmail   string  `json:"customer_email"`
	TechnicianID    int64   `json:"technician_id"`
	ServiceType     string  `json:"service_type"`
	Address         string  `json:"address"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
}

type bookAppointmentResp struct {
	Success       bool   `json:"success"`
	AppointmentID string `json:"appointment_id,omitempty"`
	Technician    string `json:"technician,omitempty"`
	Time          string `json:"time,omitempty"`
	Message       string `json:"message"`
}

func (h *DispatchHandler) BookAppointment(c *gin.Context) {
	var req bookAppointmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	start, err := dispatch.ParseInstant(req.StartTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid start_time")
		return
	}

	result, err := h.booking.Book(c.Request.Context(), appointment.BookCommand{
		TechnicianID:    req.TechnicianID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		ServiceType:     req.ServiceType,
		Address:         req.Address,
		Location:        types.Point{Lat: req.Latitude, Lng: req.Longitude},
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		writeAppointmentError(c, err)
		return
	}

	appt := result.Appointment
	when := appt.StartTime.Format(time.RFC3339)
	writeJSON(c, http.StatusCreated, bookAppointmentResp{
		Success:       true,
		AppointmentID: appt.ID,
		Technician:    result.Technician.Name,
		Time:          when,
		Message:       "Appointment booked with " + result.Technician.Name + " at " + when,
	})
}
