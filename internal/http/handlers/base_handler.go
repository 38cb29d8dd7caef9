// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"fieldops/internal/modules/appointment"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeAppointmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, appointment.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, appointment.ErrNotFound), errors.Is(err, appointment.ErrTechnicianNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus), errors.Is(err, appointment.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusServiceUnavailable, "temporarily unable to process request")
	}
}

// round2 rounds distances to 2 decimals at the response boundary. Internal
// comparisons always run on full precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
