package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paintpro/appointments/internal/apperrors"
	"github.com/paintpro/appointments/internal/service/booking"
)

type AppointmentHandler struct {
	service booking.BookingUseCase
}

type appointmentResponse struct {
	AppointmentID string `json:"appointmentId"`
	LeadID        string `json:"leadId,omitempty"`
}

func NewAppointmentHandler(service booking.BookingUseCase) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

func (h *AppointmentHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
}

func (h *AppointmentHandler) create(c *gin.Context) {
	var req booking.BookSlotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("Request body must be a JSON object"))
		return
	}

	result, err := h.service.CreateAppointment(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := appointmentResponse{AppointmentID: result.Booking.ID.String()}
	if result.Booking.LeadID != nil {
		resp.LeadID = result.Booking.LeadID.String()
	}
	c.JSON(http.StatusCreated, resp)
}
