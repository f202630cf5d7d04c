package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paintpro/appointments/internal/apperrors"
	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/service/booking"
	"github.com/paintpro/appointments/internal/service/slots"
)

type AdminHandler struct {
	slots    slots.SlotUseCase
	bookings booking.BookingUseCase
}

type bookingResponse struct {
	ID          string  `json:"id"`
	SlotID      string  `json:"slotId"`
	LeadID      string  `json:"leadId,omitempty"`
	Name        string  `json:"name"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Address     string  `json:"address,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	CancelledAt *string `json:"cancelledAt,omitempty"`
}

func NewAdminHandler(slotService slots.SlotUseCase, bookingService booking.BookingUseCase) *AdminHandler {
	return &AdminHandler{slots: slotService, bookings: bookingService}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.POST("/slots", h.createSlot)
	router.PUT("/slots/:id/close", h.closeSlot)
	router.PUT("/slots/:id/open", h.openSlot)
	router.GET("/slots/:id/bookings", h.listBookings)
	router.DELETE("/bookings/:id", h.cancelBooking)
}

// AdminAuth requires "Authorization: Bearer <token>". An empty token leaves the routes open.
func AdminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		given, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(given), []byte(token)) != 1 {
			writeError(c, apperrors.Unauthorized("Missing or invalid admin token"))
			return
		}
		c.Next()
	}
}

func (h *AdminHandler) createSlot(c *gin.Context) {
	var req slots.CreateSlotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperrors.BadRequest("Request body must be a JSON object"))
		return
	}

	slot, err := h.slots.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSlotResponse(*slot))
}

func (h *AdminHandler) closeSlot(c *gin.Context) {
	slot, err := h.slots.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSlotResponse(*slot))
}

func (h *AdminHandler) openSlot(c *gin.Context) {
	slot, err := h.slots.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSlotResponse(*slot))
}

func (h *AdminHandler) listBookings(c *gin.Context) {
	bookings, err := h.bookings.ListBySlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) cancelBooking(c *gin.Context) {
	b, err := h.bookings.CancelBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}

func toBookingResponse(b domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:        b.ID.String(),
		SlotID:    b.SlotID.String(),
		Name:      b.Name,
		Email:     b.Email,
		Phone:     b.Phone,
		Address:   b.Address,
		Notes:     b.Notes,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
	if b.LeadID != nil {
		resp.LeadID = b.LeadID.String()
	}
	if b.CancelledAt != nil {
		cancelled := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelled
	}
	return resp
}
