package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/service/slots"
)

type SlotHandler struct {
	service slots.SlotUseCase
}

type slotResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Capacity  int    `json:"capacity"`
	Status    string `json:"status"`
	Booked    *int   `json:"booked,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func NewSlotHandler(service slots.SlotUseCase) *SlotHandler {
	return &SlotHandler{service: service}
}

func (h *SlotHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *SlotHandler) list(c *gin.Context) {
	open, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]slotResponse, 0, len(open))
	for _, a := range open {
		resp = append(resp, toAvailabilityResponse(a))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SlotHandler) get(c *gin.Context) {
	slot, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAvailabilityResponse(*slot))
}

func toSlotResponse(s domain.Slot) slotResponse {
	return slotResponse{
		ID:        s.ID.String(),
		Date:      s.Date.Format(domain.DateLayout),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Capacity:  s.Capacity,
		Status:    string(s.Status),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

func toAvailabilityResponse(a domain.SlotAvailability) slotResponse {
	resp := toSlotResponse(a.Slot)
	booked, remaining := a.Booked, a.Remaining()
	resp.Booked = &booked
	resp.Remaining = &remaining
	return resp
}
