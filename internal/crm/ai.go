package crm

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// bookKeywords are substrings that mark a message as a booking request.
// "запис" catches the Russian/Ukrainian verb stems for booking.
var bookKeywords = []string{"book", "appointment", "запис", "schedule"}

type aiRouteRequest struct {
	TenantID uuid.UUID  `json:"tenant_id"`
	Message  string     `json:"message"`
	ClientID *uuid.UUID `json:"client_id"`
}

type aiRouteResponse struct {
	Intent      string   `json:"intent"`
	Suggestions []string `json:"suggestions"`
}

// routeIntent classifies a free-text message into an intent and suggested
// follow-up actions. Keyword matching is deliberate: the router must answer
// fast and never depend on an external model being up.
func routeIntent(message string) aiRouteResponse {
	lowered := strings.ToLower(message)
	for _, keyword := range bookKeywords {
		if strings.Contains(lowered, keyword) {
			return aiRouteResponse{
				Intent:      "book_appointment",
				Suggestions: []string{"create_appointment"},
			}
		}
	}
	return aiRouteResponse{
		Intent:      "answer_from_kb",
		Suggestions: []string{"search_kb"},
	}
}

// routeAIMessage classifies an inbound client message. POST /ai/route
func (h *Handler) routeAIMessage(c *gin.Context) {
	var body aiRouteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	c.JSON(http.StatusOK, routeIntent(body.Message))
}
