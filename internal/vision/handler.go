package vision

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Handler exposes the meal-estimation endpoint. No database: the nutrition
// table is static and the classifier is stateless.
type Handler struct{}

// NewHandler returns a ready vision handler.
func NewHandler() *Handler {
	return &Handler{}
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// RegisterRoutes registers the vision routes on the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/vision/estimate_meal", h.estimateMealEndpoint)
}

// estimateMealEndpoint analyzes an uploaded photo and returns the estimated
// dish with macros. POST /vision/estimate_meal, multipart field "image".
func (h *Handler) estimateMealEndpoint(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		apiError(c, http.StatusBadRequest, "image file is required")
		return
	}
	if contentType := fileHeader.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "image/") {
		apiError(c, http.StatusBadRequest, "file must be an image")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to read image")
		return
	}
	defer file.Close()
	imageBytes, err := io.ReadAll(file)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "failed to read image")
		return
	}

	c.JSON(http.StatusOK, estimateMeal(imageBytes))
}
