package preferences

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// allowedMethods is sent in the Allow header of every 405 from the endpoint.
const allowedMethods = "GET, POST"

// Handler handles HTTP requests for preference records
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new preferences handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers preference routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/preferences/export", h.exportPreferences)
	router.Any("/preferences", h.Preferences)
}

// Preferences dispatches /api/preferences on the request method
func (h *Handler) Preferences(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet:
		h.listPreferences(c)
	case http.MethodPost:
		h.createPreferences(c)
	default:
		c.Header("Allow", allowedMethods)
		c.String(http.StatusMethodNotAllowed, "Method %s Not Allowed", c.Request.Method)
	}
}

// listPreferences handles GET /api/preferences
func (h *Handler) listPreferences(c *gin.Context) {
	records, err := h.service.ListPreferences(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list preferences", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

// createPreferences handles POST /api/preferences
func (h *Handler) createPreferences(c *gin.Context) {
	var req CreatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	record, err := h.service.CreatePreferences(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to create preferences", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// exportPreferences handles GET /api/preferences/export
func (h *Handler) exportPreferences(c *gin.Context) {
	format := ExportFormat(c.DefaultQuery("format", string(ExportFormatCSV)))

	result, err := h.service.ExportPreferences(c.Request.Context(), format)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to export preferences", zap.Error(err), zap.String("format", string(format)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
