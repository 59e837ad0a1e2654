package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"url-shortener/internal/auth"
	"url-shortener/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgUnauthorized   = "Unauthorized"
	msgURLRequired    = "The url field is required."
	msgURLInvalid     = "The url must be a valid URL."
	msgShortNotFound  = "Short URL not found"
	msgURLNotFound    = "URL not found"
	msgDeleted        = "URL deleted successfully"
	msgDeleteFailed   = "An error occurred while deleting the URL."
	msgShortenFailed  = "An error occurred while shortening the URL."
	msgCodeExhausted  = "Failed to generate a unique short code."
	msgListFailed     = "An error occurred while retrieving URLs."
	msgRedirectFailed = "An error occurred while resolving the URL."
)

// ShortenRequest is the structure for the /shorten endpoint request body.
type ShortenRequest struct {
	URL string `json:"url"`
}

// ShortenResponse is the structure for the /shorten endpoint response body.
type ShortenResponse struct {
	ShortURL string `json:"short_url"`
}

// MessageResponse is the body of every non-success response.
type MessageResponse struct {
	Message string              `json:"message"`
	Error   string              `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// Handler adapts HTTP requests to URLService calls.
type Handler struct {
	urls   *service.URLService
	checks map[string]Pinger
	logger *zap.Logger
}

func NewHandler(urls *service.URLService, checks map[string]Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		urls:   urls,
		checks: checks,
		logger: logger.Named("handler"),
	}
}

// Shorten handles the creation of new short URLs for the authenticated user.
func (h *Handler) Shorten(c *gin.Context) {
	userID, ok := auth.PrincipalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: msgUnauthorized})
		return
	}

	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("invalid shorten body", zap.Error(err))
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "url" {
			validationError(c, msgURLInvalid)
			return
		}
		validationError(c, msgURLRequired)
		return
	}

	shortURL, err := h.urls.Shorten(c.Request.Context(), req.URL, userID)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, ShortenResponse{ShortURL: shortURL})
	case errors.Is(err, service.ErrURLRequired):
		validationError(c, msgURLRequired)
	case errors.Is(err, service.ErrValidation):
		validationError(c, msgURLInvalid)
	case errors.Is(err, service.ErrConflict):
		h.logger.Error("short code allocation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgCodeExhausted, Error: err.Error()})
	default:
		h.logger.Error("shorten failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgShortenFailed, Error: err.Error()})
	}
}

// ListURLs returns every URL owned by the authenticated user.
func (h *Handler) ListURLs(c *gin.Context) {
	userID, ok := auth.PrincipalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: msgUnauthorized})
		return
	}

	records, err := h.urls.ListForOwner(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("listing urls failed", zap.Error(err), zap.Uint("user_id", userID))
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgListFailed, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// Redirect sends the visitor to the original URL behind a short code.
func (h *Handler) Redirect(c *gin.Context) {
	code := c.Param("shortCode")

	originalURL, err := h.urls.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, MessageResponse{Message: msgShortNotFound})
			return
		}
		h.logger.Error("resolving short code failed", zap.Error(err), zap.String("short_code", code))
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgRedirectFailed, Error: err.Error()})
		return
	}

	c.Redirect(http.StatusFound, originalURL)
}

// DeleteURL deletes a URL owned by the authenticated user.
func (h *Handler) DeleteURL(c *gin.Context) {
	userID, ok := auth.PrincipalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: msgUnauthorized})
		return
	}

	// a non-numeric id cannot name an existing record
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, MessageResponse{Message: msgURLNotFound})
		return
	}

	err = h.urls.Delete(c.Request.Context(), uint(id), userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, MessageResponse{Message: msgDeleted})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, MessageResponse{Message: msgURLNotFound})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, MessageResponse{Message: msgUnauthorized})
	default:
		h.logger.Error("deleting url failed", zap.Error(err), zap.Uint64("id", id))
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: msgDeleteFailed, Error: err.Error()})
	}
}

// HealthCheck provides a simple liveness endpoint.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// Status pings every registered dependency and reports 503 if any is down.
func (h *Handler) Status(c *gin.Context) {
	code := http.StatusOK
	status := gin.H{"status": "UP"}
	for name, ping := range h.checks {
		if err := ping(c.Request.Context()); err != nil {
			h.logger.Warn("dependency check failed", zap.String("dependency", name), zap.Error(err))
			status[name] = "DOWN"
			status["status"] = "DOWN"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "UP"
	}
	c.JSON(code, status)
}

func validationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, MessageResponse{
		Message: message,
		Errors:  map[string][]string{"url": {message}},
	})
}
