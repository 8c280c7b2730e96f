package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ttokjang/backend/internal/basket"
	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/logger"
	"go.uber.org/zap"
)

// Error codes of the offline endpoints
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidQuery         = "INVALID_QUERY"
	CodeCatalogUnavailable   = "CATALOG_UNAVAILABLE"
	CodeGeocodeNotFound      = "GEOCODE_NOT_FOUND"
	CodeGeocoderUnavailable  = "GEOCODER_UNAVAILABLE"
	CodeRateLimited          = "RATE_LIMITED"
	CodeInternalError        = "INTERNAL_ERROR"
	CodeServiceNotConfigured = "SERVICE_NOT_CONFIGURED"
)

// CandidateMatcher resolves basket items against the catalog
type CandidateMatcher interface {
	MatchCandidates(ctx context.Context, items []domain.BasketItem) ([]domain.MatchRow, error)
}

// Geocoder turns a free-form address into coordinates
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	candidates CandidateMatcher
	geocoder   Geocoder
	version    string
}

// NewHandler creates a new HTTP handler. Either service may be nil, in which
// case its endpoints answer 503.
func NewHandler(candidates CandidateMatcher, geocoder Geocoder) *Handler {
	return &Handler{
		candidates: candidates,
		geocoder:   geocoder,
		version:    "1.0.0",
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ttokjang-backend",
		"version": h.version,
	})
}

// ParseBasket turns free-form basket text into structured items
func (h *Handler) ParseBasket(c *gin.Context) {
	var req domain.ParseBasketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "request body must be JSON with a text field")
		return
	}

	items := basket.ParseBasket(req.Text)
	if items == nil {
		items = []domain.BasketItem{}
	}
	lines := basket.FormatLines(items)
	if lines == nil {
		lines = []string{}
	}

	c.JSON(http.StatusOK, domain.ParseBasketResponse{Items: items, Lines: lines})
}

// MatchCandidates resolves each basket item to a catalog product or a ranked
// list of alternatives
func (h *Handler) MatchCandidates(c *gin.Context) {
	if h.candidates == nil {
		respondError(c, http.StatusServiceUnavailable, CodeServiceNotConfigured, "candidate matching is not configured")
		return
	}

	var req domain.MatchCandidatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Debug(c, "Invalid match-candidates request", zap.Error(err))
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "items must be a list of 1 to 30 entries with item_name")
		return
	}

	rows, err := h.candidates.MatchCandidates(c.Request.Context(), req.Items)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		case errors.Is(err, domain.ErrCatalogUnavailable):
			logger.Error(c, "Catalog unavailable during match", err)
			respondError(c, http.StatusServiceUnavailable, CodeCatalogUnavailable, "product catalog is unavailable")
		default:
			logger.Error(c, "Match candidates failed", err, zap.Int("items", len(req.Items)))
			respondError(c, http.StatusInternalServerError, CodeInternalError, "failed to match candidates")
		}
		return
	}

	c.JSON(http.StatusOK, domain.MatchCandidatesResponse{Items: rows})
}

// Geocode resolves the query parameter to coordinates
func (h *Handler) Geocode(c *gin.Context) {
	if h.geocoder == nil {
		respondError(c, http.StatusServiceUnavailable, CodeGeocoderUnavailable, "geocoder is not configured")
		return
	}

	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		respondError(c, http.StatusBadRequest, CodeInvalidQuery, "query is required")
		return
	}

	result, err := h.geocoder.Geocode(c.Request.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			respondError(c, http.StatusBadRequest, CodeInvalidQuery, "query is required")
		case errors.Is(err, domain.ErrGeocodeNotFound):
			logger.Info(c, "No coordinates for query", zap.String("query", query))
			respondError(c, http.StatusNotFound, CodeGeocodeNotFound, "address could not be converted to coordinates")
		case errors.Is(err, domain.ErrGeocoderUnavailable):
			logger.Warn(c, "Geocoder unavailable", zap.Error(err))
			respondError(c, http.StatusServiceUnavailable, CodeGeocoderUnavailable, "geocoder is unavailable")
		default:
			logger.Error(c, "Geocode failed", err, zap.String("query", query))
			respondError(c, http.StatusInternalServerError, CodeInternalError, "failed to geocode address")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, domain.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: logger.RequestID(c),
	})
}
