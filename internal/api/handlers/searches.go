package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roomradar/rate-shopper/internal/models"
	"github.com/roomradar/rate-shopper/internal/services"
)

type SearchHandler struct {
	scheduler *services.SearchScheduler
	worker    *services.ExtractionWorker
}

func NewSearchHandler(scheduler *services.SearchScheduler, worker *services.ExtractionWorker) *SearchHandler {
	return &SearchHandler{
		scheduler: scheduler,
		worker:    worker,
	}
}

type createSearchRequest struct {
	PropertyID    uint   `json:"property_id" binding:"required"`
	StartDate     string `json:"start_date" binding:"required"`
	EndDate       string `json:"end_date" binding:"required"`
	MaxBundleSize int    `json:"max_bundle_size"`
}

// CreateSearch schedules a new extraction job and returns it immediately;
// bundle execution happens in the background.
func (h *SearchHandler) CreateSearch(c *gin.Context) {
	var req createSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start, err := time.Parse(models.DateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(models.DateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}

	search, err := h.scheduler.Schedule(req.PropertyID, start, end, req.MaxBundleSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"uuid":        search.UUID,
		"status":      search.Status,
		"total_dates": search.TotalDates,
	})
}

// GetSearch returns the status snapshot for one search
func (h *SearchHandler) GetSearch(c *gin.Context) {
	search, err := h.scheduler.GetByUUID(c.Param("uuid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, search.StatusResponse())
}

// ListSearches returns recent searches for a property
func (h *SearchHandler) ListSearches(c *gin.Context) {
	propertyID, err := strconv.ParseUint(c.Query("property_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_id is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	searches, err := h.scheduler.ListByProperty(uint(propertyID), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]models.SearchStatusResponse, len(searches))
	for i := range searches {
		out[i] = searches[i].StatusResponse()
	}
	c.JSON(http.StatusOK, gin.H{"searches": out})
}

// CancelSearch requests cooperative cancellation of a running search
func (h *SearchHandler) CancelSearch(c *gin.Context) {
	search, err := h.scheduler.Cancel(c.Param("uuid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, search.StatusResponse())
}

// GetExtractionStatus returns worker pool stats
func (h *SearchHandler) GetExtractionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.GetStatus())
}

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, services.ErrSearchNotFound),
		errors.Is(err, services.ErrPropertyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
