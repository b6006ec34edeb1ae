package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roomradar/rate-shopper/internal/models"
	"github.com/roomradar/rate-shopper/internal/services"
)

type TrendHandler struct {
	aggregator *services.TrendAggregator
}

func NewTrendHandler(aggregator *services.TrendAggregator) *TrendHandler {
	return &TrendHandler{aggregator: aggregator}
}

// GetTrends returns chart-ready series for a hotel's properties, with
// optional forecast days appended past the last observed date.
func (h *TrendHandler) GetTrends(c *gin.Context) {
	hotelID, err := strconv.ParseUint(c.Query("hotel_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hotel_id is required"})
		return
	}

	start, err := time.Parse(models.DateLayout, c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(models.DateLayout, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}

	futureDays := 0
	if fd := c.Query("future_days"); fd != "" {
		futureDays, err = strconv.Atoi(fd)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "future_days must be an integer"})
			return
		}
	}

	trends, err := h.aggregator.Trends(uint(hotelID), start, end, futureDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}
