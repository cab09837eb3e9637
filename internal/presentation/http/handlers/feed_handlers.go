package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/services"
	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
)

// FeedHandlers exposes aggregate feed endpoints.
type FeedHandlers struct {
	engagementService *services.EngagementService
	logger            *logging.ChanneledLogger
}

func NewFeedHandlers(engagementService *services.EngagementService, logger *logging.ChanneledLogger) *FeedHandlers {
	return &FeedHandlers{engagementService: engagementService, logger: logger}
}

// Named trending windows accepted alongside raw durations.
var trendingWindows = map[string]time.Duration{
	"day":   24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
}

// GetTrending handles GET /api/v1/feed/trending?window=day|week|month
func (h *FeedHandlers) GetTrending(c *gin.Context) {
	window := 24 * time.Hour
	if w := c.Query("window"); w != "" {
		if named, ok := trendingWindows[w]; ok {
			window = named
		} else if parsed, err := time.ParseDuration(w); err == nil && parsed > 0 {
			window = parsed
		}
	}
	limit := intQuery(c, "limit", 20)

	trending, formulaVersion, err := h.engagementService.ListTrending(window, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if trending == nil {
		trending = []*feed.TrendingThread{}
	}

	c.JSON(http.StatusOK, gin.H{
		"threads":        trending,
		"formulaVersion": formulaVersion,
		"window":         window.String(),
	})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
