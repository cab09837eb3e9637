package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/services"
	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
)

// ThreadHandlers exposes thread and engagement endpoints. Mutations here
// are the REST half of the realtime contract: persist first, broadcast second.
type ThreadHandlers struct {
	engagementService *services.EngagementService
	logger            *logging.ChanneledLogger
}

func NewThreadHandlers(engagementService *services.EngagementService, logger *logging.ChanneledLogger) *ThreadHandlers {
	return &ThreadHandlers{engagementService: engagementService, logger: logger}
}

// PostThread handles POST /api/v1/threads
func (h *ThreadHandlers) PostThread(c *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
		return
	}

	thread, err := h.engagementService.CreateThread(c.GetString("userId"), c.GetString("userName"), req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

// GetThreads handles GET /api/v1/threads
func (h *ThreadHandlers) GetThreads(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	threads, err := h.engagementService.ListThreads(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if threads == nil {
		threads = []*feed.Thread{}
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// GetThread handles GET /api/v1/threads/:id
func (h *ThreadHandlers) GetThread(c *gin.Context) {
	thread, err := h.engagementService.GetThread(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// PostView handles POST /api/v1/threads/:id/view
func (h *ThreadHandlers) PostView(c *gin.Context) {
	result, err := h.engagementService.RecordView(c.Param("id"), c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PostReaction handles POST /api/v1/threads/:id/reactions
func (h *ThreadHandlers) PostReaction(c *gin.Context) {
	var req struct {
		Reaction string `json:"reaction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reaction is required"})
		return
	}

	result, err := h.engagementService.AddReaction(c.Param("id"), c.GetString("userId"), c.GetString("userName"), req.Reaction, originConn(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteReaction handles DELETE /api/v1/threads/:id/reactions/:reaction
func (h *ThreadHandlers) DeleteReaction(c *gin.Context) {
	result, err := h.engagementService.RemoveReaction(c.Param("id"), c.GetString("userId"), c.GetString("userName"), c.Param("reaction"), originConn(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PostComment handles POST /api/v1/threads/:id/comments
func (h *ThreadHandlers) PostComment(c *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
		return
	}

	comment, err := h.engagementService.AddComment(c.Param("id"), c.GetString("userId"), c.GetString("userName"), req.Body, originConn(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GetComments handles GET /api/v1/threads/:id/comments
func (h *ThreadHandlers) GetComments(c *gin.Context) {
	comments, err := h.engagementService.ListComments(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if comments == nil {
		comments = []*feed.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// PostShare handles POST /api/v1/threads/:id/share
func (h *ThreadHandlers) PostShare(c *gin.Context) {
	shared, shares, err := h.engagementService.ToggleShare(c.Param("id"), c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shared": shared, "shares": shares})
}

// GetEngagement handles GET /api/v1/threads/:id/engagement
func (h *ThreadHandlers) GetEngagement(c *gin.Context) {
	counters, err := h.engagementService.GetCounters(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counters)
}

// PostMilestone handles POST /api/v1/threads/:id/milestone. Clients may
// report milestones they detect locally; the celebration is global.
func (h *ThreadHandlers) PostMilestone(c *gin.Context) {
	var req struct {
		MilestoneType string `json:"milestoneType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "milestoneType is required"})
		return
	}

	threadID := c.Param("id")
	if _, err := h.engagementService.GetThread(threadID); err != nil {
		respondError(c, err)
		return
	}

	h.engagementService.Milestone(threadID, c.GetString("userId"), c.GetString("userName"), req.MilestoneType)
	c.JSON(http.StatusAccepted, gin.H{"status": "celebrating"})
}
