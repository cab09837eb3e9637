package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/services"
	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/media"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
)

// StoryHandlers exposes the ephemeral story endpoints.
type StoryHandlers struct {
	storyService *services.StoryService
	mediaStore   *media.Store
	logger       *logging.ChanneledLogger
}

func NewStoryHandlers(storyService *services.StoryService, mediaStore *media.Store, logger *logging.ChanneledLogger) *StoryHandlers {
	return &StoryHandlers{storyService: storyService, mediaStore: mediaStore, logger: logger}
}

// PostStory handles POST /api/v1/stories
func (h *StoryHandlers) PostStory(c *gin.Context) {
	var spec feed.StorySpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	story, err := h.storyService.Create(c.GetString("userId"), c.GetString("userName"), &spec)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, story)
}

// GetStories handles GET /api/v1/stories
func (h *StoryHandlers) GetStories(c *gin.Context) {
	stories, err := h.storyService.List()
	if err != nil {
		respondError(c, err)
		return
	}
	if stories == nil {
		stories = []*feed.Story{}
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

// GetStory handles GET /api/v1/stories/:id
func (h *StoryHandlers) GetStory(c *gin.Context) {
	story, err := h.storyService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// DeleteStory handles DELETE /api/v1/stories/:id
func (h *StoryHandlers) DeleteStory(c *gin.Context) {
	if err := h.storyService.Delete(c.Param("id"), c.GetString("userId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PostView handles POST /api/v1/stories/:id/view
func (h *StoryHandlers) PostView(c *gin.Context) {
	views, err := h.storyService.View(c.Param("id"), c.GetString("userId"), c.GetString("userName"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}

// GetViewers handles GET /api/v1/stories/:id/viewers (author only)
func (h *StoryHandlers) GetViewers(c *gin.Context) {
	viewers, err := h.storyService.Viewers(c.Param("id"), c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if viewers == nil {
		viewers = []feed.StoryViewer{}
	}
	c.JSON(http.StatusOK, gin.H{"viewers": viewers})
}

// PostLike handles POST /api/v1/stories/:id/like
func (h *StoryHandlers) PostLike(c *gin.Context) {
	liked, likes, err := h.storyService.ToggleLike(c.Param("id"), c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": likes})
}

// PostReply handles POST /api/v1/stories/:id/reply
func (h *StoryHandlers) PostReply(c *gin.Context) {
	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is required"})
		return
	}

	reply, err := h.storyService.Reply(c.Param("id"), c.GetString("userId"), c.GetString("userName"), req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// PostVote handles POST /api/v1/stories/:id/vote
func (h *StoryHandlers) PostVote(c *gin.Context) {
	var req struct {
		OptionIndex *int `json:"optionIndex" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "optionIndex is required"})
		return
	}

	tallies, err := h.storyService.Vote(c.Param("id"), c.GetString("userId"), *req.OptionIndex)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tallies": tallies})
}

// GetMedia handles GET /media/*path, serving story blobs from disk.
func (h *StoryHandlers) GetMedia(c *gin.Context) {
	relative := c.Param("path")
	if relative == "" {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(h.mediaStore.FullPath(relative))
}
