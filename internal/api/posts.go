package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/outpost-social/outpost/internal/models"
	"github.com/outpost-social/outpost/internal/submit"
)

// SubmitPipeline runs the content-submission pipeline
type SubmitPipeline interface {
	Submit(ctx context.Context, user *models.User, req *submit.Request) (*submit.Result, error)
}

// SubmissionReader loads submissions by internal id
type SubmissionReader interface {
	GetByID(ctx context.Context, id int64) (*models.Submission, error)
}

// GuildViewer answers visibility questions for private guilds
type GuildViewer interface {
	GetByID(ctx context.Context, id int64) (*models.Guild, error)
	CanView(ctx context.Context, guildID, userID int64) (bool, error)
}

// PostAPI serves submission creation and lookup
type PostAPI struct {
	pipeline    SubmitPipeline
	submissions SubmissionReader
	guilds      GuildViewer
}

// NewPostAPI creates a new post API
func NewPostAPI(pipeline SubmitPipeline, submissions SubmissionReader, guilds GuildViewer) *PostAPI {
	return &PostAPI{pipeline: pipeline, submissions: submissions, guilds: guilds}
}

// CreatePost handles POST /api/v1/post
func (p *PostAPI) CreatePost(c *gin.Context) {
	var req submit.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	res, err := p.pipeline.Submit(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	// An identical resubmission answers with the existing post's
	// permalink instead of creating anything.
	if res.Existing {
		c.JSON(http.StatusOK, res.Permalink())
		return
	}

	obj := submissionObject(res.Submission)
	obj["guild_name"] = res.Guild.Name
	c.JSON(http.StatusOK, obj)
}

// GetPost handles GET /api/v1/post/:id
func (p *PostAPI) GetPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 36, 64)
	if err != nil || id <= 0 {
		respondNotFound(c)
		return
	}

	sub, err := p.submissions.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if sub == nil || sub.IsDeleted || sub.IsBanned {
		respondNotFound(c)
		return
	}

	if ok := p.checkVisibility(c, sub); !ok {
		return
	}

	c.JSON(http.StatusOK, submissionObject(sub))
}

// checkVisibility enforces private-guild access on a submission. A post
// that was public at creation stays visible even if the guild privatized
// afterwards.
func (p *PostAPI) checkVisibility(c *gin.Context, sub *models.Submission) bool {
	if sub.PostPublic {
		return true
	}

	guild, err := p.guilds.GetByID(c.Request.Context(), sub.GuildID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if guild == nil || !guild.IsPrivate {
		return true
	}

	user := currentUser(c)
	if user != nil {
		allowed, err := p.guilds.CanView(c.Request.Context(), guild.ID, user.ID)
		if err != nil {
			respondError(c, err)
			return false
		}
		if allowed {
			return true
		}
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "+" + guild.Name + " is private."})
	return false
}
