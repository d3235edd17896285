package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/outpost-social/outpost/internal/models"
)

// CommentReader loads comments by internal id
type CommentReader interface {
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
}

// CommentAPI serves comment lookups. Comments inherit the visibility of
// their parent submission.
type CommentAPI struct {
	comments    CommentReader
	submissions SubmissionReader
	posts       *PostAPI
}

// NewCommentAPI creates a new comment API
func NewCommentAPI(comments CommentReader, submissions SubmissionReader, posts *PostAPI) *CommentAPI {
	return &CommentAPI{comments: comments, submissions: submissions, posts: posts}
}

// GetComment handles GET /api/v1/comment/:id
func (a *CommentAPI) GetComment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 36, 64)
	if err != nil || id <= 0 {
		respondNotFound(c)
		return
	}

	comment, err := a.comments.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if comment == nil || comment.IsDeleted {
		respondNotFound(c)
		return
	}

	parent, err := a.submissions.GetByID(c.Request.Context(), comment.SubmissionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if parent == nil || parent.IsDeleted || parent.IsBanned {
		respondNotFound(c)
		return
	}
	if ok := a.posts.checkVisibility(c, parent); !ok {
		return
	}

	c.JSON(http.StatusOK, commentObject(comment))
}
