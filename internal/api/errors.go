package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outpost-social/outpost/internal/submit"
)

// statusForError maps a pipeline failure kind to an HTTP status.
// Untyped errors are treated as storage failures.
func statusForError(err error) int {
	switch submit.KindOf(err) {
	case submit.KindInvalidInput:
		return http.StatusBadRequest
	case submit.KindForbidden:
		return http.StatusForbidden
	case submit.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a JSON error body. Internal failures hide the
// underlying cause from the client.
func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error."
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondNotFound writes the standard 404 body
func respondNotFound(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found."})
}
