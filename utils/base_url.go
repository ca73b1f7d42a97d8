package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// GetBaseURL returns the scheme and host the request was addressed to.
func GetBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return scheme + "://" + c.Request.Host
}

// NoteURL is the canonical location of a single note.
func NoteURL(c *gin.Context, noteID string) string {
	return GetBaseURL(c) + "/api/Notes/" + noteID
}
