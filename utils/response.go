package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope for error bodies. Successful note responses are
// written bare because clients decode a Note or a Note array directly.
type Response struct {
	Status    int    `json:"-"`                    // HTTP status code
	Error     string `json:"error,omitempty"`      // Error message
	RequestID string `json:"request_id,omitempty"` // Set when tracing middleware ran
}

func newErrorResponse(c *gin.Context, status int, message string) *Response {
	return &Response{
		Status:    status,
		Error:     message,
		RequestID: c.GetString("request_id"),
	}
}

// Success responses
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error responses
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, http.StatusUnauthorized, message))
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, newErrorResponse(c, http.StatusBadRequest, message))
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, newErrorResponse(c, http.StatusNotFound, message))
}

func MethodNotAllowed(c *gin.Context, message string) {
	c.JSON(http.StatusMethodNotAllowed, newErrorResponse(c, http.StatusMethodNotAllowed, message))
}

func UnprocessableEntity(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, newErrorResponse(c, http.StatusUnprocessableEntity, message))
}

func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, newErrorResponse(c, http.StatusInternalServerError, message))
}
