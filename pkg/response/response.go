// Package response provides standardized API response handling for the application
package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Response is the standard API response structure
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewResponse creates a new API response
func NewResponse(success bool, message string, data interface{}) Response {
	return Response{
		Success:   success,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewErrorResponse creates a new error response
func NewErrorResponse(message string, err string) Response {
	return Response{
		Success:   false,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// WithSuccess sends a success response with the given data
func WithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, NewResponse(true, message, data))
}

// WithError sends an error response
func WithError(c *gin.Context, statusCode int, message string, err string) {
	c.JSON(statusCode, NewErrorResponse(message, err))
}

// Common response messages
const (
	MessageUpdated = "Resource updated successfully"
	MessageDeleted = "Resource deleted successfully"
	MessageFetched = "Resource fetched successfully"
)
