package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/vibesync/internal/controller"
	"github.com/xpanvictor/vibesync/internal/protocol"
)

// bindOptionalJSON binds the body when there is one. An empty body leaves
// req untouched.
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// commandError maps controller and protocol errors to a response.
func commandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, controller.ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Prompt is required"})
	case errors.Is(err, protocol.ErrInvalidCommand):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid command", Details: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
