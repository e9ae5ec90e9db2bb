package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pagevault/pagevault/pkg/response"
)

// AuthHandler answers token validity probes from the extension.
type AuthHandler struct{}

// NewAuthHandler builds a new handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Check godoc
// @Summary Validate the bearer token
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/check [get]
func (h *AuthHandler) Check(c *gin.Context) {
	// Reaching this handler means the token middleware accepted the request.
	response.Success(c, true)
}
