package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

// Envelope is the wire contract shared by every endpoint: successful
// responses carry data, failures carry a message instead.
type Envelope struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Msg     string      `json:"msg,omitempty"`
}

// Success sends a 200 envelope wrapping the payload.
func Success(c *gin.Context, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, Envelope{Code: http.StatusOK, Success: true, Data: data})
}

// Error sends an error envelope converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Code: appErr.Status, Success: false, Msg: appErr.Message})
}
