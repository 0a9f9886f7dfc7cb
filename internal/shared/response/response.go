package response

import (
	"github.com/gin-gonic/gin"
)

type ApiEnvelope struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Data    any     `json:"data"`
	Error   *string `json:"error"`
}

func Success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, ApiEnvelope{
		Success: true,
		Message: message,
		Data:    data,
		Error:   nil,
	})
}

// Error writes a failed envelope. details is placed under data, which is how
// field-level validation messages reach the client.
func Error(c *gin.Context, status int, errorCode string, message string, details any) {
	c.JSON(status, ApiEnvelope{
		Success: false,
		Message: message,
		Data:    details,
		Error:   &errorCode,
	})
}

// Abort is Error for middleware that must stop the handler chain.
func Abort(c *gin.Context, status int, errorCode string, message string) {
	c.AbortWithStatusJSON(status, ApiEnvelope{
		Success: false,
		Message: message,
		Data:    nil,
		Error:   &errorCode,
	})
}
