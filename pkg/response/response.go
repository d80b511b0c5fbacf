package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "RapidSafe/pkg/errors"
	"RapidSafe/pkg/logger"

	"go.uber.org/zap"
)

// ErrorBody is the error half of every failed response.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Success 200 + {success, message, data}
func Success(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg, "data": data})
}

// Fail 400 + {success:false, error}
func Fail(c *gin.Context, msg string, data any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   ErrorBody{Status: "invalid-argument", Message: msg},
		"data":    data,
	})
}

// AbortWithError writes a classified error. Unclassified errors become a
// generic 500 so internals never leak to the client.
func AbortWithError(c *gin.Context, err error) {
	e, ok := apperrors.As(err)
	if !ok {
		logger.Error("unclassified handler error", zap.String("path", c.FullPath()), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   ErrorBody{Status: "internal", Message: "unexpected server error"},
		})
		return
	}
	if e.HTTPStatus() >= http.StatusInternalServerError {
		logger.Error("handler error", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(e.HTTPStatus(), gin.H{
		"success": false,
		"error":   ErrorBody{Status: e.Status(), Message: e.Error()},
	})
}
