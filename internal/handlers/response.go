package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/b10856039/chat-web-app-backend-render/internal/apperr"
)

// Every REST response carries the same envelope: a data object and a
// list of error reasons, exactly one of them populated.

// respondData wraps a successful payload.
func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data, "errors": []string{}})
}

// respondError maps a classified error onto an HTTP status and a
// client-safe reason string.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"data": nil, "errors": []string{apperr.Reason(err)}})
}

// respondErrors carries reasons under an explicit status, for cases
// the error taxonomy has no sentinel for.
func respondErrors(c *gin.Context, status int, reasons ...string) {
	c.JSON(status, gin.H{"data": nil, "errors": reasons})
}

// respondNoContent is the one envelope-free success, for deletes.
func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get("requestID"); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set("requestID", requestID)
	return requestID
}
