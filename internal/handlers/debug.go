package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/b10856039/chat-web-app-backend-render/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			respondErrors(c, http.StatusServiceUnavailable, "audit emitter not configured")
			return
		}
		emitter.Emit(c.Request.Context(), "debug.audit_test", "audit test", requestIDFromContext(c), c.GetInt("userID"))
		respondData(c, http.StatusOK, gin.H{"status": "ok"})
	})
}
