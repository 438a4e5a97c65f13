package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"RelayGate/logger"
	"RelayGate/tools/security"
)

// EmitAuth protects the control-plane endpoint with a bearer JWT signed by
// the shared secret. An empty secret disables the check (trusted-network
// deployments).
func EmitAuth(secret string) gin.HandlerFunc {
	if secret == "" {
		logger.Warn("[middleware] /emit auth disabled: no secret configured")
		return func(c *gin.Context) { c.Next() }
	}
	opts := security.DefaultOptions([]byte(secret))

	return func(c *gin.Context) {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		token := ""
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[len("bearer "):])
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing bearer token"})
			return
		}
		sub, err := security.Verify(opts, token)
		if err != nil {
			logger.Warnf("[middleware] /emit token rejected: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid token"})
			return
		}
		c.Set("emit_subject", sub)
		c.Next()
	}
}
