package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RelayGate/tools/security"
)

func emitRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/emit", EmitAuth(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString("emit_subject")})
	})
	return r
}

func TestEmitAuthValidToken(t *testing.T) {
	r := emitRouter("s3cret")
	token, _, err := security.Generate(security.DefaultOptions([]byte("s3cret")), "backend-svc")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/emit", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "backend-svc")
}

func TestEmitAuthMissingToken(t *testing.T) {
	r := emitRouter("s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/emit", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEmitAuthBadToken(t *testing.T) {
	r := emitRouter("s3cret")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/emit", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEmitAuthWrongSecret(t *testing.T) {
	r := emitRouter("s3cret")
	token, _, err := security.Generate(security.DefaultOptions([]byte("other")), "svc")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/emit", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEmitAuthDisabled(t *testing.T) {
	r := emitRouter("")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/emit", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
