package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func originReq(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginCheckerAllowAll(t *testing.T) {
	check := OriginChecker(nil)
	assert.True(t, check(originReq("https://evil.example")))
	assert.True(t, check(originReq("")))
}

func TestOriginCheckerAllowlist(t *testing.T) {
	check := OriginChecker([]string{"https://app.example.com", "localhost:3000"})

	assert.True(t, check(originReq("https://app.example.com")))
	assert.True(t, check(originReq("HTTPS://APP.EXAMPLE.COM")))
	assert.True(t, check(originReq("http://localhost:3000")))
	assert.False(t, check(originReq("https://evil.example")))

	// no Origin header means a non-browser client
	assert.True(t, check(originReq("")))
}

func TestCORSHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	// disallowed origin gets no CORS headers
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// preflight short-circuits
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
