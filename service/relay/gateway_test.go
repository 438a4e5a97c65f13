package relay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(s *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/emit", s.HandleEmit)
	r.GET("/health", s.HandleHealth)
	return r
}

func postEmit(t *testing.T, r *gin.Engine, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/emit", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestHandleEmitToUser(t *testing.T) {
	s := newTestServer(t, Options{})
	r := newTestRouter(s)
	c1 := connect(t, s, "c1", "tok-ada")
	c2 := connect(t, s, "c2", "tok-ada")

	w, resp := postEmit(t, r, `{"user_id":"u-ada","event":"notification","data":{"text":"hi"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(2), resp["sent"])

	for _, c := range []*Client{c1, c2} {
		var f Frame
		require.NoError(t, json.Unmarshal(awaitPayload(t, c), &f))
		assert.Equal(t, "notification", f.Event)
	}
}

func TestHandleEmitUserNotFound(t *testing.T) {
	s := newTestServer(t, Options{})
	r := newTestRouter(s)

	w, resp := postEmit(t, r, `{"user_id":"u-nobody","event":"ping"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "User not found", resp["message"])
}

func TestHandleEmitToSession(t *testing.T) {
	s := newTestServer(t, Options{})
	r := newTestRouter(s)
	c1 := connect(t, s, "c1", "")

	w, resp := postEmit(t, r, `{"session_id":"c1","event":"ping"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["sent"])

	// omitted data defaults to an empty object
	var f Frame
	require.NoError(t, json.Unmarshal(awaitPayload(t, c1), &f))
	assert.JSONEq(t, `{}`, string(f.Data))

	w, resp = postEmit(t, r, `{"session_id":"ghost","event":"ping"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found", resp["message"])
}

func TestHandleEmitToRoom(t *testing.T) {
	s := newTestServer(t, Options{})
	r := newTestRouter(s)
	c1 := connect(t, s, "c1", "")
	c2 := connect(t, s, "c2", "")
	require.NoError(t, s.JoinRoom("c1", "channel:9"))
	require.NoError(t, s.JoinRoom("c2", "channel:9"))

	w, resp := postEmit(t, r, `{"room":"channel:9","event":"announce"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp["sent"])
	awaitPayload(t, c1)
	awaitPayload(t, c2)

	// an empty room is not an error, just zero deliveries
	w, resp = postEmit(t, r, `{"room":"channel:empty","event":"announce"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["sent"])
}

func TestHandleEmitValidation(t *testing.T) {
	s := newTestServer(t, Options{})
	r := newTestRouter(s)

	w, resp := postEmit(t, r, `{"user_id":"u-ada"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing event", resp["message"])

	w, resp = postEmit(t, r, `{"event":"ping"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Must specify user_id, session_id, or room", resp["message"])

	w, _ = postEmit(t, r, `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, Options{})
	r := newTestRouter(s)
	connect(t, s, "c1", "tok-ada")
	connect(t, s, "c2", "tok-ada")
	connect(t, s, "c3", "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(1), resp["connected_users"])
	assert.Equal(t, float64(3), resp["active_sessions"])
}
