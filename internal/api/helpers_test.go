package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fridgewatch/fridgewatch/backend/internal/middleware"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
	"github.com/fridgewatch/fridgewatch/backend/internal/testhelpers"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

var tokens = service.NewTokenService(testSecret)

// newTestRouter returns an engine with auth and error handling under /api/v1.
func newTestRouter(register func(v1 *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(testhelpers.DiscardLogger(), ClassifyError))
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(tokens))
	register(v1)
	return r
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := tokens.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	return token
}

func performRequest(t *testing.T, r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

type sseEvent struct {
	Name string
	Data string
}

// readEvent reads one server-sent event. It returns false at end of stream.
func readEvent(t *testing.T, r *bufio.Reader) (sseEvent, bool) {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return ev, false
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.Name != "" || ev.Data != "" {
				return ev, true
			}
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.Data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

// nextEvent skips keep-alive pings.
func nextEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	for {
		ev, ok := readEvent(t, r)
		require.True(t, ok, "stream ended early")
		if ev.Name != "ping" {
			return ev
		}
	}
}
