package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvforge/internal/auth"
)

func TestWsCheckOrigin(t *testing.T) {
	h := NewWsHandler(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/v1/ws", nil)
	assert.True(t, h.checkOrigin(req), "no origin header")

	req.Header.Set("Origin", "https://api.example.com")
	assert.True(t, h.checkOrigin(req), "same origin")

	req.Header.Set("Origin", "https://evil.example.net")
	assert.False(t, h.checkOrigin(req))

	h = NewWsHandler(nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), []string{"https://app.example.com"})
	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, h.checkOrigin(req))
}

func TestWsRejectsBadAuthMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	authService := newTestAuthService(t)
	pair, err := authService.GenerateTokenPair(auth.Subject{UserID: 7, Role: "user"})
	require.NoError(t, err)
	mustChange, err := authService.GenerateTokenPair(auth.Subject{UserID: 8, Role: "user", MustChangePassword: true})
	require.NoError(t, err)

	h := NewWsHandler(nil, authService, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	router := gin.New()
	router.GET("/v1/ws", h.HandleConnection)
	srv := httptest.NewServer(router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"

	cases := []struct {
		name string
		msg  string
	}{
		{"not json", "hello"},
		{"wrong type", `{"type":"ping","token":"x"}`},
		{"bad token", `{"type":"auth","token":"garbage"}`},
		{"refresh token", `{"type":"auth","token":"` + pair.RefreshToken + `"}`},
		{"password change pending", `{"type":"auth","token":"` + mustChange.AccessToken + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			require.NoError(t, err)
			defer conn.Close()

			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tc.msg)))
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err = conn.ReadMessage()
			require.Error(t, err)
			assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
		})
	}
}
