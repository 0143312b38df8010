package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/auth/jwt"
	"github.com/amoylab/familia/internal/common/config"
	"github.com/amoylab/familia/internal/common/dto"
	"github.com/amoylab/familia/internal/realtime"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	t      *testing.T
	db     database.Database
	hub    *realtime.Hub
	router *gin.Engine
	rtCfg  config.RealtimeConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewSQLite(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)

	jwtSvc, err := jwt.NewService(config.JWTConfig{
		SecretKey: "this-is-a-very-long-secret-key-for-testing",
		Duration:  time.Hour,
	})
	require.NoError(t, err)

	rtCfg := config.DefaultRealtimeConfig()
	rtCfg.TypingTimeout = 100 * time.Millisecond
	hub, err := realtime.NewHub(rtCfg, jwtSvc, realtime.NewLocalBus(), zap.NewNop(),
		realtime.WithFriendships(db))
	require.NoError(t, err)

	r := gin.New()
	NewHandlers(Deps{
		DB:       db,
		JWT:      jwtSvc,
		Hub:      hub,
		Fanout:   realtime.NewFanout(db, hub, zap.NewNop()),
		Realtime: rtCfg,
		Logger:   zap.NewNop(),
	}).Register(r)

	t.Cleanup(func() {
		hub.Shutdown()
		_ = db.Close()
	})
	return &testEnv{t: t, db: db, hub: hub, router: r, rtCfg: rtCfg}
}

// response is the union of every envelope shape the API answers with
type response struct {
	Message     string          `json:"message"`
	Error       string          `json:"error"`
	Data        json.RawMessage `json:"data"`
	Token       string          `json:"token"`
	User        dto.UserInfo    `json:"user"`
	UnreadCount int64           `json:"unreadCount"`
}

func (e *testEnv) do(method, path, token string, body any) (int, response) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

// ok performs a request that must answer with want and decodes its data into out
func (e *testEnv) ok(want int, method, path, token string, body, out any) response {
	e.t.Helper()
	code, resp := e.do(method, path, token, body)
	require.Equal(e.t, want, code, "%s %s: %s", method, path, resp.Error)
	if out != nil {
		require.NoError(e.t, json.Unmarshal(resp.Data, out))
	}
	return resp
}

type account struct {
	ID    string
	Token string
}

func (e *testEnv) signup(username string) account {
	e.t.Helper()
	resp := e.ok(http.StatusCreated, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Name:            "User " + username,
		Username:        username,
		Email:           strings.ToLower(username) + "@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}, nil)
	require.NotEmpty(e.t, resp.Token)
	require.NotEmpty(e.t, resp.User.ID)
	return account{ID: resp.User.ID, Token: resp.Token}
}

func (e *testEnv) befriend(a, b account) {
	e.t.Helper()
	var f database.Friendship
	e.ok(http.StatusCreated, http.MethodPost, "/api/friends/request/"+b.ID, a.Token, nil, &f)
	e.ok(http.StatusOK, http.MethodPut, "/api/friends/accept/"+f.ID, b.Token, nil, nil)
}

func (e *testEnv) notifications(a account) ([]dto.NotificationInfo, int64) {
	e.t.Helper()
	var out []dto.NotificationInfo
	resp := e.ok(http.StatusOK, http.MethodGet, "/api/notifications", a.Token, nil, &out)
	return out, resp.UnreadCount
}
