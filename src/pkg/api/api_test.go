package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mindnoscape/web-app/src/pkg/data"
	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/session"
	"mindnoscape/web-app/src/pkg/storage"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := log.Discard()
	bdb, err := storage.OpenBadger(storage.BadgerConfig{InMemory: true}, logger)
	require.NoError(t, err)
	store := storage.NewBadgerStorage(bdb)
	t.Cleanup(func() { store.Close() })

	cfg := &model.Config{AllowedOrigins: []string{"http://localhost:5173"}, AuthRateLimit: 100, AuthRateBurst: 100}
	em := event.NewEventManager(logger)
	dm, err := data.NewDataManager(store.UserStore, store.MindmapStore, cfg, em, logger)
	require.NoError(t, err)
	dm.UserManager.SetHashCost(bcrypt.MinCost)

	sm := session.NewSessionManager(time.Hour, time.Minute, em, logger)
	srv, err := NewServer(dm, sm, cfg, logger)
	require.NoError(t, err)
	return srv.Router()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine, email string) AuthResponse {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{"valid", map[string]string{"email": "Ada@Example.com", "password": "secret1"}, http.StatusCreated},
		{"duplicate", map[string]string{"email": "ada@example.com", "password": "secret1"}, http.StatusConflict},
		{"short password", map[string]string{"email": "b@example.com", "password": "123"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "nope", "password": "secret1"}, http.StatusBadRequest},
		{"missing fields", map[string]string{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusCreated {
				var resp AuthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "ada@example.com", resp.Email)
				assert.NotEmpty(t, resp.Token)
				assert.NotEmpty(t, resp.ID)
			} else {
				assert.NotEmpty(t, decodeMessage(t, w))
			}
		})
	}
}

func TestLoginLogoutMe(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "grace@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "grace@example.com", "password": "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "grace@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doJSON(t, router, http.MethodGet, "/api/auth/me", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "grace@example.com")

	w = doJSON(t, router, http.MethodPost, "/api/auth/logout", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/auth/me", resp.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic abc"},
		{"unknown token", "Bearer not-a-token"},
		{"empty token", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/mindmaps", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.NotEmpty(t, decodeMessage(t, w))
		})
	}
}

func TestBearerSchemeCaseInsensitive(t *testing.T) {
	router := newTestRouter(t)
	user := registerUser(t, router, "case@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/mindmaps", nil)
	req.Header.Set("Authorization", "bearer "+user.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMindmapCRUD(t *testing.T) {
	router := newTestRouter(t)
	user := registerUser(t, router, "crud@example.com")

	// No map yet
	w := doJSON(t, router, http.MethodGet, "/api/mindmaps?latest=true", user.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgNoMindmap, decodeMessage(t, w))

	doc := map[string]interface{}{
		"title": "Trip",
		"nodes": []model.Node{
			model.RootNode(),
			{ID: "c1", X: 550, Y: 300, Title: "Flights", Color: "#3B82F6"},
		},
		"connections": []model.Connection{{From: "1", To: "c1"}},
		"viewState":   model.ViewState{TranslateX: 5, TranslateY: 6},
	}
	w = doJSON(t, router, http.MethodPost, "/api/mindmaps", user.Token, doc)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Mindmap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Trip", created.Title)
	assert.Len(t, created.Nodes, 2)

	w = doJSON(t, router, http.MethodGet, "/api/mindmaps/"+created.ID, user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched model.Mindmap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created.Nodes, fetched.Nodes)
	assert.Equal(t, created.Connections, fetched.Connections)
	assert.Equal(t, model.ViewState{TranslateX: 5, TranslateY: 6}, fetched.ViewState)

	// Partial update keeps the nodes
	w = doJSON(t, router, http.MethodPut, "/api/mindmaps/"+created.ID, user.Token, map[string]interface{}{"title": "Trip 2"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.Mindmap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Trip 2", updated.Title)
	assert.Len(t, updated.Nodes, 2)

	w = doJSON(t, router, http.MethodGet, "/api/mindmaps?latest=true", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Trip 2")

	w = doJSON(t, router, http.MethodGet, "/api/mindmaps", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.MindmapSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].NodeCount)

	w = doJSON(t, router, http.MethodDelete, "/api/mindmaps/"+created.ID, user.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/mindmaps/"+created.ID, user.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateMindmap_Defaults(t *testing.T) {
	router := newTestRouter(t)
	user := registerUser(t, router, "defaults@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/mindmaps", user.Token, map[string]interface{}{})
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Mindmap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, model.StoredDefaultTitle, created.Title)
	require.Len(t, created.Nodes, 1)
	assert.True(t, created.Nodes[0].IsRoot)
}

func TestUpdateMindmap_InvalidGraph(t *testing.T) {
	router := newTestRouter(t)
	user := registerUser(t, router, "invalid@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/mindmaps", user.Token, map[string]interface{}{})
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Mindmap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPut, "/api/mindmaps/"+created.ID, user.Token, map[string]interface{}{
		"connections": []model.Connection{{From: "1", To: "missing"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/mindmaps/"+created.ID, user.Token, map[string]interface{}{
		"nodes": []model.Node{{ID: "x", Title: "no root"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMindmapOwnership(t *testing.T) {
	router := newTestRouter(t)
	alice := registerUser(t, router, "alice@example.com")
	bob := registerUser(t, router, "bob@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/mindmaps", alice.Token, map[string]interface{}{"title": "private"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.Mindmap
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := doJSON(t, router, method, "/api/mindmaps/"+created.ID, bob.Token, map[string]interface{}{"title": "mine"})
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}

	w = doJSON(t, router, http.MethodGet, "/api/mindmaps/"+created.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "private")
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/mindmaps", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// same-machine tools send no Origin at all
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSAnyOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"*"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://anywhere.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := newIPRateLimiter(0.001, 2, time.Minute)

	router := gin.New()
	router.POST("/login", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "metrics@example.com")

	w := doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "mindnoscape_http_requests_total"))
	assert.True(t, strings.Contains(body, `mindnoscape_data_events_total{type="user_registered"} 1`))
	assert.True(t, strings.Contains(body, "mindnoscape_auth_active_sessions 1"))
}
