package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/config"
	"dvms-arcade-backend/internal/engine"
	"dvms-arcade-backend/internal/handlers"
	"dvms-arcade-backend/internal/models"
	"dvms-arcade-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testCards = []models.Card{
	{ID: "slime", Title: "Slime", Rarity: "Common", Value: 5, Image: "slime.png"},
	{ID: "goblin", Title: "Goblin", Rarity: "Common", Value: 6, Image: "goblin.png"},
}

type testServer struct {
	router *gin.Engine
	cfg    *config.Config
}

type serverOption func(*config.Config)

func withRequestLimit(limit int) serverOption {
	return func(cfg *config.Config) { cfg.RequestRateLimit = limit }
}

func withPublicDir(dir string) serverOption {
	return func(cfg *config.Config) { cfg.PublicDir = dir }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	logger := zap.NewNop()

	cfg := &config.Config{
		Env:                "test",
		StorageDriver:      config.DriverFile,
		DBFile:             filepath.Join(t.TempDir(), "db.json"),
		PublicDir:          t.TempDir(),
		DefaultUserID:      "default-user-id",
		JWTSecret:          "test-secret",
		JWTTTL:             time.Hour,
		RequestRateLimit:   1000,
		RequestRateWindow:  time.Minute,
		SessionIdleTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store, err := services.NewFileStore(cfg.DBFile, cfg.DefaultUserID, logger)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	cards, err := engine.NewCatalog(testCards)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	settings := config.DefaultGameSettings()
	settings.Gacha.RarityWeights = []engine.RarityWeight{{Rarity: "Common", Weight: 1}}

	games, err := services.NewGameService(store, services.NewMemoryHistory(), cards, settings, logger)
	if err != nil {
		t.Fatalf("NewGameService failed: %v", err)
	}
	ws := handlers.NewWebSocketHandler(games, logger)
	games.SetBroadcaster(ws)

	router := handlers.NewRouter(handlers.RouterDeps{
		Config:    cfg,
		Games:     games,
		JWT:       services.NewJWTService(cfg),
		Limiter:   services.NewMemoryRequestLimiter(cfg.RequestRateLimit, cfg.RequestRateWindow),
		WebSocket: ws,
		Logger:    logger,
	})
	return &testServer{router: router, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) saveBalance(t *testing.T, balance float64, token string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/save-user-data", gin.H{"balance": balance, "inventory": gin.H{}}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("save-user-data: status %d, body %s", w.Code, w.Body.String())
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

type errorBody struct {
	Error      string  `json:"error"`
	Code       string  `json:"code"`
	RetryAfter float64 `json:"retry_after"`
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) errorBody {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var body errorBody
	decode(t, w, &body)
	if body.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, body.Code, body.Error)
	}
	return body
}
