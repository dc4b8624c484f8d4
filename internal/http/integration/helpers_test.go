package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/config"
	apphttp "github.com/geocoder89/userhub/internal/http"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/geocoder89/userhub/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		AuthRateLimit:       100,
		CORSOrigins:         []string{"*"},
		MaxBodyBytes:        1 << 20,
	}
}

type harness struct {
	router *gin.Engine
	tokens *auth.Manager
	users  *services.UserService
}

// newHarness wires the real services over store, the way cmd/api does.
func newHarness(t *testing.T, cfg config.Config, store services.UserStore, readies map[string]handlers.Pinger) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hasher := security.NewHasher(bcrypt.MinCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	prom := observability.NewProm(prometheus.NewRegistry())

	usersSvc := services.NewUserService(store, hasher, cache.NewMemoryUsers(time.Minute), logger)

	authSvc, err := services.NewAuthService(store, hasher, tokens, prom, logger)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	router := apphttp.NewRouter(apphttp.Deps{
		Config:  cfg,
		Log:     logger,
		Users:   usersSvc,
		Auth:    authSvc,
		Tokens:  tokens,
		Prom:    prom,
		Readies: readies,
	})

	return harness{router: router, tokens: tokens, users: usersSvc}
}

// function that runs a request and returns the recorder

func doRequest(router http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		Error handlers.APIError `json:"error"`
	}
	mustReadJSON(t, w, &resp)
	return resp.Error.Code
}
