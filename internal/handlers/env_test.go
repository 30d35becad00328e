package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rafiqulislamrabbii/expensetracker/internal/auth"
	"github.com/rafiqulislamrabbii/expensetracker/internal/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	users    *memUserStore
	data     *fakeStore
	issuer   *auth.Issuer
	verifier *auth.Verifier
	router   *gin.Engine
	stats    *StatsHandler
}

func newTestEnv(t *testing.T, loginLimit int) *testEnv {
	t.Helper()

	keys := auth.Keys{
		Access:  []byte("access-secret-for-tests"),
		Refresh: []byte("refresh-secret-for-tests"),
	}
	issuer := auth.NewIssuer(keys, 15*time.Minute, 7*24*time.Hour, "expensetracker")
	verifier := auth.NewVerifier(keys)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := NewMetrics(prometheus.NewRegistry())
	limiter := rate.NewMemory(loginLimit, time.Minute)

	users := newMemUserStore()
	data := newFakeStore()

	router := gin.New()
	NewAuthHandler(users, logger, issuer, verifier, limiter, metrics, false).RegisterRoutes(router)
	NewTransactionsHandler(data, logger, metrics).RegisterRoutes(router, verifier)
	NewCategoriesHandler(data, logger).RegisterRoutes(router, verifier)
	stats := NewStatsHandler(data, logger)
	stats.RegisterRoutes(router, verifier)

	return &testEnv{
		users:    users,
		data:     data,
		issuer:   issuer,
		verifier: verifier,
		router:   router,
		stats:    stats,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	env := decodeEnvelope(t, rec)
	if env["success"] != true {
		t.Fatalf("expected success envelope, got %q", rec.Body.String())
	}
	data, ok := env["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %q", rec.Body.String())
	}
	return data
}

// registerUser creates an account through the API and returns its id,
// access token and the refresh cookie.
func (e *testEnv) registerUser(t *testing.T, name, email, password string) (string, string, *http.Cookie) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register returned %d: %s", rec.Code, rec.Body.String())
	}

	data := dataField(t, rec)
	access, _ := data["accessToken"].(string)
	user, _ := data["user"].(map[string]any)
	id, _ := user["id"].(string)
	if access == "" || id == "" {
		t.Fatalf("register response missing token or id: %s", rec.Body.String())
	}

	var refresh *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshTokenCookie {
			refresh = cookie
		}
	}
	return id, access, refresh
}
