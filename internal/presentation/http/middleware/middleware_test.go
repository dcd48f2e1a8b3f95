package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/resona/rental-api/internal/config"
	"github.com/resona/rental-api/internal/domain/entity"
	"github.com/resona/rental-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryIdempotencyRepo struct {
	mu    sync.Mutex
	keys  map[string]*entity.IdempotencyKey
	err   error
	saves int
}

func newMemoryIdempotencyRepo() *memoryIdempotencyRepo {
	return &memoryIdempotencyRepo{keys: map[string]*entity.IdempotencyKey{}}
}

func scope(userID uuid.UUID, endpoint, key string) string {
	return userID.String() + "|" + endpoint + "|" + key
}

func (r *memoryIdempotencyRepo) Get(_ context.Context, userID uuid.UUID, endpoint, key string) (*entity.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.keys[scope(userID, endpoint, key)], nil
}

func (r *memoryIdempotencyRepo) Save(_ context.Context, ikey *entity.IdempotencyKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[scope(ikey.UserID, ikey.Endpoint, ikey.Key)] = ikey
	r.saves++
	return nil
}

func (r *memoryIdempotencyRepo) DeleteExpired(context.Context) (int64, error) { return 0, nil }

type staticRevocation bool

func (s staticRevocation) IsRevoked(context.Context, string) (bool, error) { return bool(s), nil }

func reason(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body.Reason
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(config.RateLimitConfig{Requests: 2, Duration: 60})
	defer rl.Stop()

	router := gin.New()
	router.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":4000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := send("10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}

	w := send("10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if got := reason(t, w); got != "RATE_LIMITED" {
		t.Errorf("reason = %q", got)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
	}

	if w := send("10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}
}

func TestIPRateLimiterCleanup(t *testing.T) {
	rl := NewIPRateLimiter(config.RateLimitConfig{Requests: 1, Duration: 1})
	defer rl.Stop()

	rl.getLimiter("10.0.0.1")
	rl.limiters["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	rl.getLimiter("10.0.0.2")

	rl.cleanup()

	if _, ok := rl.limiters["10.0.0.1"]; ok {
		t.Error("stale entry was not removed")
	}
	if _, ok := rl.limiters["10.0.0.2"]; !ok {
		t.Error("fresh entry was removed")
	}
}

func TestRequireRoleAndPermission(t *testing.T) {
	tests := []struct {
		name        string
		roles       []string
		permissions []string
		want        int
	}{
		{"admin with permission", []string{"admin"}, []string{"manage-quotes"}, http.StatusOK},
		{"admin without permission", []string{"admin"}, nil, http.StatusForbidden},
		{"customer role", []string{"customer"}, []string{"manage-quotes"}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/",
				func(c *gin.Context) {
					c.Set("user_roles", tt.roles)
					c.Set("user_permissions", tt.permissions)
				},
				RequireRole("super-admin", "admin"),
				RequirePermission("manage-quotes"),
				func(c *gin.Context) { c.Status(http.StatusOK) },
			)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := utils.NewJWTManager("test-secret", time.Hour, time.Hour)
	token, err := jwtManager.GenerateAccessToken(uuid.New(), "admin@resona.test", []string{"admin"}, nil)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		revoked bool
		want    int
	}{
		{"valid token", "Bearer " + token, false, http.StatusOK},
		{"revoked token", "Bearer " + token, true, http.StatusUnauthorized},
		{"missing header", "", false, http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, false, http.StatusUnauthorized},
		{"garbage token", "Bearer abc", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", AuthMiddleware(jwtManager, staticRevocation(tt.revoked)), func(c *gin.Context) {
				if c.GetString("access_token") != token {
					t.Error("access token not stored in context")
				}
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func idempotentRouter(repo *memoryIdempotencyRepo, required bool, userID uuid.UUID, calls *int, status int) *gin.Engine {
	router := gin.New()
	router.POST("/",
		func(c *gin.Context) { c.Set("user_id", userID) },
		Idempotency(IdempotencyConfig{Repo: repo, Required: required}),
		func(c *gin.Context) {
			*calls++
			c.JSON(status, gin.H{"call": *calls})
		},
	)
	return router
}

func post(router *gin.Engine, key string) *httptest.ResponseRecorder {
	return postBody(router, key, "")
}

func postBody(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysSuccessfulResponse(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	calls := 0
	router := idempotentRouter(repo, true, uuid.New(), &calls, http.StatusCreated)

	first := post(router, "k1")
	second := post(router, "k1")

	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("replay = %d %s, want %d %s", second.Code, second.Body.String(), first.Code, first.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("replay header missing")
	}
}

func TestIdempotencyRejectsReusedKey(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	calls := 0
	router := idempotentRouter(repo, true, uuid.New(), &calls, http.StatusCreated)

	postBody(router, "k1", `{"quote":1}`)
	w := postBody(router, "k1", `{"quote":2}`)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	if got := reason(t, w); got != "IDEMPOTENCY_KEY_REUSED" {
		t.Errorf("reason = %q", got)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}

	other := idempotentRouter(repo, true, uuid.New(), &calls, http.StatusCreated)
	if w := postBody(other, "k1", `{"quote":2}`); w.Code != http.StatusCreated || w.Header().Get(IdempotencyReplayedHeader) != "" {
		t.Errorf("key from another user was replayed: %d", w.Code)
	}
}

func TestIdempotencyDoesNotStoreFailures(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	calls := 0
	router := idempotentRouter(repo, true, uuid.New(), &calls, http.StatusBadRequest)

	post(router, "k1")
	post(router, "k1")

	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
	if repo.saves != 0 {
		t.Errorf("stored %d keys, want 0", repo.saves)
	}
}

func TestIdempotencyKeyRequirement(t *testing.T) {
	calls := 0

	required := idempotentRouter(newMemoryIdempotencyRepo(), true, uuid.New(), &calls, http.StatusOK)
	w := post(required, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := reason(t, w); got != "IDEMPOTENCY_KEY_REQUIRED" {
		t.Errorf("reason = %q", got)
	}

	optional := idempotentRouter(newMemoryIdempotencyRepo(), false, uuid.New(), &calls, http.StatusOK)
	if w := post(optional, ""); w.Code != http.StatusOK {
		t.Errorf("optional status = %d, want 200", w.Code)
	}
	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
}

func TestIdempotencyLookupFailure(t *testing.T) {
	repo := newMemoryIdempotencyRepo()
	repo.err = errors.New("database is down")
	calls := 0
	router := idempotentRouter(repo, false, uuid.New(), &calls, http.StatusOK)

	if w := post(router, "k1"); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if calls != 0 {
		t.Error("handler ran despite the failed lookup")
	}
}

func TestCORSExposesDownloadHeaders(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware(&config.CORSConfig{AllowedOrigins: []string{"https://shop.resona.test"}}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.resona.test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.resona.test" {
		t.Errorf("allow origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Content-Disposition") {
		t.Errorf("expose headers = %q", got)
	}
}

func TestAppendMissingHeader(t *testing.T) {
	base := []string{"Authorization"}
	got := appendMissing(base, IdempotencyKeyHeader)
	if len(got) != 2 || got[1] != IdempotencyKeyHeader {
		t.Errorf("appendMissing = %v", got)
	}
	if got := appendMissing([]string{"idempotency-key"}, IdempotencyKeyHeader); len(got) != 1 {
		t.Errorf("duplicate header added: %v", got)
	}
	if len(base) != 1 {
		t.Error("input slice modified")
	}
}
