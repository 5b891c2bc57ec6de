package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/undercontrol/storefront/internal/config"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/domain/checkout"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/domain/pricing"
	"github.com/undercontrol/storefront/internal/domain/session"
	"github.com/undercontrol/storefront/internal/infrastructure/storage"
	"github.com/undercontrol/storefront/internal/pkg/auth"
	"github.com/undercontrol/storefront/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	cfg := config.FromEnv()
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.Session.CookieName = "session_token"
	cfg.Security.CORSAllowedOrigins = []string{"https://undercontrol.dev", "*.preview.dev"}
	return cfg
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	engine := gin.New()
	engine.Use(CORS(testConfig()))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		origin string
		allow  bool
	}{
		{"https://undercontrol.dev", true},
		{"https://pr-12.preview.dev", true},
		{"https://evilpreview.dev", false},
		{"https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			w := serve(engine, req)

			if tt.allow {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://undercontrol.dev")
	assert.Equal(t, http.StatusNoContent, serve(engine, req).Code)
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "3f1c2b9e-4c7d-4f4e-9a55-1f0f9a0d2b11")
	assert.Equal(t, "3f1c2b9e-4c7d-4f4e-9a55-1f0f9a0d2b11", serve(engine, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "<script>")
	assert.NotEqual(t, "<script>", serve(engine, req).Body.String())
}

func TestRequestSizeLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestSizeLimit(8))
	engine.POST("/x", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(engine, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("small"))).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(engine, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("this is too large"))).Code)
}

func TestTimeoutSetsDeadline(t *testing.T) {
	engine := gin.New()
	engine.Use(Timeout(time.Second))
	engine.GET("/x", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestSecurityHeaders(t *testing.T) {
	engine := gin.New()
	engine.Use(SecurityHeaders("storefront"))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "storefront", w.Header().Get("Server"))
}

func TestRateLimiterLocal(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitPerMinute = 60
	cfg.Security.RateLimitBurst = 2

	limiter := NewRateLimiter(cfg, nil, logger.Discard())
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return frozen }

	engine := gin.New()
	engine.Use(limiter.Middleware())
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	w := serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	frozen = frozen.Add(time.Second)
	assert.Equal(t, http.StatusOK, serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestRateLimiterFallsBackWhenRedisDown(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitPerMinute = 60
	cfg.Security.RateLimitBurst = 1

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	limiter := NewRateLimiter(cfg, rdb, logger.Discard())
	frozen := time.Now()
	limiter.now = func() time.Time { return frozen }

	ok, _ := limiter.Allow(context.Background(), "1.2.3.4")
	assert.True(t, ok)
	ok, _ = limiter.Allow(context.Background(), "1.2.3.4")
	assert.False(t, ok)
	ok, _ = limiter.Allow(context.Background(), "5.6.7.8")
	assert.True(t, ok)
}

func newRegistry() *session.Registry {
	cat := catalogue.Default()
	return session.NewRegistry(session.Options{
		Backend:   storage.NewMemory(),
		Catalogue: cat,
		Assembler: order.NewAssembler(cat, pricing.DefaultShippingPolicy),
		Submitter: checkout.NewDirectSubmitter(nil),
		Logger:    logger.Discard(),
	})
}

func TestSessionIssuesAndReusesToken(t *testing.T) {
	cfg := testConfig()
	tokens := auth.NewSessionTokens(cfg)
	registry := newRegistry()

	engine := gin.New()
	engine.Use(Session(cfg, tokens, registry, logger.Discard()))
	engine.GET("/x", func(c *gin.Context) {
		sess, ok := SessionFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, sess.ID)
	})

	first := serve(engine, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "session_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(cookies[0])
	second := serve(engine, req)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Empty(t, second.Result().Cookies())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+cookies[0].Value)
	assert.Equal(t, first.Body.String(), serve(engine, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "forged"})
	third := serve(engine, req)
	assert.NotEqual(t, first.Body.String(), third.Body.String())
	assert.Len(t, third.Result().Cookies(), 1)
	assert.Equal(t, 2, registry.Len())
}
