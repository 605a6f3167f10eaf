package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
	"mindnoscape/web-app/src/pkg/session"
)

const sessionKey = "mindnoscape_session"

// SetSession stores the authenticated session in the gin context.
func SetSession(c *gin.Context, s *model.Session) {
	c.Set(sessionKey, s)
}

// GetSession returns the session stored by AuthRequired, or nil.
func GetSession(c *gin.Context) *model.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*model.Session)
	return s
}

// extractBearerToken returns the token of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func extractBearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// AuthRequired rejects requests without a live bearer session with 401.
func AuthRequired(sm *session.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractBearerToken(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		s, err := sm.SessionGet(c.Request.Context(), token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, msgInvalidToken)
			return
		}
		SetSession(c, s)
		c.Next()
	}
}

// RequestLogger logs every request and feeds the HTTP metrics.
func RequestLogger(logger *log.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		if metrics != nil {
			metrics.ObserveRequest(c.Request.Method, route, status, elapsed)
		}

		fields := log.Fields{
			"method":   c.Request.Method,
			"route":    route,
			"status":   status,
			"duration": elapsed.String(),
		}
		if s := GetSession(c); s != nil {
			fields["userID"] = s.User.ID
		}
		if status >= http.StatusInternalServerError {
			logger.Error(c.Request.Context(), "HTTP request", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}

// CORS allows the configured frontend origins. An entry of "*" allows any
// origin; requests from other origins are refused with 403.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	if allowed["*"] {
		cfg.AllowAllOrigins = true
	} else {
		// a func keeps an empty or unusual list from failing config validation
		cfg.AllowOriginFunc = func(origin string) bool { return allowed[origin] }
	}
	return cors.New(cfg)
}

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(perSecond float64, burst int, ttl time.Duration) *ipRateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		limiters: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		ttl:      ttl,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.limiters, key)
		}
	}

	v, ok := l.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

// RateLimit answers 429 once a client IP exhausts its bucket.
func RateLimit(l *ipRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			respondError(c, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}
		c.Next()
	}
}
