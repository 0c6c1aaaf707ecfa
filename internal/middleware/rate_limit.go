package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimitConfig describes a token bucket per caller.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
	Metrics   *service.MetricsService
	Logger    *zap.Logger
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func newLimiterStore(perMinute, burst int) *limiterStore {
	return &limiterStore{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		now:      time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.visitors {
		if now.Sub(v.lastSeen) > limiterIdleTTL {
			delete(s.visitors, k)
		}
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimit throttles callers, keyed by user id when authenticated and by client IP otherwise.
// A non-positive PerMinute disables limiting.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.PerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	store := newLimiterStore(cfg.PerMinute, cfg.Burst)
	retrySeconds := int((time.Minute / time.Duration(cfg.PerMinute)).Seconds() + 0.5)
	if retrySeconds < 1 {
		retrySeconds = 1
	}
	retryAfter := strconv.Itoa(retrySeconds)

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if claims, ok := CurrentUser(c); ok && claims.UserID != "" {
			key = "user:" + claims.UserID
		}

		if !store.get(key).Allow() {
			cfg.Metrics.IncRateLimited()
			cfg.Logger.Warn("rate limit exceeded", zap.String("key", key), zap.String("path", c.FullPath()))
			c.Header("Retry-After", retryAfter)
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
