package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yungbote/motionlib-backend/internal/platform/logger"
)

// LoginRateLimit throttles credential guessing per client IP: a burst of
// 5 attempts, refilling one per minute (5 attempts per 5 minutes
// sustained). Limiters for idle IPs are evicted lazily.
type LoginRateLimit struct {
	log *logger.Logger

	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

const limiterIdleEviction = 30 * time.Minute

func NewLoginRateLimit(log *logger.Logger) *LoginRateLimit {
	return &LoginRateLimit{
		log:      log.With("middleware", "LoginRateLimit"),
		limiters: make(map[string]*ipLimiter),
	}
}

func (rl *LoginRateLimit) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			rl.log.Warn("Login rate limit exceeded", "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "too many login attempts, try again later", "code": "rate_limited"},
			})
			return
		}
		c.Next()
	}
}

func (rl *LoginRateLimit) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, l := range rl.limiters {
		if now.Sub(l.lastSeen) > limiterIdleEviction {
			delete(rl.limiters, key)
		}
	}

	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{lim: rate.NewLimiter(rate.Every(time.Minute), 5)}
		rl.limiters[ip] = l
	}
	l.lastSeen = now
	return l.lim.Allow()
}
