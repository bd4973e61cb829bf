package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// LoginRateLimiter is a token bucket per login identifier and client IP,
// keeping credential stuffing off the login and OTP endpoints. Idle buckets
// are evicted after a few minutes.
type LoginRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLoginRateLimiter(perMinute, burst int) *LoginRateLimiter {
	l := &LoginRateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
	go l.evictLoop()
	return l
}

func (l *LoginRateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		now := time.Now()
		l.mu.Lock()
		for key, b := range l.buckets {
			if now.Sub(b.lastSeen) > 5*time.Minute {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

func (l *LoginRateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	return b.lim.Allow()
}

// bucketKey pairs the login identifier from the request body with the client
// IP. The body is restored so the handler can bind it again.
func bucketKey(c *gin.Context) string {
	key := c.ClientIP()
	if c.Request.Body == nil {
		return key
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return key
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var creds struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(body, &creds); err != nil {
		return key
	}
	if id := strings.ToLower(strings.TrimSpace(creds.Email + creds.Phone)); id != "" {
		key = id + "|" + key
	}
	return key
}

func (l *LoginRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(bucketKey(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Too many attempts. Try again later",
			})
			return
		}
		c.Next()
	}
}
