package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/healththreads/timeline/pkg/response"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterSweepInterval = time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool 按客户端 IP 维护限流器，空闲条目定期回收
type limiterPool struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	byIP  map[string]*ipLimiter
}

func newLimiterPool(rps rate.Limit, burst int) *limiterPool {
	return &limiterPool{rps: rps, burst: burst, byIP: make(map[string]*ipLimiter)}
}

func (p *limiterPool) get(ip string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byIP[ip]
	if !ok {
		e = &ipLimiter{limiter: rate.NewLimiter(p.rps, p.burst)}
		p.byIP[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// evictIdle 删除超过 ttl 未出现的 IP
func (p *limiterPool) evictIdle(now time.Time, ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ip, e := range p.byIP {
		if now.Sub(e.lastSeen) > ttl {
			delete(p.byIP, ip)
		}
	}
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byIP)
}

// RateLimit 按客户端 IP 限流写接口
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	pool := newLimiterPool(rps, burst)
	go func() {
		for range time.Tick(limiterSweepInterval) {
			pool.evictIdle(time.Now(), limiterIdleTTL)
		}
	}()
	return func(c *gin.Context) {
		if !pool.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Code:    http.StatusTooManyRequests,
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}
