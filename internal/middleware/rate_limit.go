package middleware

import (
	"time"

	"myinvestments-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Idle buckets are dropped after this long; a full bucket refills well within it.
const limiterIdle = 10 * time.Minute

// RateLimit allows perMinute requests per client IP with a burst of the same size.
func RateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 30
	}
	limiters := cache.New(limiterIdle, limiterIdle)
	every := rate.Every(time.Minute / time.Duration(perMinute))
	get := func(ip string) *rate.Limiter {
		if v, ok := limiters.Get(ip); ok {
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(every, perMinute)
		if err := limiters.Add(ip, l, cache.DefaultExpiration); err != nil {
			// lost the race to another request from the same ip
			if v, ok := limiters.Get(ip); ok {
				return v.(*rate.Limiter)
			}
		}
		return l
	}
	return func(c *fiber.Ctx) error {
		if !get(c.IP()).Allow() {
			log.Warn().Str("trace_id", GetTraceID(c)).Str("ip", c.IP()).Str("path", c.Path()).Msg("rate limit exceeded")
			return response.Error(c, "Too many requests, please try again later", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
