package middleware

import (
	"strconv"
	"time"

	"github.com/fadilmartias/jobseek/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimiter throttles each client IP with a sliding window. Health probes
// are never throttled. A non-positive max disables the limiter.
func RateLimiter(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}
	return limiter.New(limiter.Config{
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/livez" || p == "/readyz"
		},
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusTooManyRequests,
				Message: "rate limit exceeded, slow down",
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
