package middleware

import (
	"net/http"
	"strconv"
	"time"

	"harvest-settlement/internal/core/ports"
	"harvest-settlement/pkg/apperror"
	"harvest-settlement/pkg/logger"
	"harvest-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CtxFailureLimit holds the *ports.RateLimitResult read before the handler ran.
const CtxFailureLimit = "failure_limit"

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// SignatureFailureLimiter counts signature failures per client IP. It never refuses
// a request on its own: the handler answers through RejectSignature once verification
// has failed, so a correctly signed delivery always reaches the router.
func SignatureFailureLimiter(counter ports.FailureCounter, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := "sigfail:" + c.ClientIP()
		l := logger.FromContext(ctx, log)

		result, err := counter.Peek(ctx, key, rule.Limit, rule.Window)
		if err != nil {
			l.Warn().Err(err).Msg("signature failure counter unavailable, not throttling (degraded mode)")
		} else {
			c.Set(CtxFailureLimit, result)
		}

		c.Next()

		if c.Writer.Status() != http.StatusUnauthorized {
			return
		}
		hit, err := counter.Hit(ctx, key, rule.Limit, rule.Window)
		if err != nil {
			l.Warn().Err(err).Msg("failed to count signature failure")
			return
		}
		if !hit.Allowed {
			l.Warn().Str("client_ip", c.ClientIP()).Int64("limit", hit.Limit).Msg("signature failure limit reached")
		}
	}
}

// RejectSignature answers a delivery that failed verification: 401, or 429 when the
// client was already over its failure limit as read by SignatureFailureLimiter.
func RejectSignature(c *gin.Context, cause error) {
	v, ok := c.Get(CtxFailureLimit)
	result, _ := v.(*ports.RateLimitResult)
	if !ok || result == nil || result.Allowed {
		response.Rejected(c, cause)
		return
	}

	setRateLimitHeaders(c, result)
	retryAfter := result.ResetAt - time.Now().Unix()
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
	if reason, ok := c.Get(CtxRejection); ok {
		if s, ok := reason.(string); ok {
			c.Set(CtxRejection, "rate limited: "+s)
		}
	}
	response.Rejected(c, apperror.ErrRateLimitExceeded())
}

func setRateLimitHeaders(c *gin.Context, result *ports.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))
}
