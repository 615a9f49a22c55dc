// Defines the read and write tiers applied to API routes.

package ratelimit

import (
	"net/http"
	"strings"
	"time"

	"github.com/maruel/propertyhub/internal/config"
)

// Tier is a named limiter. Buckets are keyed by client IP.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Tiers holds the limiters of the API. A nil tier is unlimited.
type Tiers struct {
	Read  *Tier
	Write *Tier
}

// NewTiers builds the tiers from the configured limits. The burst is a tenth
// of the per-minute rate, at least one request.
func NewTiers(limits config.RateLimits) *Tiers {
	return &Tiers{
		Read:  newTier("read", limits.ReadRatePerMin),
		Write: newTier("write", limits.WriteRatePerMin),
	}
}

func newTier(name string, perMin int) *Tier {
	if perMin <= 0 {
		return nil
	}
	return &Tier{Name: name, Limiter: NewLimiter(perMin, time.Minute, max(perMin/10, 1))}
}

// Match returns the tier for a request, or nil for unthrottled routes.
func (t *Tiers) Match(method, path string) *Tier {
	if t == nil || path == "/api/health" || !strings.HasPrefix(path, "/api/") {
		return nil
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		return t.Read
	default:
		return t.Write
	}
}

// Close stops the limiters.
func (t *Tiers) Close() {
	if t == nil {
		return
	}
	for _, tier := range []*Tier{t.Read, t.Write} {
		if tier != nil {
			tier.Limiter.Close()
		}
	}
}

// BuildKey creates a bucket key from the client identifier and tier name.
func BuildKey(identifier, tierName string) string {
	return "ip:" + identifier + ":" + tierName
}
