package shopify

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiters holds one token bucket per store credential so that every client
// talking to the same store shares the same budget.
var limiters sync.Map

func credentialKey(domain, token string) string {
	return domain + "\x00" + token
}

// sharedLimiter returns the limiter registered for the credential, creating
// it on first use. perSecond <= 0 disables limiting.
func sharedLimiter(domain, token string, perSecond float64, burst int) *rate.Limiter {
	key := credentialKey(domain, token)
	if l, ok := limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	l, _ := limiters.LoadOrStore(key, rate.NewLimiter(limit, burst))
	return l.(*rate.Limiter)
}
