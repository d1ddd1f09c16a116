package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	bucketTTL  = 5 * time.Minute
	sweepEvery = time.Minute
	unknownIP  = "unknown"
)

// maxBuckets acota la memoria del limiter. Con el mapa lleno se barre en el
// momento y, si sigue lleno, las IPs nuevas reciben 429.
var maxBuckets = 10000

// RateLimit: token bucket por IP de cliente (RemoteAddr). RemoteAddr solo
// se reescribe con headers de proxy si el router confía en ellos.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	type bucket struct {
		lim  *rate.Limiter
		seen time.Time
	}

	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastSweep = time.Now()
		capacity  = maxBuckets
	)

	allow := func(ip string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		sweep := func() {
			for k, b := range buckets {
				if now.Sub(b.seen) > bucketTTL {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		if now.Sub(lastSweep) > sweepEvery {
			sweep()
		}

		b, ok := buckets[ip]
		if !ok {
			if len(buckets) >= capacity {
				sweep()
				if len(buckets) >= capacity {
					return false
				}
			}
			b = &bucket{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
			buckets[ip] = b
		}
		b.seen = now
		return b.lim.AllowN(now, 1)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(clientIP(r), time.Now()) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return unknownIP
	}
	return host
}
