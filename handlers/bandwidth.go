package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// throttleChunk is the maximum number of bytes written in a single pass
// through the rate limiter. Smaller values give smoother limiting;
// 32 KiB balances accuracy against syscall overhead.
const throttleChunk = 32 * 1024

// Throttle enforces a server-wide download bandwidth cap shared fairly
// across unique client IPs. Each IP receives an equal share of the
// total cap regardless of how many concurrent transfers it has open, so
// a download manager opening parallel connections cannot claim more
// than one share. Shares are rebalanced synchronously on every
// connect/disconnect.
type Throttle struct {
	mu       sync.Mutex
	limitBps float64             // total cap in bytes/sec (0 = unlimited)
	shares   map[string]*ipShare // keyed by remote IP
}

type ipShare struct {
	limiter *rate.Limiter
	refs    int // number of active transfers from this IP
}

// NewThrottle creates a throttle with the given total cap in bytes per
// second. Pass 0 to disable rate limiting entirely.
func NewThrottle(bytesPerSec float64) *Throttle {
	return &Throttle{
		limitBps: bytesPerSec,
		shares:   make(map[string]*ipShare),
	}
}

// Wrap returns an http.Handler that applies bandwidth limiting to h.
// When no cap is set, h is returned unchanged with zero overhead.
func (t *Throttle) Wrap(h http.Handler) http.Handler {
	if t.limitBps == 0 {
		return h
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		limiter := t.join(ip)
		defer t.leave(ip)

		h.ServeHTTP(&throttledWriter{
			ResponseWriter: w,
			ctx:            r.Context(),
			limiter:        limiter,
		}, r)
	})
}

// join registers a new transfer for ip and returns its limiter,
// rebalancing every active share for the new participant count.
func (t *Throttle) join(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.shares[ip]
	if !ok {
		// Placeholder rate; rebalance sets the real value right after.
		s = &ipShare{limiter: rate.NewLimiter(1, throttleChunk)}
		t.shares[ip] = s
	}
	s.refs++
	t.rebalanceLocked()
	return s.limiter
}

// leave decrements the transfer count for ip, drops the share when it
// reaches zero, and rebalances the remaining peers.
func (t *Throttle) leave(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.shares[ip]
	if !ok {
		return
	}
	s.refs--
	if s.refs <= 0 {
		delete(t.shares, ip)
	}
	t.rebalanceLocked()
}

// rebalanceLocked recalculates the per-IP byte rate and applies it to
// every active limiter. Must be called with t.mu held.
func (t *Throttle) rebalanceLocked() {
	n := len(t.shares)
	if n == 0 || t.limitBps == 0 {
		return
	}
	perIP := rate.Limit(t.limitBps / float64(n))
	for _, s := range t.shares {
		s.limiter.SetLimit(perIP)
		// Burst = one chunk so the limiter stays responsive but never
		// hands out more than one write-buffer worth of free data.
		s.limiter.SetBurst(throttleChunk)
	}
	log.Printf("rate rebalance  peers=%-2d  alloc=%s/s each", n, formatSize(int64(t.limitBps/float64(n))))
}

// throttledWriter wraps http.ResponseWriter and throttles Write calls
// through a token-bucket rate limiter.
type throttledWriter struct {
	http.ResponseWriter
	ctx     context.Context
	limiter *rate.Limiter
}

func (tw *throttledWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		select {
		case <-tw.ctx.Done():
			return total, tw.ctx.Err()
		default:
		}

		n := len(p)
		if n > throttleChunk {
			n = throttleChunk
		}

		if err := tw.limiter.WaitN(tw.ctx, n); err != nil {
			return total, err
		}

		written, err := tw.ResponseWriter.Write(p[:n])
		total += written
		if err != nil {
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}

// ReadFrom routes io.Copy (used internally by http.ServeContent and
// zip.Writer) through the throttled Write method rather than letting it
// bypass the limiter via the faster ReadFrom path.
func (tw *throttledWriter) ReadFrom(src io.Reader) (int64, error) {
	buf := make([]byte, throttleChunk)
	var total int64
	for {
		select {
		case <-tw.ctx.Done():
			return total, tw.ctx.Err()
		default:
		}

		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := tw.Write(buf[:nr])
			total += int64(nw)
			if werr != nil {
				return total, werr
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return total, nil
			}
			return total, rerr
		}
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (tw *throttledWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}
