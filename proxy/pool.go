// Package proxy holds the static proxy pool used for scrape attempts.
//
// The pool is read once from configuration at process start and is immutable
// afterward, so concurrent scrapes can share it without locking. Selection
// is random and attempts are not proxy-sticky: each retry independently
// re-picks, which is the whole point of rotating past a blocked exit.
package proxy

import "math/rand/v2"

// Pool is an immutable set of proxy addresses.
type Pool struct {
	addrs []string
	pick  func(n int) int
}

// NewPool creates a Pool over the given addresses. The slice is copied;
// callers cannot mutate the pool afterward. An empty pool is valid and
// means "direct connection".
func NewPool(addrs []string) *Pool {
	p := &Pool{
		addrs: make([]string, len(addrs)),
		pick:  rand.IntN,
	}
	copy(p.addrs, addrs)
	return p
}

// Pick returns a random address from the pool, or "" when the pool is
// empty (direct connection, may be blocked by the upstream).
func (p *Pool) Pick() string {
	if len(p.addrs) == 0 {
		return ""
	}
	return p.addrs[p.pick(len(p.addrs))]
}

// Size returns the number of configured addresses.
func (p *Pool) Size() int {
	return len(p.addrs)
}
