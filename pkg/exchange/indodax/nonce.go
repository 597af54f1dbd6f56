package indodax

import (
	"sync"
	"time"
)

// NonceSource issues the strictly increasing nonce the trade API
// requires on every signed request. The exchange silently rejects a
// request whose nonce does not exceed the previous one for the same
// credential set, so allocation must stay monotonic under concurrent
// private calls.
//
// The counter is seeded from wall-clock milliseconds; when the clock has
// not advanced past the last issued value (same-millisecond calls or
// clock regression) the counter increments by one instead.
type NonceSource struct {
	mu   sync.Mutex
	last int64
}

// NewNonceSource creates a nonce source seeded from the current wall clock.
// One source belongs to one credential set; sharing it across credential
// sets would interleave unrelated nonce sequences.
func NewNonceSource() *NonceSource {
	return &NonceSource{last: time.Now().UnixMilli() - 1}
}

// Next returns a nonce strictly greater than every previously returned value.
func (n *NonceSource) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now().UnixMilli()
	if now > n.last {
		n.last = now
	} else {
		n.last++
	}
	return n.last
}
