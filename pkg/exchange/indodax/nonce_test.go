package indodax

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceSource_Monotonic(t *testing.T) {
	n := NewNonceSource()

	prev := n.Next()
	for i := 0; i < 1000; i++ {
		next := n.Next()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestNonceSource_Concurrent(t *testing.T) {
	n := NewNonceSource()

	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	results := make([][]int64, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			out := make([]int64, 0, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				out = append(out, n.Next())
			}
			results[idx] = out
		}(g)
	}
	wg.Wait()

	all := make([]int64, 0, goroutines*perGoroutine)
	for _, r := range results {
		// Each goroutine must observe its own values in increasing order.
		for i := 1; i < len(r); i++ {
			assert.Greater(t, r[i], r[i-1])
		}
		all = append(all, r...)
	}

	// No nonce may be issued twice across goroutines.
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for i := 1; i < len(all); i++ {
		require.NotEqual(t, all[i-1], all[i])
	}
}
