package memo

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_ComputesOnce(t *testing.T) {
	var m Value[int]
	calls := 0

	assert.Equal(t, 42, m.Get(func() int { calls++; return 42 }))
	assert.Equal(t, 42, m.Get(func() int { calls++; return 7 }))
	assert.Equal(t, 1, calls)
}

func TestValue_ConcurrentCallersShareResult(t *testing.T) {
	var m Value[*int]
	var calls atomic.Int32

	var wg sync.WaitGroup
	results := make([]*int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Get(func() *int {
				calls.Add(1)
				v := i
				return &v
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestValue_RetriesAfterPanic(t *testing.T) {
	var m Value[string]

	assert.Panics(t, func() {
		m.Get(func() string { panic("boom") })
	})
	assert.Equal(t, "ok", m.Get(func() string { return "ok" }))
}

func TestKeyed_PerKey(t *testing.T) {
	var m Keyed[string, int]
	calls := map[string]int{}

	get := func(k string) int {
		return m.Get(k, func() int {
			calls[k]++
			return len(k)
		})
	}

	assert.Equal(t, 1, get("a"))
	assert.Equal(t, 3, get("abc"))
	assert.Equal(t, 1, get("a"))
	assert.Equal(t, map[string]int{"a": 1, "abc": 1}, calls)
	assert.Equal(t, 2, m.Len())
}

func TestKeyed_NestedKeys(t *testing.T) {
	var m Keyed[int, int]
	var fib func(n int) int
	fib = func(n int) int {
		return m.Get(n, func() int {
			if n < 2 {
				return n
			}
			return fib(n-1) + fib(n-2)
		})
	}

	assert.Equal(t, 55, fib(10))
}
