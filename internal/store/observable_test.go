package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainer(t *testing.T) {
	t.Run("subscribers see concurrent updates in mutation order", func(t *testing.T) {
		var c container[int]
		c.init(0, func(n int) int { return n })

		var mu sync.Mutex
		var seen []int
		cancel := c.Subscribe(func(n int) {
			mu.Lock()
			seen = append(seen, n)
			mu.Unlock()
		})
		defer cancel()

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					c.update(func(n *int) { *n++ })
				}
			}()
		}
		wg.Wait()

		require.Len(t, seen, 800)
		for i, n := range seen {
			if n != i+1 {
				t.Fatalf("snapshot %d published out of order: got %d", i, n)
			}
		}
		assert.Equal(t, 800, c.Snapshot())
	})

	t.Run("cancel stops delivery", func(t *testing.T) {
		var c container[int]
		c.init(0, func(n int) int { return n })

		calls := 0
		cancel := c.Subscribe(func(int) { calls++ })
		c.update(func(n *int) { *n = 1 })
		cancel()
		c.update(func(n *int) { *n = 2 })

		assert.Equal(t, 1, calls)
	})
}
