package worker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCells(t *testing.T) {
	t.Run("visits every cell exactly once", func(t *testing.T) {
		for _, workers := range []int{0, 1, 3, 16} {
			var mu sync.Mutex
			seen := map[[2]int]int{}
			Cells(5, 4, workers, func(iy, ix int) {
				mu.Lock()
				seen[[2]int{iy, ix}]++
				mu.Unlock()
			})
			assert.Len(t, seen, 20, "workers=%d", workers)
			for cell, n := range seen {
				assert.Equal(t, 1, n, "cell %v workers=%d", cell, workers)
			}
		}
	})

	t.Run("empty grid", func(t *testing.T) {
		called := false
		Cells(0, 4, 2, func(iy, ix int) { called = true })
		assert.False(t, called)
	})
}
