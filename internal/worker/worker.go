// Package worker provides the bounded parallel-map over grid cells used by
// the adjustment engines. Cells are independent, so rows are fanned out to a
// fixed pool and joined with a WaitGroup; no ordering is required.
package worker

import (
	"runtime"
	"sync"
)

// Cells invokes fn(iy, ix) for every cell of an ny-by-nx grid, parallelized
// across rows. workers of 0 or less uses GOMAXPROCS. fn must only write to
// state owned by its own cell.
func Cells(ny, nx, workers int, fn func(iy, ix int)) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > ny {
		workers = ny
	}
	if workers <= 1 {
		for iy := 0; iy < ny; iy++ {
			for ix := 0; ix < nx; ix++ {
				fn(iy, ix)
			}
		}
		return
	}

	rows := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for iy := range rows {
				for ix := 0; ix < nx; ix++ {
					fn(iy, ix)
				}
			}
		}()
	}
	for iy := 0; iy < ny; iy++ {
		rows <- iy
	}
	close(rows)
	wg.Wait()
}
