package kernel

import (
	"runtime"
	"sync"
)

// dispatch runs fn for every pixel, partitioned into row bands across
// workers. Units of work never communicate within a dispatch; each owns
// its own pixel exclusively, so no synchronization beyond the final
// barrier is needed.
func dispatch(width, height, workers int, fn func(x, y int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				fn(x, y)
			}
		}
		return
	}

	rows := make(chan int, height)
	for y := 0; y < height; y++ {
		rows <- y
	}
	close(rows)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for y := range rows {
				for x := 0; x < width; x++ {
					fn(x, y)
				}
			}
		}()
	}
	wg.Wait()
}
