package ndvi

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// rowBand is a half-open range of rows [start, end)
type rowBand struct {
	start, end int
}

// splitRows splits [0, height) into at most GOMAXPROCS contiguous bands
func splitRows(height int) []rowBand {
	workers := min(max(runtime.GOMAXPROCS(0), 1), height)
	if workers < 1 {
		return nil
	}
	step := (height + workers - 1) / workers
	bands := make([]rowBand, 0, workers)
	for y := 0; y < height; y += step {
		bands = append(bands, rowBand{start: y, end: min(y+step, height)})
	}
	return bands
}

// forEachBand runs fn concurrently for every band, at most GOMAXPROCS at a time.
// fn may only write rows inside its band.
func forEachBand(bands []rowBand, fn func(i int, b rowBand)) {
	var g errgroup.Group
	g.SetLimit(max(runtime.GOMAXPROCS(0), 1))
	for i, b := range bands {
		g.Go(func() error {
			fn(i, b)
			return nil
		})
	}
	// fn cannot fail, Wait only joins the workers
	_ = g.Wait()
}
