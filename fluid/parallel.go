package fluid

import (
	"runtime"
	"sync"
)

// parallelRowThreshold is the minimum row count to split a pass across
// workers. Smaller grids run on the calling goroutine.
const parallelRowThreshold = 32

// rowChunk is a band of rows [j0, j1) for one worker.
type rowChunk struct {
	j0, j1 int
	fn     func(j0, j1 int)
}

// rowPool runs grid passes in row bands on persistent worker goroutines.
// Every pass writes only its own rows of the destination and reads
// source fields that no worker writes, so results match a serial run.
type rowPool struct {
	numWorkers int

	workChan chan rowChunk  // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

// newRowPool creates a pool of n workers; n <= 0 uses GOMAXPROCS.
// Workers start on first use.
func newRowPool(n int) *rowPool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &rowPool{numWorkers: n}
}

func (p *rowPool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan rowChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them. It is safe on a nil
// or stopped pool.
func (p *rowPool) stop() {
	if p == nil || !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}

func (p *rowPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk := <-p.workChan:
			chunk.fn(chunk.j0, chunk.j1)
			p.doneChan <- struct{}{}
		}
	}
}

// run calls fn over rows [0, h), split into one band per worker, and
// returns when every band is done. A nil pool runs fn(0, h) directly.
func (p *rowPool) run(h int, fn func(j0, j1 int)) {
	if p == nil || p.numWorkers < 2 || h < parallelRowThreshold {
		fn(0, h)
		return
	}
	p.start()

	chunkSize := (h + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for start := 0; start < h; start += chunkSize {
		end := min(start+chunkSize, h)
		p.workChan <- rowChunk{j0: start, j1: end, fn: fn}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
