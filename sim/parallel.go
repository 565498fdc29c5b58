package sim

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum agent count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

type phase int

const (
	phaseKernel phase = iota
	phaseIntegrate
)

// workChunk represents one worker's share of a tick phase. buf selects the
// per-chunk accumulator buffer for the kernel phase; tying the buffer to the
// chunk instead of to whichever goroutine picks it up keeps the reduction
// order fixed, so results depend only on the worker count, not on
// scheduling.
type workChunk struct {
	phase      phase
	start, end int
	buf        int
}

// workerPool runs tick phases across persistent worker goroutines.
type workerPool struct {
	numWorkers int

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{numWorkers: workers}
}

// start launches the persistent workers.
func (p *workerPool) start(s *Simulation) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s)
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker(s *Simulation) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			switch chunk.phase {
			case phaseKernel:
				s.kernelChunk(chunk.start, chunk.end, s.workerAcc[chunk.buf])
			case phaseIntegrate:
				s.integrateChunk(chunk.start, chunk.end)
			}
			p.doneChan <- struct{}{}
		}
	}
}

// dispatch splits units into one contiguous chunk per worker, runs the phase
// to completion and returns the number of chunks that were dispatched.
func (p *workerPool) dispatch(ph phase, units int) int {
	chunkSize := (units + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > units {
			end = units
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{phase: ph, start: start, end: end, buf: w}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
	return dispatched
}
