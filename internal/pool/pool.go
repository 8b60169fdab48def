// Package pool runs jobs on a fixed set of long-lived workers, bounding how
// many execute at once to the pool size.
package pool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

var ErrInvalidPoolSize = errors.New("pool size must be at least 1")

// queueDepth bounds pending jobs so a burst of submissions cannot grow
// memory without limit. Execute blocks once the queue is full.
const queueDepth = 128

type Pool struct {
	jobs chan func()
	wg   sync.WaitGroup
	log  zerolog.Logger

	mu     sync.RWMutex // guards closed against a concurrent close(jobs)
	closed bool
}

// New validates size and starts the workers. On an invalid size no worker
// is started.
func New(size int, log zerolog.Logger) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoolSize, size)
	}

	p := &Pool{
		jobs: make(chan func(), queueDepth),
		log:  log,
	}
	p.wg.Add(size)
	for id := 0; id < size; id++ {
		go p.worker(id)
	}
	return p, nil
}

// Execute enqueues job for exactly one worker to run. Jobs are dequeued in
// submission order; completion order across workers is unspecified. Every
// accepted job runs exactly once. Returns false if the pool has already
// shut down and the job was rejected.
func (p *Pool) Execute(job func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.jobs <- job
	return true
}

// Shutdown closes the queue, lets the workers drain it, and waits for them
// to exit. No queued job is dropped. Idempotent.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.run(id, job)
	}
}

// run executes one job behind a recover so a panicking job is reported and
// the worker stays alive for the next one.
func (p *Pool) run(id int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Any("panic", r).Msg("job panicked")
		}
	}()
	job()
}
