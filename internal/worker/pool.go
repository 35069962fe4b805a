// Package worker runs ranking jobs concurrently and paces outbound requests.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work run by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a job produced
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of goroutines. Results are drained as
// they arrive, so Submit never blocks on an unread result.
type Pool struct {
	workers   int
	jobs      chan Job
	results   chan Result
	collector *ResultCollector
	wg        sync.WaitGroup
	drained   chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	startOnce sync.Once
	closeOnce sync.Once
	finished  []Result
}

// NewPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:   workers,
		jobs:      make(chan Job, workers*2),
		results:   make(chan Result, workers*2),
		collector: NewResultCollector(),
		drained:   make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers and the result drain. Calling it again is a no-op.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
		go func() {
			defer close(p.drained)
			for r := range p.results {
				p.collector.Add(r)
			}
		}()
	})
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.results <- job.Execute(p.ctx)
		}
	}
}

// Submit queues job. It returns false once the pool is cancelled.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Wait closes the queue, waits for queued jobs and returns every result
// in completion order
func (p *Pool) Wait() []Result {
	p.Start()
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
		close(p.results)
		<-p.drained
		p.cancel()
		p.finished = p.collector.Results()
	})
	return p.finished
}

// Shutdown cancels in-flight work and returns what finished
func (p *Pool) Shutdown() []Result {
	p.cancel()
	return p.Wait()
}

// ResultCollector is a concurrency-safe result list
type ResultCollector struct {
	mu      sync.Mutex
	results []Result
}

// NewResultCollector creates an empty collector
func NewResultCollector() *ResultCollector {
	return &ResultCollector{results: make([]Result, 0)}
}

// Add appends result
func (c *ResultCollector) Add(result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// Results returns a copy of the collected results
func (c *ResultCollector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}
