package worker

import (
	"sync"

	"github.com/supertrooper/backend/internal/logging"
)

type TaskFunc func()

// Pool runs submitted tasks on a fixed set of goroutines.
type Pool struct {
	maxWorkers int
	taskQueue  chan TaskFunc
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewPool(maxWorkers, queueSize int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	p := &Pool{
		maxWorkers: maxWorkers,
		taskQueue:  make(chan TaskFunc, queueSize),
	}
	p.start()
	return p
}

func (p *Pool) start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.taskQueue {
				run(task)
			}
		}()
	}
}

func run(task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			logging.Log.Errorf("worker task panicked: %v", r)
		}
	}()
	task()
}

// Submit queues a task without blocking. It reports false when the queue is
// full or the pool has been shut down.
func (p *Pool) Submit(task TaskFunc) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.taskQueue <- task:
		return true
	default:
		return false
	}
}

func (p *Pool) QueueSize() int {
	return len(p.taskQueue)
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.taskQueue)
	p.mu.Unlock()
	p.wg.Wait()
}
