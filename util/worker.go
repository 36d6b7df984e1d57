package util

import (
	"sync"

	"github.com/appforge/canvasflow/logger"
	"go.uber.org/zap"
)

// WorkerPool runs queued tasks on a fixed set of goroutines. Multiple
// dispatches may execute concurrently; ordering holds only within one
// task.
type WorkerPool[T any] struct {
	name     string
	size     int
	taskChan chan T
	stop     chan struct{}
	wg       *sync.WaitGroup
	handler  func(T) error
}

func NewWorkerPool[T any](name string, size, capacity int, wg *sync.WaitGroup, handler func(T) error) *WorkerPool[T] {
	if size < 1 {
		size = 1
	}
	return &WorkerPool[T]{
		name:     name,
		size:     size,
		taskChan: make(chan T, capacity),
		stop:     make(chan struct{}),
		wg:       wg,
		handler:  handler,
	}
}

func (p *WorkerPool[T]) Start() {
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case task := <-p.taskChan:
					if err := p.handler(task); err != nil {
						logger.Error("error executing task in worker pool",
							zap.String("pool", p.name), zap.Error(err))
					}
				case <-p.stop:
					return
				}
			}
		}()
	}
	logger.Info("worker pool started", zap.String("pool", p.name), zap.Int("size", p.size))
}

// Submit queues a task; it blocks when the pool is at capacity.
func (p *WorkerPool[T]) Submit(task T) {
	p.taskChan <- task
}

func (p *WorkerPool[T]) Stop() {
	close(p.stop)
	logger.Info("worker pool stopped", zap.String("pool", p.name))
}
