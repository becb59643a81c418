package util

import (
	"sync"

	"github.com/mohitkumar/actionbus/logger"
	"go.uber.org/zap"
)

// Worker drains its queue on a single goroutine, so the handler never runs
// concurrently with itself.
type Worker[T any] struct {
	name      string
	stop      chan struct{}
	done      chan struct{}
	wg        *sync.WaitGroup
	handler   func(T) error
	queue     chan T
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewWorker[T any](name string, wg *sync.WaitGroup, handler func(T) error, capacity int) *Worker[T] {
	return &Worker[T]{
		queue:   make(chan T, capacity),
		name:    name,
		wg:      wg,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		handler: handler,
	}
}

func (w *Worker[T]) Start() {
	w.startOnce.Do(func() {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer close(w.done)
			for {
				select {
				case item := <-w.queue:
					if err := w.handler(item); err != nil {
						logger.Error("error in worker handler", zap.String("worker", w.name), zap.Error(err))
					}
				case <-w.stop:
					logger.Debug("stopping worker", zap.String("worker", w.name))
					return
				}
			}
		}()
	})
}

// Send blocks while the queue is full and reports false once the worker is
// stopped.
func (w *Worker[T]) Send(item T) bool {
	select {
	case <-w.stop:
		return false
	default:
	}
	select {
	case w.queue <- item:
		return true
	case <-w.stop:
		return false
	}
}

func (w *Worker[T]) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
}

func (w *Worker[T]) Done() <-chan struct{} {
	return w.done
}
