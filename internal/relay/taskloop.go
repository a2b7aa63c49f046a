// Package relay hands finished artifacts from the capture goroutine
// to the messaging subsystem without either side touching the other's
// execution context.
package relay

import (
	"sync"
)

// Task is a unit of work executed on the loop's own goroutine.
type Task func()

// TaskLoop is a single-consumer cooperative executor: the messaging
// subsystem's execution context. Submit is safe from any goroutine
// and returns without waiting for the task to run; tasks execute one
// at a time, in submission order, on the loop goroutine only.
type TaskLoop struct {
	tasks    chan queuedTask
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type queuedTask struct {
	fn   Task
	done chan struct{}
}

// NewTaskLoop starts a task loop with the given queue depth.
func NewTaskLoop(bufferSize int) *TaskLoop {
	if bufferSize < 1 {
		bufferSize = 16
	}
	loop := &TaskLoop{
		tasks:  make(chan queuedTask, bufferSize),
		stopCh: make(chan struct{}),
	}

	loop.wg.Add(1)
	go loop.run()

	return loop
}

// Submit queues fn for execution on the loop goroutine and returns a
// channel closed once it has run. Callers on other goroutines must
// not wait on the result from latency-sensitive paths; the capture
// worker ignores it entirely. Tasks submitted after Stop are dropped
// with their done channel closed.
func (l *TaskLoop) Submit(fn Task) <-chan struct{} {
	done := make(chan struct{})

	select {
	case l.tasks <- queuedTask{fn: fn, done: done}:
	case <-l.stopCh:
		close(done)
	}

	return done
}

// Stop shuts the loop down after draining queued tasks.
func (l *TaskLoop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	l.wg.Wait()
}

func (l *TaskLoop) run() {
	defer l.wg.Done()

	for {
		select {
		case t := <-l.tasks:
			l.execute(t)

		case <-l.stopCh:
			// Drain before exiting so accepted tasks still run.
			for {
				select {
				case t := <-l.tasks:
					l.execute(t)
				default:
					return
				}
			}
		}
	}
}

func (l *TaskLoop) execute(t queuedTask) {
	defer close(t.done)
	defer func() {
		recover() // a panicking task must not kill the loop
	}()
	t.fn()
}
