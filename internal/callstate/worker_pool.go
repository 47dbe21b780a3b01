package callstate

import "sync"

// CompletionQueue is a single queue of ready call-handles, mirroring
// the grpc completion-queue idiom the spec describes: workers pop
// (tag, ok) pairs and re-dispatch to the tagged call object.
type CompletionQueue struct {
	ch chan event
}

type event struct {
	handle uint64
}

// NewCompletionQueue builds a queue with the given buffer depth.
func NewCompletionQueue(buffer int) *CompletionQueue {
	return &CompletionQueue{ch: make(chan event, buffer)}
}

// Push enqueues handle as ready for its next Proceed call. Used both
// for seeding fresh sibling waiters and for the wakeup step at the end
// of HandleRequest (spec §4.5).
func (q *CompletionQueue) Push(handle uint64) {
	q.ch <- event{handle: handle}
}

// pop returns the next handle and whether the queue is still open;
// ok is false once Shutdown has drained every pending event.
func (q *CompletionQueue) pop() (uint64, bool) {
	e, ok := <-q.ch
	return e.handle, ok
}

// Shutdown closes the queue; workers currently blocked in pop drain
// whatever was already enqueued, then exit on the closed channel.
func (q *CompletionQueue) Shutdown() {
	close(q.ch)
}

// ProceedFunc is invoked once per popped handle; it is the server
// package's single dispatch function (spec §9: "a single Proceed
// function that matches on the tag").
type ProceedFunc func(handle uint64)

// WorkerPool runs threadsPerQueue goroutines against each of numQueues
// completion queues (spec §4.6: "one completion queue per
// threads_per_queue workers"), registering every worker thread with the
// engine before it starts popping.
type WorkerPool struct {
	queues []*CompletionQueue
	wg     sync.WaitGroup
}

// NewWorkerPool builds numQueues completion queues, each sized to hold
// queueBuffer pending events.
func NewWorkerPool(numQueues, queueBuffer int) *WorkerPool {
	queues := make([]*CompletionQueue, numQueues)
	for i := range queues {
		queues[i] = NewCompletionQueue(queueBuffer)
	}
	return &WorkerPool{queues: queues}
}

// Queues returns the pool's completion queues, e.g. for choosing the
// queue a wakeup is pushed onto.
func (p *WorkerPool) Queues() []*CompletionQueue { return p.queues }

// Run starts threadsPerQueue workers against each queue. registerThread
// is called once per worker goroutine before it starts popping, as
// spec §4.6 step 2 requires; proceed is invoked for every popped
// handle until its queue shuts down.
func (p *WorkerPool) Run(threadsPerQueue int, registerThread func(), proceed ProceedFunc) {
	for _, q := range p.queues {
		for i := 0; i < threadsPerQueue; i++ {
			p.wg.Add(1)
			go func(q *CompletionQueue) {
				defer p.wg.Done()
				registerThread()
				for {
					handle, ok := q.pop()
					if !ok {
						return
					}
					proceed(handle)
				}
			}(q)
		}
	}
}

// Shutdown closes every completion queue and waits for all workers to
// drain and exit.
func (p *WorkerPool) Shutdown() {
	for _, q := range p.queues {
		q.Shutdown()
	}
	p.wg.Wait()
}
