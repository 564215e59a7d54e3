package host

import "sync"

// Queue is an in-memory FIFO Poller. Push may be called from any goroutine.
type Queue struct {
	mu     sync.Mutex
	events []RawEvent
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends events to the queue.
func (q *Queue) Push(evs ...RawEvent) {
	q.mu.Lock()
	q.events = append(q.events, evs...)
	q.mu.Unlock()
}

func (q *Queue) PollEvent() (RawEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return RawEvent{}, false
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
