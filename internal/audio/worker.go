package audio

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// taskKind tags the worker's FIFO task union: either decode the next
// block into a buffer slot, or seek the whole instance and reschedule
// every buffer slot for redecode.
type taskKind uint8

const (
	taskDecode taskKind = iota
	taskSeek
)

type task struct {
	kind   taskKind
	inst   *Instance
	slot   int // taskDecode: which ring buffer to fill
	seekMS int // taskSeek: target position
}

// Worker is the single background goroutine that services every
// on-demand instance's decode and seek requests through one FIFO queue,
// gated by a counting semaphore so Schedule never blocks the caller more
// than necessary and Shutdown can drain in-flight work deterministically.
type Worker struct {
	mu   sync.Mutex
	fifo []task
	sem  *semaphore.Weighted
	done atomic.Bool
	wg   sync.WaitGroup
}

// NewWorker starts the worker goroutine and returns a handle for
// scheduling decode/seek tasks against it.
func NewWorker() *Worker {
	const capacity = 1 << 20
	w := &Worker{sem: semaphore.NewWeighted(capacity)}
	// Start with every unit held, so the worker's Acquire(1) parks until
	// push or Shutdown releases one.
	_ = w.sem.Acquire(context.Background(), capacity)
	w.wg.Add(1)
	go w.run()
	return w
}

// ScheduleDecode queues a decode-into-slot task for inst.
func (w *Worker) ScheduleDecode(inst *Instance, slot int) {
	w.push(task{kind: taskDecode, inst: inst, slot: slot})
}

// ScheduleSeek queues a seek task for inst; the worker rewinds or seeks
// the underlying decoder and resets every ring buffer to pending (or to
// bufferError if the seek fails).
func (w *Worker) ScheduleSeek(inst *Instance, ms int) {
	w.push(task{kind: taskSeek, inst: inst, seekMS: ms})
}

func (w *Worker) push(t task) {
	if w.done.Load() {
		return
	}
	w.mu.Lock()
	w.fifo = append(w.fifo, t)
	w.mu.Unlock()
	w.sem.Release(1)
}

// Shutdown stops accepting new work and waits for the worker goroutine
// to observe done and exit.
func (w *Worker) Shutdown() {
	w.done.Store(true)
	w.sem.Release(1) // wake the goroutine if it is parked on Acquire
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	ctx := context.Background()
	for {
		if w.done.Load() {
			return
		}
		if err := w.sem.Acquire(ctx, 1); err != nil {
			return
		}
		if w.done.Load() {
			return
		}
		w.mu.Lock()
		if len(w.fifo) == 0 {
			w.mu.Unlock()
			continue
		}
		t := w.fifo[0]
		w.fifo = w.fifo[1:]
		w.mu.Unlock()

		w.process(t)
	}
}

func (w *Worker) process(t task) {
	switch t.kind {
	case taskDecode:
		t.inst.decodeSlot(t.slot, w)
	case taskSeek:
		t.inst.performSeek(t.seekMS, w)
	}
}
