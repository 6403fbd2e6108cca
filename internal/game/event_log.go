package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// MaxEventsPerSource caps how many events one subsystem may log per second.
// A physics bug emitting a collision every tick must not drown the delivery
// trail.
const MaxEventsPerSource = 200

const (
	ringSize         = 1024                   // Pending-event ring capacity
	maxEventsPerSec  = 10000                  // Global ceiling across all sources
	flushBatchSize   = 64                     // Ring entries drained per write
	flushInterval    = 100 * time.Millisecond // Writer wake-up cadence
	limiterStaleness = 5 * time.Minute        // Per-source limiter expiry
)

// EventLog persists everything published on the Bus as newline-delimited
// JSON, which makes a session replayable and "why did the delivery fail"
// answerable after the fact. Recording is bounded: a ring buffer between the
// tick goroutine and the writer, a global rate limit, and a per-source limit.
// When the ring wraps, the OLDEST entries are sacrificed - the live game
// never blocks on disk.
type EventLog struct {
	ring    [ringSize]Event
	written uint64 // atomic - total events ever placed in the ring
	flushed uint64 // atomic - total events drained by the writer

	globalLimiter  *rate.Limiter
	sourceLimiters sync.Map // map[string]*sourceLimiter

	running  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	writerWg sync.WaitGroup

	file   *os.File
	fileMu sync.Mutex

	dropped uint64 // atomic
	total   uint64 // atomic
}

type sourceLimiter struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewEventLog creates a log in the stopped state. Record refuses events
// until Start.
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(maxEventsPerSec, maxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens the output file (empty path: count-only, no disk) and launches
// the writer goroutine. Starting twice is a no-op.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = f
	}

	el.running.Store(true)
	el.writerWg.Add(1)
	go el.runWriter()
	return nil
}

// Stop drains everything still in the ring, closes the file and refuses
// further records. Safe to call more than once.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
			el.file = nil
		}
		el.fileMu.Unlock()
	})
}

// Record places an event in the ring. Returns false when the log is stopped
// or a rate limit rejected the event. The tick goroutine is the only
// producer.
func (el *EventLog) Record(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.dropped, 1)
		return false
	}
	if event.Source != "" && !el.limiterFor(event.Source).Allow() {
		atomic.AddUint64(&el.dropped, 1)
		return false
	}

	// Claim the next ring slot. written is the count of events ever stored,
	// so the slot just claimed is written-1.
	n := atomic.AddUint64(&el.written, 1)
	if n-atomic.LoadUint64(&el.flushed) > ringSize {
		// Ring wrapped onto an unread entry: sacrifice the oldest
		atomic.AddUint64(&el.flushed, 1)
		atomic.AddUint64(&el.dropped, 1)
	}

	event.Sequence = n
	el.ring[(n-1)%ringSize] = event

	atomic.AddUint64(&el.total, 1)
	return true
}

func (el *EventLog) limiterFor(source string) *rate.Limiter {
	if v, ok := el.sourceLimiters.Load(source); ok {
		e := v.(*sourceLimiter)
		e.lastUsed = time.Now()
		return e.limiter
	}
	entry := &sourceLimiter{
		limiter:  rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/10),
		lastUsed: time.Now(),
	}
	v, _ := el.sourceLimiters.LoadOrStore(source, entry)
	return v.(*sourceLimiter).limiter
}

// runWriter drains the ring to disk on a fixed cadence and expires stale
// per-source limiters on a much slower one. On stop it keeps draining until
// the ring is empty so no recorded event is lost to shutdown.
func (el *EventLog) runWriter() {
	defer el.writerWg.Done()

	flushTick := time.NewTicker(flushInterval)
	defer flushTick.Stop()
	cleanupTick := time.NewTicker(limiterStaleness)
	defer cleanupTick.Stop()

	batch := make([]Event, 0, flushBatchSize)

	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.drain(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.writeBatch(batch)
			}

		case <-flushTick.C:
			if batch = el.drain(batch[:0]); len(batch) > 0 {
				el.writeBatch(batch)
			}

		case <-cleanupTick.C:
			el.expireSourceLimiters()
		}
	}
}

// drain copies up to one batch of unread ring entries, oldest first.
func (el *EventLog) drain(batch []Event) []Event {
	written := atomic.LoadUint64(&el.written)
	flushed := atomic.LoadUint64(&el.flushed)

	for n := flushed; n < written && len(batch) < flushBatchSize; n++ {
		batch = append(batch, el.ring[n%ringSize])
	}
	if len(batch) > 0 {
		atomic.AddUint64(&el.flushed, uint64(len(batch)))
	}
	return batch
}

func (el *EventLog) writeBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}
	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

func (el *EventLog) expireSourceLimiters() {
	cutoff := time.Now().Add(-limiterStaleness)
	el.sourceLimiters.Range(func(key, value interface{}) bool {
		if value.(*sourceLimiter).lastUsed.Before(cutoff) {
			el.sourceLimiters.Delete(key)
		}
		return true
	})
}

// GetStats returns counters for the stats endpoint.
func (el *EventLog) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"total":   atomic.LoadUint64(&el.total),
		"dropped": atomic.LoadUint64(&el.dropped),
		"pending": atomic.LoadUint64(&el.written) - atomic.LoadUint64(&el.flushed),
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns how many events rate limiting or ring overflow
// discarded.
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.dropped)
}

// GetTotalCount returns how many events were accepted into the ring.
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.total)
}
