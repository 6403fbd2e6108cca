package game

// Hint is an on-screen toast with a remaining lifetime.
type Hint struct {
	Text      string  `json:"text"`
	Remaining float64 `json:"remaining"`
}

const defaultHintTTL = 4.0 // seconds

// HintQueue collects hint events into a bounded toast list. Oldest hints
// are evicted when the cap is hit so the HUD never overflows.
type HintQueue struct {
	hints []Hint
	max   int
}

// NewHintQueue subscribes the queue to hint events on the bus.
func NewHintQueue(bus *Bus, max int) *HintQueue {
	if max <= 0 {
		max = 8
	}
	q := &HintQueue{max: max}
	bus.Subscribe(EventTypeHint, q.onHint)
	return q
}

func (q *HintQueue) onHint(ev Event) {
	var payload HintPayload
	if err := decodePayload(ev.Payload, &payload); err != nil {
		return
	}
	ttl := payload.TTL
	if ttl <= 0 {
		ttl = defaultHintTTL
	}
	q.Push(payload.Text, ttl)
}

// Push adds a hint directly, evicting the oldest when full.
func (q *HintQueue) Push(text string, ttl float64) {
	if len(q.hints) >= q.max {
		copy(q.hints, q.hints[1:])
		q.hints = q.hints[:len(q.hints)-1]
	}
	q.hints = append(q.hints, Hint{Text: text, Remaining: ttl})
}

// Update ages out expired hints. In-place filter, no allocation.
func (q *HintQueue) Update(dt float64) {
	alive := q.hints[:0]
	for i := range q.hints {
		q.hints[i].Remaining -= dt
		if q.hints[i].Remaining > 0 {
			alive = append(alive, q.hints[i])
		}
	}
	q.hints = alive
}

// Active returns a copy of the currently visible hints.
func (q *HintQueue) Active() []Hint {
	out := make([]Hint, len(q.hints))
	copy(out, q.hints)
	return out
}
