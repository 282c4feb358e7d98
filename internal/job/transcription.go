package job

import "sync"

// Segment is one produced transcription record (spec.md §4.6 "Worker":
// "{text, startTime, endTime, confidence?, timestamp}").
type Segment struct {
	Text       string
	StartTime  float64
	EndTime    float64
	Confidence float64
	Timestamp  int64
}

// subscriberQueueSize bounds each subscriber's channel; a slow
// subscriber blocks only itself (spec.md §5 "Ordering guarantees").
const subscriberQueueSize = 256

// topic is one job's broadcast state: a replay buffer plus the live
// subscriber set, generalizing a single shared pub/sub fan-out
// (`Subscribe`/`Unsubscribe`/`Broadcast`) into per-subscriber bounded
// channels plus replay.
type topic struct {
	mu          sync.Mutex
	replay      []Segment
	subscribers map[int]chan Segment
	nextSub     int
	stopped     bool
}

// Broadcaster owns one topic per transcription job id.
type Broadcaster struct {
	mu     sync.Mutex
	topics map[string]*topic
}

// NewBroadcaster builds an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{topics: map[string]*topic{}}
}

// Open creates (or returns, if already open) the topic for jobID.
func (b *Broadcaster) Open(jobID string) *topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[jobID]
	if !ok {
		t = &topic{subscribers: map[int]chan Segment{}}
		b.topics[jobID] = t
	}
	return t
}

// Stopped reports whether t's producer has closed it out cleanly.
func (t *topic) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// MarkStopped records that jobID's producer finished cleanly (spec.md
// §4.6 "Worker": "`Stop` closes the channel cleanly (Completed)"),
// distinguishing it from an aborted Cancel.
func (b *Broadcaster) MarkStopped(jobID string) {
	b.mu.Lock()
	t, ok := b.topics[jobID]
	b.mu.Unlock()
	if !ok {
		return
	}
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Close closes every live subscriber channel and drops the topic. Call
// after MarkStopped for a clean Stop, or directly for an aborting
// Cancel.
func (b *Broadcaster) Close(jobID string) {
	b.mu.Lock()
	t, ok := b.topics[jobID]
	delete(b.topics, jobID)
	b.mu.Unlock()
	if !ok {
		return
	}
	t.mu.Lock()
	for _, ch := range t.subscribers {
		close(ch)
	}
	t.subscribers = nil
	t.mu.Unlock()
}

// Publish appends seg to the replay log and fans it out to every live
// subscriber. Publish is a no-op once the topic has stopped.
func (b *Broadcaster) Publish(jobID string, seg Segment) {
	b.mu.Lock()
	t, ok := b.topics[jobID]
	b.mu.Unlock()
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.replay = append(t.replay, seg)
	for _, ch := range t.subscribers {
		select {
		case ch <- seg:
		default:
			// subscriber is behind its bound; it will catch up via replay
			// on resubscribe rather than block the producer.
		}
	}
}

// Subscribe returns a channel that first replays every segment produced
// so far, then delivers live segments in production order.
func (b *Broadcaster) Subscribe(jobID string) (<-chan Segment, func()) {
	t := b.Open(jobID)
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	ch := make(chan Segment, subscriberQueueSize)
	for _, seg := range t.replay {
		ch <- seg
	}
	t.subscribers[id] = ch
	t.mu.Unlock()

	unsubscribe := func() {
		t.mu.Lock()
		if c, ok := t.subscribers[id]; ok {
			delete(t.subscribers, id)
			close(c)
		}
		t.mu.Unlock()
	}
	return ch, unsubscribe
}
