package progresspub

import (
	"sync"

	"github.com/rs/zerolog"
)

// InMemoryPublisher fans a scan's snapshots out to subscribers registered on
// its scan_id, buffering the latest snapshot per scan for late subscribers.
// Publish is best-effort: a panicking or blocked subscriber is logged and
// skipped, never propagated to the orchestrator.
type InMemoryPublisher struct {
	mu          sync.Mutex
	subscribers map[string][]chan Snapshot
	latest      map[string]Snapshot
	logger      zerolog.Logger
}

func NewInMemoryPublisher(logger zerolog.Logger) *InMemoryPublisher {
	return &InMemoryPublisher{
		subscribers: make(map[string][]chan Snapshot),
		latest:      make(map[string]Snapshot),
		logger:      logger,
	}
}

// Publish implements Publisher.
func (p *InMemoryPublisher) Publish(scanID string, snapshot Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn().Str("scan_id", scanID).Interface("panic", r).Msg("progress publish panicked, dropping snapshot")
		}
	}()

	p.mu.Lock()
	p.latest[scanID] = snapshot
	subs := append([]chan Snapshot(nil), p.subscribers[scanID]...)
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
			p.logger.Warn().Str("scan_id", scanID).Msg("progress subscriber channel full, dropping snapshot")
		}
	}
}

// Subscribe registers a buffered channel of snapshots for scanID. Callers
// must call the returned unsubscribe func when done listening.
func (p *InMemoryPublisher) Subscribe(scanID string) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)

	p.mu.Lock()
	p.subscribers[scanID] = append(p.subscribers[scanID], ch)
	if last, ok := p.latest[scanID]; ok {
		ch <- last
	}
	p.mu.Unlock()

	unsubscribe := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		subs := p.subscribers[scanID]
		for i, c := range subs {
			if c == ch {
				p.subscribers[scanID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		close(ch)
	}
	return ch, unsubscribe
}
