package game

import (
	"log"
	"sync"
	"time"
)

// QueueEntry represents one user waiting for a 1v1 opponent. The user id is
// unique in the queue; the session binding may be refreshed on re-enqueue.
type QueueEntry struct {
	SessionID string
	UserID    int
	JoinedAt  time.Time
}

// QueueStatus is the user-facing view of a queue position.
type QueueStatus struct {
	InQueue              bool `json:"in_queue"`
	Position             int  `json:"position"`
	EstimatedWaitSeconds int  `json:"estimated_wait_seconds"`
	QueueLength          int  `json:"queue_length"`
}

// MatchedFunc is called whenever the matchmaker pairs two entries into a
// fresh match, with the sessions in queue order.
type MatchedFunc func(matchID string, sessions []string)

// Matchmaker pairs waiting 1v1 seekers strictly FIFO. A sweep ticker runs
// only while demand exists: it starts on the first enqueue and stops when
// the queue drains.
type Matchmaker struct {
	registry  *MatchRegistry
	queue     []QueueEntry
	sweepStop chan struct{} // nil while no sweep is running
	interval  time.Duration
	onMatched MatchedFunc
	mu        sync.Mutex
}

// Queue is the process-wide matchmaker instance.
var Queue *Matchmaker

// InitializeMatchmaker creates the global matchmaker backed by the global
// registry.
func InitializeMatchmaker(sweepInterval time.Duration) {
	Queue = NewMatchmaker(Registry, sweepInterval)
}

// NewMatchmaker creates a matchmaker for a registry.
func NewMatchmaker(registry *MatchRegistry, sweepInterval time.Duration) *Matchmaker {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Second
	}
	return &Matchmaker{
		registry: registry,
		interval: sweepInterval,
	}
}

// SetMatchedHandler registers the callback used to notify paired sessions.
func (mm *Matchmaker) SetMatchedHandler(fn MatchedFunc) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.onMatched = fn
}

// Enqueue adds a user to the queue and immediately attempts a pairing. If
// the user is already queued only the session binding is refreshed. The
// returned match id is non-empty when this call completed a pair.
func (mm *Matchmaker) Enqueue(sessionID string, userID int) string {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	for i := range mm.queue {
		if mm.queue[i].UserID == userID {
			mm.queue[i].SessionID = sessionID
			return ""
		}
	}

	mm.queue = append(mm.queue, QueueEntry{SessionID: sessionID, UserID: userID, JoinedAt: time.Now()})
	log.Printf("[MATCHMAKER] User %d queued (length=%d)", userID, len(mm.queue))

	if mm.sweepStop == nil {
		stop := make(chan struct{})
		mm.sweepStop = stop
		go mm.runSweep(stop)
	}

	return mm.pairLocked()
}

// Dequeue removes a user from the queue; the sweep stops once the queue is
// empty.
func (mm *Matchmaker) Dequeue(userID int) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	for i := range mm.queue {
		if mm.queue[i].UserID == userID {
			mm.queue = append(mm.queue[:i], mm.queue[i+1:]...)
			break
		}
	}

	if len(mm.queue) == 0 && mm.sweepStop != nil {
		close(mm.sweepStop)
		mm.sweepStop = nil
	}
}

// Status reports a user's 1-based FIFO rank. The wait estimate is a plain
// linear function of rank, with no load modeling behind it.
func (mm *Matchmaker) Status(userID int) QueueStatus {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	status := QueueStatus{QueueLength: len(mm.queue)}
	for i := range mm.queue {
		if mm.queue[i].UserID == userID {
			status.InQueue = true
			status.Position = i + 1
			status.EstimatedWaitSeconds = i * 10
			break
		}
	}
	return status
}

// Length returns the number of queued entries.
func (mm *Matchmaker) Length() int {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return len(mm.queue)
}

// runSweep retries pairing every interval so entries that arrived singly
// still pair up once an opponent shows.
func (mm *Matchmaker) runSweep(stop chan struct{}) {
	ticker := time.NewTicker(mm.interval)
	defer ticker.Stop()

	log.Printf("[MATCHMAKER] Sweep started (every %v)", mm.interval)
	for {
		select {
		case <-stop:
			log.Printf("[MATCHMAKER] Sweep stopped (queue drained)")
			return
		case <-ticker.C:
			mm.mu.Lock()
			mm.pairLocked()
			mm.mu.Unlock()
		}
	}
}

// pairLocked dequeues the two oldest entries into a new classic match.
// Strict FIFO, no skill matching. Caller holds mm.mu.
func (mm *Matchmaker) pairLocked() string {
	if len(mm.queue) < 2 {
		return ""
	}

	first, second := mm.queue[0], mm.queue[1]
	mm.queue = mm.queue[2:]

	matchID := mm.registry.CreateMatch(false)
	if !mm.registry.Admit(matchID, first.SessionID) || !mm.registry.Admit(matchID, second.SessionID) {
		// A session raced into another match between queueing and pairing;
		// scrap the attempt rather than seat a half-filled pair.
		log.Printf("[MATCHMAKER] Pairing failed for users %d/%d, removing match %s", first.UserID, second.UserID, matchID)
		mm.registry.RemoveMatch(matchID)
		return ""
	}

	log.Printf("[MATCHMAKER] Users %d and %d matched into %s", first.UserID, second.UserID, matchID)

	if mm.onMatched != nil {
		go mm.onMatched(matchID, []string{first.SessionID, second.SessionID})
	}

	if len(mm.queue) == 0 && mm.sweepStop != nil {
		close(mm.sweepStop)
		mm.sweepStop = nil
	}

	return matchID
}
