package memory

import (
	"sync"
	"time"

	"github.com/sandevgo/shopmind/internal/core"
)

// Service is the context-compression engine. Stores for different threads are
// independent units of concurrency; within a thread writers are serialized and
// readers see either the pre-turn or the fully-applied post-turn store.
type Service struct {
	provider       core.ExtractionProvider
	maxInputTokens int
	now            func() time.Time

	mu      sync.RWMutex
	threads map[string]*thread
}

type thread struct {
	// writerMu serializes compress/prune per thread; the extraction call
	// happens under it but outside storeMu, so renders stay unblocked while
	// the service is in flight.
	writerMu sync.Mutex
	storeMu  sync.RWMutex
	store    *Store
}

func NewService(provider core.ExtractionProvider, maxInputTokens int) *Service {
	return &Service{
		provider:       provider,
		maxInputTokens: maxInputTokens,
		now:            time.Now,
		threads:        make(map[string]*thread),
	}
}

// thread returns the state for a thread id, creating it lazily when create is
// set. A store lives for the rest of the process once created.
func (s *Service) thread(threadID string, create bool) *thread {
	s.mu.RLock()
	th := s.threads[threadID]
	s.mu.RUnlock()
	if th != nil || !create {
		return th
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if th = s.threads[threadID]; th == nil {
		th = &thread{store: newStore(threadID)}
		s.threads[threadID] = th
	}
	return th
}

// Snapshot returns a deep copy of a thread's store for inspection. The second
// return is false for a thread that has never compressed a turn.
func (s *Service) Snapshot(threadID string) (*Store, bool) {
	th := s.thread(threadID, false)
	if th == nil {
		return nil, false
	}
	th.storeMu.RLock()
	defer th.storeMu.RUnlock()
	return th.store.clone(), true
}
