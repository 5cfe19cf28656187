package memory

import (
	"time"

	"github.com/sandevgo/shopmind/internal/core"
)

// Retention windows for the derived legacy views. Raw extractions are never
// capped; they are the audit trail the views are rebuilt from.
const (
	maxOperations      = 20
	maxAgentResults    = 5
	maxDecisions       = 10
	maxSearches        = 10
	maxProducts        = 50
	sourceKeyPrefixLen = 50

	// Agent-result payloads are clamped before they reach the extraction
	// service; fallback summaries are clamped harder.
	agentResultInputLimit = 500
	fallbackSummaryLimit  = 200
)

// Record is one admitted extraction. Immutable once stored.
type Record struct {
	Class     string
	Text      string
	Attrs     core.Attrs
	Timestamp time.Time
	Span      *core.SourceSpan
}

// ProductRecord accumulates everything the conversation has established about
// one product, keyed by its canonical identifier.
type ProductRecord struct {
	ID             string
	Title          string
	SKU            string
	Price          string
	CompareAtPrice string
	Inventory      string
	VariantID      string
	Status         string
	Handle         string
	FirstSeen      time.Time
	UpdatedAt      time.Time
}

type OperationEntry struct {
	Type      string
	Details   string
	Attrs     core.Attrs
	Timestamp time.Time
}

type AgentResultEntry struct {
	Summary   string
	Success   bool
	Timestamp time.Time
}

type NoteEntry struct {
	Text      string
	Attrs     core.Attrs
	Timestamp time.Time
}

// Store is the per-thread conversation memory. One thread owns its store
// exclusively; all mutation goes through the engine's per-thread writer.
type Store struct {
	ThreadID string

	// Source of truth: class name -> append-only records, plus first-seen
	// class order and the running record count.
	Extractions  map[string][]Record
	KnownClasses []string
	Count        int

	// Derived legacy views, rebuilt incrementally on every admit.
	Products     map[string]*ProductRecord
	Operations   []OperationEntry
	Goals        []string
	AgentResults map[string][]AgentResultEntry
	Decisions    []NoteEntry
	Searches     []NoteEntry
	SourceMap    map[string]core.SourceSpan
}

func newStore(threadID string) *Store {
	return &Store{
		ThreadID:     threadID,
		Extractions:  make(map[string][]Record),
		Products:     make(map[string]*ProductRecord),
		AgentResults: make(map[string][]AgentResultEntry),
		SourceMap:    make(map[string]core.SourceSpan),
	}
}

// admit appends a record to the raw extraction log and updates the bookkeeping
// every derived view depends on. Projection runs separately so a projection
// failure cannot corrupt the raw log.
func (s *Store) admit(rec Record) {
	if _, seen := s.Extractions[rec.Class]; !seen {
		s.KnownClasses = append(s.KnownClasses, rec.Class)
	}
	s.Extractions[rec.Class] = append(s.Extractions[rec.Class], rec)
	s.Count++

	if rec.Span != nil {
		s.SourceMap[sourceKey(rec.Class, rec.Text)] = *rec.Span
	}
}

// sourceKey collides when two extractions of a class share a 50-char text
// prefix; last write wins.
func sourceKey(class, text string) string {
	return class + ":" + truncate(text, sourceKeyPrefixLen)
}

func (s *Store) appendOperation(e OperationEntry) {
	s.Operations = append(s.Operations, e)
	if len(s.Operations) > maxOperations {
		s.Operations = s.Operations[len(s.Operations)-maxOperations:]
	}
}

func (s *Store) appendDecision(e NoteEntry) {
	s.Decisions = append(s.Decisions, e)
	if len(s.Decisions) > maxDecisions {
		s.Decisions = s.Decisions[len(s.Decisions)-maxDecisions:]
	}
}

func (s *Store) appendSearch(e NoteEntry) {
	s.Searches = append(s.Searches, e)
	if len(s.Searches) > maxSearches {
		s.Searches = s.Searches[len(s.Searches)-maxSearches:]
	}
}

func (s *Store) appendAgentResult(agent string, e AgentResultEntry) {
	if agent == "" {
		agent = "unknown"
	}
	entries := append(s.AgentResults[agent], e)
	if len(entries) > maxAgentResults {
		entries = entries[len(entries)-maxAgentResults:]
	}
	s.AgentResults[agent] = entries
}

func (s *Store) appendGoal(text string) {
	for _, g := range s.Goals {
		if g == text {
			return
		}
	}
	s.Goals = append(s.Goals, text)
}

// clone returns a deep copy for callers outside the engine's locks.
func (s *Store) clone() *Store {
	out := newStore(s.ThreadID)
	out.Count = s.Count
	out.KnownClasses = append([]string(nil), s.KnownClasses...)
	out.Goals = append([]string(nil), s.Goals...)
	out.Operations = append([]OperationEntry(nil), s.Operations...)
	out.Decisions = append([]NoteEntry(nil), s.Decisions...)
	out.Searches = append([]NoteEntry(nil), s.Searches...)

	for class, recs := range s.Extractions {
		out.Extractions[class] = append([]Record(nil), recs...)
	}
	for agent, entries := range s.AgentResults {
		out.AgentResults[agent] = append([]AgentResultEntry(nil), entries...)
	}
	for id, p := range s.Products {
		cp := *p
		out.Products[id] = &cp
	}
	for k, v := range s.SourceMap {
		out.SourceMap[k] = v
	}
	return out
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
