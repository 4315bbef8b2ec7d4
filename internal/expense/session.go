package expense

import (
	"sync"

	"github.com/expensary/expensary/internal/classify"
	"github.com/expensary/expensary/internal/preview"
	"github.com/expensary/expensary/internal/scanning"
)

// Session owns all mutable state of one upload: the preview slot, the stage
// tracker and the category suggestion. Nothing else mutates that state; the
// scan driver and HTTP handlers go through the methods below, which serialize
// access with a single mutex.
type Session struct {
	id string

	mu         sync.Mutex
	renderer   *preview.Renderer
	tracker    *scanning.Tracker
	table      *classify.Table
	vendor     string
	category   classify.Category
	source     string
	suggestion *classify.Suggestion
	expenseID  string
}

// Snapshot is the externally visible state of a session
type Snapshot struct {
	ID             string                 `json:"id"`
	Stage          scanning.Stage         `json:"stage"`
	Progress       int                    `json:"progress"`
	Error          string                 `json:"error,omitempty"`
	Stages         []scanning.StageStatus `json:"stages"`
	Vendor         string                 `json:"vendor,omitempty"`
	Suggestion     *classify.Suggestion   `json:"suggestion,omitempty"`
	Category       classify.Category      `json:"category,omitempty"`
	CategorySource string                 `json:"category_source,omitempty"`
	ExpenseID      string                 `json:"expense_id,omitempty"`
}

// NewSession creates a session classifying against the given keyword table
func NewSession(id string, table *classify.Table) *Session {
	return &Session{
		id:       id,
		renderer: preview.NewRenderer(),
		tracker:  scanning.NewTracker(),
		table:    table,
	}
}

// newSessionWithRenderer creates a session with a custom renderer for testing
func newSessionWithRenderer(id string, table *classify.Table, renderer *preview.Renderer) *Session {
	return &Session{
		id:       id,
		renderer: renderer,
		tracker:  scanning.NewTracker(),
		table:    table,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// StartUpload begins a new upload attempt: the tracker resets to idle and the
// preview renderer starts decoding the file, superseding any earlier render
func (s *Session) StartUpload(data []byte, contentType string) {
	s.mu.Lock()
	s.tracker.Apply(scanning.StageUpdate{Stage: scanning.StageIdle})
	s.mu.Unlock()

	s.renderer.Render(data, contentType)
}

// OnStageUpdate forwards a scan driver event into the stage tracker
func (s *Session) OnStageUpdate(u scanning.StageUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Apply(u)
}

// OnVendorExtracted records the vendor text reported by the scanner. A changed
// vendor invalidates any standing suggestion; a fresh suggestion is computed
// only while the category is still unset.
func (s *Session) OnVendorExtracted(vendor string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vendor == s.vendor {
		return
	}
	s.vendor = vendor
	s.suggestion = nil

	if s.category != "" {
		return
	}
	if suggestion, ok := s.table.Suggest(vendor); ok {
		s.suggestion = &suggestion
	}
}

// SetCategory records an explicit user category and clears any suggestion
func (s *Session) SetCategory(category classify.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
	s.source = CategorySourceManual
	s.suggestion = nil
}

// AcceptSuggestion promotes the standing suggestion to the session category.
// The suggestion is cleared and will not be re-offered.
func (s *Session) AcceptSuggestion() (classify.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suggestion == nil {
		return "", false
	}
	s.category = s.suggestion.Category
	s.source = CategorySourceSuggested
	s.suggestion = nil
	return s.category, true
}

// Category returns the session category and how it was chosen
func (s *Session) Category() (classify.Category, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category, s.source
}

// ExpenseID returns the persisted expense ID, once the ingest completed
func (s *Session) ExpenseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenseID
}

// setExpenseID records the persisted expense backing this session
func (s *Session) setExpenseID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenseID = id
}

// Preview returns the current preview result
func (s *Session) Preview() preview.Result {
	return s.renderer.Current()
}

// Snapshot returns the externally visible session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		Stage:          s.tracker.Stage(),
		Progress:       s.tracker.Progress(),
		Error:          s.tracker.Message(),
		Stages:         s.tracker.Statuses(),
		Vendor:         s.vendor,
		Category:       s.category,
		CategorySource: s.source,
		ExpenseID:      s.expenseID,
	}
	if s.suggestion != nil {
		suggestion := *s.suggestion
		snap.Suggestion = &suggestion
	}
	return snap
}

// Sessions is a registry of live upload sessions
type Sessions struct {
	mu   sync.Mutex
	byID map[string]*Session
}

// NewSessions creates an empty session registry
func NewSessions() *Sessions {
	return &Sessions{byID: make(map[string]*Session)}
}

// Add registers a session
func (s *Sessions) Add(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[session.ID()] = session
}

// Get looks up a session by ID
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.byID[id]
	return session, ok
}
