package progress

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// Persister makes reconciled state durable. Implementations must be safe
// for concurrent use. Write replaces the user's whole record (overwrite
// semantics, not append); Read recovers it on session start.
type Persister interface {
	Write(ctx context.Context, userID string, list ProgressList, completions []CompletionRecord) error
	Read(ctx context.Context, userID string) (ProgressList, []CompletionRecord, error)
}

// Session owns one signed-in user's in-memory progress state. All mutations
// go through the Reconciler fold; the UI-facing snapshot is updated
// synchronously while persistence happens in the background, so a slow or
// failing store never blocks playback.
type Session struct {
	userID string
	store  Persister
	log    *zap.Logger

	mu          sync.Mutex
	list        ProgressList
	completions []CompletionRecord
	rec         *Reconciler

	dirty   chan struct{} // cap 1, coalesces pending persists
	done    chan struct{}
	stopped chan struct{}
	closing sync.Once
}

func newSession(userID string, cfg Config, store Persister, log *zap.Logger, list ProgressList, completions []CompletionRecord) *Session {
	s := &Session{
		userID:      userID,
		store:       store,
		log:         log,
		list:        list,
		completions: completions,
		rec:         NewReconciler(cfg),
		dirty:       make(chan struct{}, 1),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *Session) UserID() string { return s.userID }

// Apply folds one normalized event into the session state. The returned
// completion record is non-nil when the event finished a title; applied is
// false when the event was throttled away.
func (s *Session) Apply(ev ProgressEvent) (completed *CompletionRecord, applied bool) {
	s.mu.Lock()
	next, comp, ok := s.rec.Fold(ev, s.list)
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	s.list = next
	if comp != nil {
		s.completions = append(s.completions, *comp)
	}
	s.mu.Unlock()

	s.markDirty()
	return comp, true
}

// Remove deletes the record for compositeKey. Removing an absent key is a
// no-op, not an error.
func (s *Session) Remove(compositeKey string) {
	s.mu.Lock()
	next := s.list.Without(compositeKey)
	changed := len(next) != len(s.list)
	s.list = next
	s.mu.Unlock()

	if changed {
		s.markDirty()
	}
}

// Clear empties the continue-watching list. Completions are kept.
func (s *Session) Clear() {
	s.mu.Lock()
	changed := len(s.list) > 0
	s.list = nil
	s.mu.Unlock()

	if changed {
		s.markDirty()
	}
}

// Snapshot returns a copy of the current list for read-only consumers.
func (s *Session) Snapshot() ProgressList {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(ProgressList, len(s.list))
	copy(out, s.list)
	return out
}

// Completions returns a copy of the completion set, newest last.
func (s *Session) Completions() []CompletionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CompletionRecord, len(s.completions))
	copy(out, s.completions)
	return out
}

// Flush persists the current state synchronously. Store failures are logged
// and absorbed; the next qualifying event re-triggers a fresh whole-list
// write, which is self-healing.
func (s *Session) Flush(ctx context.Context) {
	s.mu.Lock()
	list := make(ProgressList, len(s.list))
	copy(list, s.list)
	completions := make([]CompletionRecord, len(s.completions))
	copy(completions, s.completions)
	s.mu.Unlock()

	if err := s.store.Write(ctx, s.userID, list, completions); err != nil {
		s.log.Warn("progress: persist failed",
			zap.String("user_id", s.userID), zap.Error(err))
	}
}

// Close stops the background writer and performs a final synchronous flush.
func (s *Session) Close(ctx context.Context) {
	s.closing.Do(func() {
		close(s.done)
		<-s.stopped
		s.Flush(ctx)
	})
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Session) writeLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case <-s.dirty:
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			s.Flush(ctx)
			cancel()
		}
	}
}

// Manager holds the live sessions, one per signed-in user. Lifecycle is
// explicit: Open on sign-in, Close on sign-out. There is no ambient global
// state; everything hangs off an injected Manager.
type Manager struct {
	store Persister
	cfg   Config
	log   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store Persister, cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		store:    store,
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Open returns the user's session, creating it from persisted state on
// first touch. Read failures are absorbed: the session starts empty and
// the next write repairs the stores.
func (m *Manager) Open(ctx context.Context, userID string) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	list, completions, err := m.store.Read(ctx, userID)
	if err != nil {
		m.log.Warn("progress: recover failed, starting empty",
			zap.String("user_id", userID), zap.Error(err))
		list, completions = nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		// Lost the race to another opener; theirs wins.
		return s
	}
	s := newSession(userID, m.cfg, m.store, m.log, list, completions)
	m.sessions[userID] = s
	return s
}

// Peek returns the session only if it is already open.
func (m *Manager) Peek(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Close flushes and tears down the user's session. Closing an absent
// session is a no-op.
func (m *Manager) Close(ctx context.Context, userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.Close(ctx)
	}
}

// CloseAll flushes every live session; used on shutdown.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close(ctx)
	}
}
