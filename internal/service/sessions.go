// internal/service/sessions.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	practicesession "github.com/AngeberMerkel1/KarteikartenBot/internal/domain/practice_session"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/id"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/importer"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionService owns the live practice sessions. Selections are written
// through to a StateStore so a session survives a restart; anything else
// (working set, current question) is rebuilt from storage.
//
// With an idle timeout, EvictIdle drops sessions not used for that long from
// memory. Their saved selection stays in the StateStore (subject to its own
// expiry), so a later Get restores them with a fresh cycle.
type SessionService struct {
	store    store.Store
	importer *importer.Importer
	states   StateStore
	logger   *slog.Logger

	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type liveSession struct {
	ps       *practicesession.PracticeSession
	lastUsed atomic.Int64 // unix nanoseconds
}

func (ls *liveSession) touch(t time.Time) {
	ls.lastUsed.Store(t.UnixNano())
}

type Option func(*SessionService)

// WithIdleTimeout enables eviction of sessions unused for d. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(ss *SessionService) { ss.idleTimeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(ss *SessionService) { ss.now = now }
}

func NewSessionService(s store.Store, im *importer.Importer, states StateStore, logger *slog.Logger, opts ...Option) *SessionService {
	ss := &SessionService{
		store:    s,
		importer: im,
		states:   states,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(ss)
	}
	return ss
}

// add registers ps unless a session with that ID is already live, and returns
// the live one.
func (ss *SessionService) add(ps *practicesession.PracticeSession) *practicesession.PracticeSession {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if existing, ok := ss.sessions[ps.ID]; ok {
		existing.touch(ss.now())
		return existing.ps
	}
	ls := &liveSession{ps: ps}
	ls.touch(ss.now())
	ss.sessions[ps.ID] = ls
	return ps
}

func (ss *SessionService) newSession(sessionID string) *practicesession.PracticeSession {
	return practicesession.New(sessionID, ss.store, ss.importer, practicesession.DefaultConfig(), ss.logger)
}

// Create starts an empty session.
func (ss *SessionService) Create(ctx context.Context) (*practicesession.PracticeSession, error) {
	ps := ss.newSession(id.GenerateID())
	if err := ss.states.Save(ctx, ps.ID, SessionState{}); err != nil {
		return nil, fmt.Errorf("save session state: %w", err)
	}

	ss.add(ps)
	ss.logger.Info("session created", "session_id", ps.ID)
	return ps, nil
}

// Get returns a live session, restoring it from the StateStore if this
// process has not seen it yet or has evicted it.
func (ss *SessionService) Get(ctx context.Context, sessionID string) (*practicesession.PracticeSession, error) {
	ss.mu.RLock()
	ls, ok := ss.sessions[sessionID]
	ss.mu.RUnlock()
	if ok {
		ls.touch(ss.now())
		return ls.ps, nil
	}

	st, ok, err := ss.states.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	return ss.add(ss.restore(ctx, sessionID, st)), nil
}

// restore replays the saved selection. A topic or chapter that no longer
// exists leaves the session with whatever could be restored.
func (ss *SessionService) restore(ctx context.Context, sessionID string, st SessionState) *practicesession.PracticeSession {
	ps := ss.newSession(sessionID)
	if st.Topic == "" {
		return ps
	}
	if err := ps.SelectTopic(ctx, st.Topic); err != nil {
		ss.logger.Warn("restore topic failed", "session_id", sessionID, "topic", st.Topic, "error", err)
		return ps
	}
	if st.Chapter == "" {
		return ps
	}
	if err := ps.SelectChapter(ctx, st.Chapter); err != nil {
		ss.logger.Warn("restore chapter failed", "session_id", sessionID, "chapter", st.Chapter, "error", err)
		return ps
	}
	ss.logger.Info("session restored", "session_id", sessionID)
	return ps
}

func (ss *SessionService) Delete(ctx context.Context, sessionID string) error {
	ss.mu.Lock()
	_, live := ss.sessions[sessionID]
	delete(ss.sessions, sessionID)
	ss.mu.Unlock()

	_, saved, err := ss.states.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	if !live && !saved {
		return ErrSessionNotFound
	}
	return ss.states.Delete(ctx, sessionID)
}

// SelectTopic changes the session's topic and persists the selection.
func (ss *SessionService) SelectTopic(ctx context.Context, sessionID, name string) (*practicesession.PracticeSession, error) {
	ps, err := ss.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	selErr := ps.SelectTopic(ctx, name)
	if err := ss.persist(ctx, ps); err != nil {
		return nil, err
	}
	return ps, selErr
}

// SelectChapter changes the session's chapter and persists the selection.
func (ss *SessionService) SelectChapter(ctx context.Context, sessionID, name string) (*practicesession.PracticeSession, error) {
	ps, err := ss.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	selErr := ps.SelectChapter(ctx, name)
	if err := ss.persist(ctx, ps); err != nil {
		return nil, err
	}
	return ps, selErr
}

// Import loads doc into the session's topic, then reloads every other live
// session that has the affected chapter open.
func (ss *SessionService) Import(ctx context.Context, sessionID string, doc *importer.Document) (store.ChapterImport, error) {
	ps, err := ss.Get(ctx, sessionID)
	if err != nil {
		return store.ChapterImport{}, err
	}
	res, err := ps.Import(ctx, doc)
	if err != nil {
		return res, err
	}
	if res.Added == 0 {
		return res, nil
	}

	for _, other := range ss.snapshot() {
		if other.ID == ps.ID {
			continue
		}
		if _, err := other.ReloadChapter(ctx, res.ChapterID); err != nil {
			ss.logger.Error("reload after import failed", "session_id", other.ID, "chapter_id", res.ChapterID, "error", err)
		}
	}
	return res, nil
}

// ClearAll deletes every topic, chapter and question and resets every live
// session to an empty selection.
func (ss *SessionService) ClearAll(ctx context.Context) error {
	if err := ss.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	for _, ps := range ss.snapshot() {
		ps.Reset()
		if err := ss.persist(ctx, ps); err != nil {
			return err
		}
	}
	ss.logger.Info("all data cleared")
	return nil
}

func (ss *SessionService) persist(ctx context.Context, ps *practicesession.PracticeSession) error {
	st := ps.Status()
	if err := ss.states.Save(ctx, ps.ID, SessionState{Topic: st.Topic, Chapter: st.Chapter}); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

func (ss *SessionService) snapshot() []*practicesession.PracticeSession {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	out := make([]*practicesession.PracticeSession, 0, len(ss.sessions))
	for _, ls := range ss.sessions {
		out = append(out, ls.ps)
	}
	return out
}

// EvictIdle drops sessions unused for longer than the idle timeout and
// returns how many were dropped.
func (ss *SessionService) EvictIdle() int {
	if ss.idleTimeout <= 0 {
		return 0
	}
	cutoff := ss.now().Add(-ss.idleTimeout).UnixNano()

	ss.mu.Lock()
	evicted := 0
	for sessionID, ls := range ss.sessions {
		if ls.lastUsed.Load() < cutoff {
			delete(ss.sessions, sessionID)
			evicted++
		}
	}
	ss.mu.Unlock()

	if evicted > 0 {
		ss.logger.Info("idle sessions evicted", "count", evicted)
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (ss *SessionService) RunEviction(ctx context.Context, interval time.Duration) {
	if ss.idleTimeout <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ss.EvictIdle()
		}
	}
}
