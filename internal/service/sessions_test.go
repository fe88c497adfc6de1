package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/importer"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/store"
)

func newTestService(t *testing.T) (*SessionService, *store.MemoryStore, *MemoryStates) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := store.NewMemory()
	topicID, _ := s.CreateTopic(ctx, "Math")
	if _, err := s.CreateChapterWithQuestions(ctx, topicID, "Algebra", []question.Draft{{Text: "2+2?", Answer: "4"}}); err != nil {
		t.Fatal(err)
	}

	states := NewMemoryStates(0)
	return NewSessionService(s, importer.New(s, logger), states, logger), s, states
}

func TestCreateAndGet(t *testing.T) {
	ss, _, _ := newTestService(t)
	ctx := context.Background()

	ps, err := ss.Create(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ss.Get(ctx, ps.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ps {
		t.Error("expected the same live session")
	}
}

func TestGet_Unknown(t *testing.T) {
	ss, _, _ := newTestService(t)

	if _, err := ss.Get(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSelect_PersistsState(t *testing.T) {
	ss, _, states := newTestService(t)
	ctx := context.Background()
	ps, _ := ss.Create(ctx)

	if _, err := ss.SelectTopic(ctx, ps.ID, "Math"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ss.SelectChapter(ctx, ps.ID, "Algebra"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st, ok, _ := states.Load(ctx, ps.ID)
	if !ok || st.Topic != "Math" || st.Chapter != "Algebra" {
		t.Errorf("unexpected saved state %+v (ok=%v)", st, ok)
	}
}

func TestSelectTopic_UnknownPersistsClearedState(t *testing.T) {
	ss, _, states := newTestService(t)
	ctx := context.Background()
	ps, _ := ss.Create(ctx)
	_, _ = ss.SelectTopic(ctx, ps.ID, "Math")

	_, err := ss.SelectTopic(ctx, ps.ID, "Chemistry")
	if !errors.Is(err, store.ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}
	if st, _, _ := states.Load(ctx, ps.ID); st.Topic != "" {
		t.Errorf("expected cleared topic, got %+v", st)
	}
}

func TestGet_RestoresFromStateStore(t *testing.T) {
	ss, s, states := newTestService(t)
	ctx := context.Background()
	_ = states.Save(ctx, "restored", SessionState{Topic: "Math", Chapter: "Algebra"})

	ps, err := ss.Get(ctx, "restored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := ps.Status()
	if st.Topic != "Math" || st.Chapter != "Algebra" || st.Questions != 1 {
		t.Errorf("unexpected restored status %+v", st)
	}

	// Selection survives, levels come from storage.
	ws := ps.WorkingSet()
	_ = s.UpdateLevel(ctx, ws[0].ChapterID, ws[0].ID, 3)
	ss2 := NewSessionService(s, ss.importer, states, ss.logger)
	ps2, _ := ss2.Get(ctx, "restored")
	if got := ps2.WorkingSet()[0].Level; got != 3 {
		t.Errorf("expected level 3 from storage, got %d", got)
	}
}

func TestGet_RestoreWithMissingChapter(t *testing.T) {
	ss, _, states := newTestService(t)
	ctx := context.Background()
	_ = states.Save(ctx, "stale", SessionState{Topic: "Math", Chapter: "Gone"})

	ps, err := ss.Get(ctx, "stale")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st := ps.Status(); st.Topic != "Math" || st.Chapter != "" {
		t.Errorf("expected only the topic to be restored, got %+v", st)
	}
}

func TestGet_RestoreWithMissingChapterLogsWarningOnly(t *testing.T) {
	ss, s, states := newTestService(t)
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ss = NewSessionService(s, ss.importer, states, logger)
	_ = states.Save(ctx, "stale", SessionState{Topic: "Math", Chapter: "Gone"})

	if _, err := ss.Get(ctx, "stale"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "restore chapter failed") {
		t.Errorf("expected chapter warning, got %q", out)
	}
	if strings.Contains(out, "session restored") {
		t.Errorf("expected no success log after failed restore, got %q", out)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newEvictingService(t *testing.T, idle time.Duration) (*SessionService, *MemoryStates, *fakeClock) {
	t.Helper()
	ss, s, states := newTestService(t)
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	ss = NewSessionService(s, ss.importer, states, ss.logger, WithIdleTimeout(idle), WithClock(clock.now))
	return ss, states, clock
}

func TestEvictIdle_DropsIdleSessions(t *testing.T) {
	ss, _, clock := newEvictingService(t, time.Hour)
	ctx := context.Background()

	for range 100 {
		if _, err := ss.Create(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	clock.advance(2 * time.Hour)

	if n := ss.EvictIdle(); n != 100 {
		t.Errorf("expected 100 evicted, got %d", n)
	}
	if n := len(ss.snapshot()); n != 0 {
		t.Errorf("expected no live sessions, got %d", n)
	}
}

func TestEvictIdle_KeepsRecentlyUsed(t *testing.T) {
	ss, _, clock := newEvictingService(t, time.Hour)
	ctx := context.Background()
	_, _ = ss.Create(ctx)
	used, _ := ss.Create(ctx)

	clock.advance(45 * time.Minute)
	if _, err := ss.Get(ctx, used.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.advance(30 * time.Minute)

	if n := ss.EvictIdle(); n != 1 {
		t.Errorf("expected 1 evicted, got %d", n)
	}
	live := ss.snapshot()
	if len(live) != 1 || live[0] != used {
		t.Errorf("expected only %s to stay live, got %d sessions", used.ID, len(live))
	}
}

func TestEvictIdle_RestoresSelectionOnNextGet(t *testing.T) {
	ss, _, clock := newEvictingService(t, time.Hour)
	ctx := context.Background()
	ps, _ := ss.Create(ctx)
	_, _ = ss.SelectTopic(ctx, ps.ID, "Math")
	_, _ = ss.SelectChapter(ctx, ps.ID, "Algebra")

	clock.advance(2 * time.Hour)
	ss.EvictIdle()

	got, err := ss.Get(ctx, ps.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == ps {
		t.Error("expected a rebuilt session after eviction")
	}
	if st := got.Status(); st.Topic != "Math" || st.Chapter != "Algebra" || st.Questions != 1 {
		t.Errorf("unexpected restored status %+v", st)
	}
}

func TestEvictIdle_DisabledWithoutTimeout(t *testing.T) {
	ss, _, _ := newTestService(t)
	_, _ = ss.Create(context.Background())

	if n := ss.EvictIdle(); n != 0 {
		t.Errorf("expected no eviction, got %d", n)
	}
}

func TestMemoryStates_Expire(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemoryStates(time.Hour)
	m.now = clock.now

	_ = m.Save(ctx, "a", SessionState{Topic: "Math"})
	clock.advance(30 * time.Minute)
	if _, ok, _ := m.Load(ctx, "a"); !ok {
		t.Error("expected state before expiry")
	}

	clock.advance(time.Hour)
	_ = m.Save(ctx, "b", SessionState{Topic: "Art"})
	if n := len(m.states); n != 1 {
		t.Errorf("expected expired entry to be swept on save, got %d entries", n)
	}
	if _, ok, _ := m.Load(ctx, "a"); ok {
		t.Error("expected state to expire")
	}
	if st, ok, _ := m.Load(ctx, "b"); !ok || st.Topic != "Art" {
		t.Errorf("unexpected state %+v (ok=%v)", st, ok)
	}
}

func TestDelete(t *testing.T) {
	ss, _, states := newTestService(t)
	ctx := context.Background()
	ps, _ := ss.Create(ctx)

	if err := ss.Delete(ctx, ps.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := states.Load(ctx, ps.ID); ok {
		t.Error("expected state to be deleted")
	}
	if err := ss.Delete(ctx, ps.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestImport_ReloadsOtherSessions(t *testing.T) {
	ss, _, _ := newTestService(t)
	ctx := context.Background()

	a, _ := ss.Create(ctx)
	b, _ := ss.Create(ctx)
	for _, ps := range []string{a.ID, b.ID} {
		_, _ = ss.SelectTopic(ctx, ps, "Math")
		_, _ = ss.SelectChapter(ctx, ps, "Algebra")
	}

	doc := &importer.Document{ChapterName: "Algebra", Questions: []importer.Entry{{Question: "1+1?", Answer: "2"}}}
	if _, err := ss.Import(ctx, a.ID, doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := len(b.WorkingSet()); n != 2 {
		t.Errorf("expected other session to see 2 questions, got %d", n)
	}
}

func TestClearAll_ResetsSessions(t *testing.T) {
	ss, s, states := newTestService(t)
	ctx := context.Background()
	ps, _ := ss.Create(ctx)
	_, _ = ss.SelectTopic(ctx, ps.ID, "Math")
	_, _ = ss.SelectChapter(ctx, ps.ID, "Algebra")

	if err := ss.ClearAll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	topics, _ := s.ListTopics(ctx)
	if len(topics) != 0 {
		t.Errorf("expected no topics, got %v", topics)
	}
	if st := ps.Status(); st.Topic != "" || st.Chapter != "" || st.Questions != 0 {
		t.Errorf("expected reset session, got %+v", st)
	}
	if st, _, _ := states.Load(ctx, ps.ID); st != (SessionState{}) {
		t.Errorf("expected empty saved state, got %+v", st)
	}
}
