package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/meetscribe/internal/domain/entities"
)

// recordingSink collects delivered events; accept=false simulates a
// terminated session loop.
type recordingSink struct {
	mu     sync.Mutex
	events []event
	accept bool
}

func (s *recordingSink) deliver(ev event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accept {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *recordingSink) snapshot() []event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]event, len(s.events))
	copy(out, s.events)
	return out
}

type transientErr struct{}

func (transientErr) Error() string   { return "temporarily unavailable" }
func (transientErr) Transient() bool { return true }

func newTestCoordinator(tr *fakeTranslator, segments *fakeSegmentRepo, timeout time.Duration) (*TranslationCoordinator, *recordingSink) {
	c := NewTranslationCoordinator(tr, segments, "zh", timeout, zap.NewNop())
	sink := &recordingSink{accept: true}
	c.Bind(sink)
	return c, sink
}

func TestCoordinatorResolvesTranslation(t *testing.T) {
	segments := newFakeSegmentRepo()
	c, sink := newTestCoordinator(&fakeTranslator{}, segments, time.Second)

	id := uuid.New()
	c.Submit(id, "你好")

	waitFor(t, "resolved event", func() bool {
		for _, ev := range sink.snapshot() {
			if r, ok := ev.(translationResolvedEvent); ok {
				return r.segmentID == id && r.translation == "translated: 你好"
			}
		}
		return false
	})

	waitFor(t, "pending map drained", func() bool { return c.PendingCount() == 0 })
}

func TestCoordinatorDuplicateSubmitIsNoop(t *testing.T) {
	gate := make(chan struct{})
	tr := &fakeTranslator{fn: func(ctx context.Context, text, fromLang string) (string, error) {
		<-gate
		return "done", nil
	}}
	segments := newFakeSegmentRepo()
	c, sink := newTestCoordinator(tr, segments, time.Second)

	id := uuid.New()
	c.Submit(id, "text")
	c.Submit(id, "text")
	c.Submit(id, "text")

	if got := c.PendingCount(); got != 1 {
		t.Fatalf("expected 1 pending request, got %d", got)
	}
	close(gate)

	waitFor(t, "single resolution", func() bool {
		resolved := 0
		for _, ev := range sink.snapshot() {
			if _, ok := ev.(translationResolvedEvent); ok {
				resolved++
			}
		}
		return resolved == 1
	})
	if tr.callCount() != 1 {
		t.Fatalf("expected 1 provider call, got %d", tr.callCount())
	}
}

func TestCoordinatorRetriesTransientError(t *testing.T) {
	var mu sync.Mutex
	attempt := 0
	tr := &fakeTranslator{fn: func(ctx context.Context, text, fromLang string) (string, error) {
		mu.Lock()
		attempt++
		n := attempt
		mu.Unlock()
		if n == 1 {
			return "", transientErr{}
		}
		return "second try", nil
	}}
	segments := newFakeSegmentRepo()
	c, sink := newTestCoordinator(tr, segments, 10*time.Second)

	id := uuid.New()
	c.Submit(id, "text")

	waitFor(t, "resolution after retry", func() bool {
		for _, ev := range sink.snapshot() {
			if r, ok := ev.(translationResolvedEvent); ok {
				return r.translation == "second try"
			}
		}
		return false
	})
	if tr.callCount() != 2 {
		t.Fatalf("expected 2 provider calls, got %d", tr.callCount())
	}
}

func TestCoordinatorPermanentFailure(t *testing.T) {
	permanent := errors.New("bad request")
	tr := &fakeTranslator{fn: func(ctx context.Context, text, fromLang string) (string, error) {
		return "", permanent
	}}
	segments := newFakeSegmentRepo()
	c, sink := newTestCoordinator(tr, segments, 10*time.Second)

	id := uuid.New()
	c.Submit(id, "text")

	waitFor(t, "failure event", func() bool {
		for _, ev := range sink.snapshot() {
			if f, ok := ev.(translationFailedEvent); ok {
				return f.segmentID == id && errors.Is(f.reason, permanent)
			}
		}
		return false
	})
	if tr.callCount() != 1 {
		t.Fatalf("permanent error must not be retried, got %d calls", tr.callCount())
	}
	if _, ok := segments.translationOf(id); ok {
		t.Fatal("failed translation must not touch the segment")
	}
}

func TestCoordinatorTimeoutThenLateSuccess(t *testing.T) {
	release := make(chan struct{})
	tr := &fakeTranslator{fn: func(ctx context.Context, text, fromLang string) (string, error) {
		<-release
		return "late but valid", nil
	}}
	segments := newFakeSegmentRepo()
	c, sink := newTestCoordinator(tr, segments, 20*time.Millisecond)

	id := uuid.New()
	c.Submit(id, "text")

	waitFor(t, "timeout failure event", func() bool {
		for _, ev := range sink.snapshot() {
			if f, ok := ev.(translationFailedEvent); ok {
				return errors.Is(f.reason, errTranslationTimeout)
			}
		}
		return false
	})

	close(release)

	// The late success still reaches the bound session.
	waitFor(t, "late resolution", func() bool {
		for _, ev := range sink.snapshot() {
			if r, ok := ev.(translationResolvedEvent); ok {
				return r.segmentID == id && r.translation == "late but valid"
			}
		}
		return false
	})
}

func TestCoordinatorLateSuccessAfterSessionEnd(t *testing.T) {
	release := make(chan struct{})
	tr := &fakeTranslator{fn: func(ctx context.Context, text, fromLang string) (string, error) {
		<-release
		return "posthumous", nil
	}}
	segments := newFakeSegmentRepo()
	seg := &fakeSegmentRepoSeed{repo: segments}
	id := seg.add()

	c, sink := newTestCoordinator(tr, segments, time.Second)
	c.Submit(id, "text")

	// Simulate the session loop terminating before the provider answers.
	sink.mu.Lock()
	sink.accept = false
	sink.mu.Unlock()
	c.Detach()

	close(release)

	waitFor(t, "direct store write", func() bool {
		got, ok := segments.translationOf(id)
		return ok && got == "posthumous"
	})
}

func TestCoordinatorPersistsBeforeDelivery(t *testing.T) {
	segments := newFakeSegmentRepo()
	seg := &fakeSegmentRepoSeed{repo: segments}
	id := seg.add()

	c, sink := newTestCoordinator(&fakeTranslator{}, segments, time.Second)
	c.Submit(id, "text")

	waitFor(t, "resolved event delivered", func() bool {
		for _, ev := range sink.snapshot() {
			if _, ok := ev.(translationResolvedEvent); ok {
				return true
			}
		}
		return false
	})

	// The store write precedes delivery, so a session loop that terminates
	// right after accepting the event cannot lose the translation.
	if got, ok := segments.translationOf(id); !ok || got != "translated: text" {
		t.Fatalf("expected translation persisted by delivery time, got %q (ok=%v)", got, ok)
	}
}

func TestCoordinatorAppliesResolutionOnce(t *testing.T) {
	segments := newFakeSegmentRepo()
	c, sink := newTestCoordinator(&fakeTranslator{}, segments, time.Second)

	id := uuid.New()
	c.Submit(id, "text")

	waitFor(t, "first resolution", func() bool {
		return len(sink.snapshot()) == 1
	})

	// A duplicate completion for the same segment is dropped.
	c.applyResolution(id, "translated again")

	time.Sleep(20 * time.Millisecond)
	if got := len(sink.snapshot()); got != 1 {
		t.Fatalf("expected exactly 1 delivered event, got %d", got)
	}
}

// fakeSegmentRepoSeed creates persisted segments for coordinator tests
type fakeSegmentRepoSeed struct {
	repo *fakeSegmentRepo
}

func (s *fakeSegmentRepoSeed) add() uuid.UUID {
	seg := entities.NewSegment(uuid.New(), 0, 1, "text", 0.8)
	_ = s.repo.Create(context.Background(), seg)
	return seg.ID
}
