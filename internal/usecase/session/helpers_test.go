package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetscribe/meetscribe/internal/domain/entities"
	"github.com/meetscribe/meetscribe/internal/domain/repositories"
	pkgai "github.com/meetscribe/meetscribe/pkg/ai"
	"github.com/meetscribe/meetscribe/pkg/config"
)

// fakeMeetingRepo is an in-memory MeetingRepository
type fakeMeetingRepo struct {
	mu        sync.Mutex
	meetings  map[uuid.UUID]*entities.Meeting
	updates   map[uuid.UUID][]map[string]interface{}
	createErr error
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{
		meetings: make(map[uuid.UUID]*entities.Meeting),
		updates:  make(map[uuid.UUID][]map[string]interface{}),
	}
}

func (r *fakeMeetingRepo) Create(ctx context.Context, meeting *entities.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.meetings[meeting.ID] = meeting
	return nil
}

func (r *fakeMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meetings[id], nil
}

func (r *fakeMeetingRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[id] = append(r.updates[id], fields)
	return nil
}

func (r *fakeMeetingRepo) List(ctx context.Context, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Meeting, 0, len(r.meetings))
	for _, m := range r.meetings {
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *fakeMeetingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.meetings, id)
	return nil
}

func (r *fakeMeetingRepo) updatedField(id uuid.UUID, key string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, fields := range r.updates[id] {
		if v, ok := fields[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// fakeSegmentRepo is an in-memory SegmentRepository
type fakeSegmentRepo struct {
	mu           sync.Mutex
	segments     map[uuid.UUID]*entities.Segment
	order        []uuid.UUID
	createErr    error
	translations map[uuid.UUID]string
}

func newFakeSegmentRepo() *fakeSegmentRepo {
	return &fakeSegmentRepo{
		segments:     make(map[uuid.UUID]*entities.Segment),
		translations: make(map[uuid.UUID]string),
	}
}

func (r *fakeSegmentRepo) Create(ctx context.Context, segment *entities.Segment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.segments[segment.ID] = segment
	r.order = append(r.order, segment.ID)
	return nil
}

func (r *fakeSegmentRepo) UpdateTranslation(ctx context.Context, segmentID uuid.UUID, translation string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.translations[segmentID] = translation
	if seg, ok := r.segments[segmentID]; ok {
		seg.TranslatedText = translation
	}
	return nil
}

func (r *fakeSegmentRepo) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Segment, 0, len(r.order))
	for _, id := range r.order {
		if seg := r.segments[id]; seg != nil && seg.MeetingID == meetingID {
			out = append(out, seg)
		}
	}
	return out, nil
}

func (r *fakeSegmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.segments[id], nil
}

func (r *fakeSegmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.segments)
}

func (r *fakeSegmentRepo) translationOf(id uuid.UUID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.translations[id]
	return t, ok
}

// fakeTranslator runs the provided function for every request
type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, text, fromLang string) (string, error)
}

func (t *fakeTranslator) TranslateText(ctx context.Context, text, fromLang string) (string, error) {
	t.mu.Lock()
	t.calls++
	fn := t.fn
	t.mu.Unlock()
	if fn == nil {
		return "translated: " + text, nil
	}
	return fn(ctx, text, fromLang)
}

func (t *fakeTranslator) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// fakeSummarizer returns a canned summary
type fakeSummarizer struct {
	mu         sync.Mutex
	out        pkgai.SummaryOutput
	err        error
	transcript string
}

func (s *fakeSummarizer) GenerateSummary(ctx context.Context, transcript string) (pkgai.SummaryOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = transcript
	return s.out, s.err
}

func (s *fakeSummarizer) lastTranscript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// fakeStream records forwarded audio and close calls
type fakeStream struct {
	mu     sync.Mutex
	audio  [][]byte
	closed bool
}

func (s *fakeStream) SendAudio(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, data)
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeRecognizer exposes the callbacks so tests inject recognition events
type fakeRecognizer struct {
	mu       sync.Mutex
	stream   *fakeStream
	onEvent  func(RawRecognitionEvent)
	onError  func(error)
	startErr error
}

func (r *fakeRecognizer) Start(ctx context.Context, onEvent func(RawRecognitionEvent), onError func(error)) (SpeechStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return nil, r.startErr
	}
	r.stream = &fakeStream{}
	r.onEvent = onEvent
	r.onError = onError
	return r.stream, nil
}

func (r *fakeRecognizer) emit(ev RawRecognitionEvent) {
	r.mu.Lock()
	onEvent := r.onEvent
	r.mu.Unlock()
	onEvent(ev)
}

// capturePusher records everything pushed to the client
type capturePusher struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (p *capturePusher) Push(v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, v)
	return nil
}

func (p *capturePusher) find(pred func(interface{}) bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.msgs {
		if pred(m) {
			return true
		}
	}
	return false
}

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		TranslationTimeout: 100 * time.Millisecond,
		SummaryTimeout:     time.Second,
		TranscriptCharCap:  16000,
		EventBuffer:        16,
	}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type testEnv struct {
	meetings   *fakeMeetingRepo
	segments   *fakeSegmentRepo
	translator *fakeTranslator
	summarizer *fakeSummarizer
	recognizer *fakeRecognizer
	manager    *Manager
}

func newTestEnv() *testEnv {
	env := &testEnv{
		meetings:   newFakeMeetingRepo(),
		segments:   newFakeSegmentRepo(),
		translator: &fakeTranslator{},
		summarizer: &fakeSummarizer{},
		recognizer: &fakeRecognizer{},
	}
	cfg := testSessionConfig()
	finalizer := NewFinalizationWorkflow(env.meetings, env.segments, env.summarizer, nil, cfg, zap.NewNop())
	env.manager = NewManager(Deps{
		Recognizer: env.recognizer,
		Translator: env.translator,
		Meetings:   env.meetings,
		Segments:   env.segments,
		Finalizer:  finalizer,
		Config:     cfg,
		SourceLang: "zh",
	}, zap.NewNop())
	return env
}
