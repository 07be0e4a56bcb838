package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/meetscribe/meetscribe/errors"
	"github.com/meetscribe/meetscribe/internal/adapter/dto/ws"
	"github.com/meetscribe/meetscribe/internal/domain/entities"
	"github.com/meetscribe/meetscribe/internal/domain/repositories"
	"github.com/meetscribe/meetscribe/pkg/config"
)

// State is a session lifecycle state
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
	StateCompleted  State = "completed"
	StateAborted    State = "aborted"
)

// Terminal reports whether the state is final
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// opTimeout bounds individual store operations issued from the event loop
const opTimeout = 10 * time.Second

// Deps bundles the collaborators a session needs
type Deps struct {
	Recognizer SpeechRecognizer
	Translator Translator
	Meetings   repositories.MeetingRepository
	Segments   repositories.SegmentRepository
	Finalizer  *FinalizationWorkflow
	Config     config.SessionConfig
	SourceLang string
}

// Session is the live coordination state for one active recording
// connection. Events from the speech stream, the translation coordinator
// and the client command channel are serialized into a single event loop
// goroutine, so every state transition observes a consistent session.
type Session struct {
	id     uuid.UUID
	deps   Deps
	logger *zap.Logger
	pusher ClientPusher

	processor    *TranscriptEventProcessor
	translations *TranslationCoordinator
	stream       SpeechStream

	startedAt    time.Time
	segmentCount int

	mu    sync.RWMutex
	state State

	events    chan event
	done      chan struct{}
	closeOnce sync.Once

	audioMu sync.Mutex
	audio   bytes.Buffer
}

// newSession wires a session; the manager is the only caller
func newSession(id uuid.UUID, pusher ClientPusher, deps Deps, logger *zap.Logger) *Session {
	s := &Session{
		id:        id,
		deps:      deps,
		logger:    logger,
		pusher:    pusher,
		processor: NewTranscriptEventProcessor(logger),
		state:     StateIdle,
		events:    make(chan event, deps.Config.EventBuffer),
		done:      make(chan struct{}),
	}
	s.translations = NewTranslationCoordinator(
		deps.Translator,
		deps.Segments,
		deps.SourceLang,
		deps.Config.TranslationTimeout,
		logger,
	)
	s.translations.Bind(s)
	return s
}

// start creates the meeting record, opens the speech stream and launches
// the event loop. Idle → Recording.
func (s *Session) start(ctx context.Context, title string) error {
	meeting := entities.NewMeeting(s.id, title)
	if err := s.deps.Meetings.Create(ctx, meeting); err != nil {
		return apperrors.ErrDBQueryFailed("create meeting", err)
	}

	stream, err := s.deps.Recognizer.Start(ctx, s.onRecognitionEvent, s.onRecognitionError)
	if err != nil {
		return apperrors.ErrRecognitionConnectFailed(err)
	}

	s.stream = stream
	s.startedAt = time.Now()
	s.setState(StateRecording)
	go s.run()

	s.logger.Info("recording session started",
		zap.String("meeting_id", s.id.String()),
	)
	return nil
}

// ID returns the meeting id this session records into
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stop requests the Recording → Finalizing transition
func (s *Session) Stop() {
	s.deliver(stopEvent{})
}

// Abort forces the session to its Aborted terminal state. Used on
// connection close and on fatal errors; a nil err means plain disconnect.
func (s *Session) Abort(err error) {
	s.deliver(abortEvent{err: err})
}

// HandleAudio forwards a binary audio chunk to the speech stream and keeps
// a copy for the recording upload. Chunks outside Recording are dropped.
func (s *Session) HandleAudio(data []byte) {
	if s.State() != StateRecording {
		return
	}

	s.audioMu.Lock()
	s.audio.Write(data)
	s.audioMu.Unlock()

	if err := s.stream.SendAudio(data); err != nil {
		s.logger.Warn("failed to forward audio chunk",
			zap.String("meeting_id", s.id.String()),
			zap.Error(err),
		)
	}
}

// deliver serializes an event into the loop; false once the loop is done.
// This is also the translation coordinator's sink.
func (s *Session) deliver(ev event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// onRecognitionEvent runs on the speech stream's read goroutine
func (s *Session) onRecognitionEvent(raw RawRecognitionEvent) {
	ev, ok := s.processor.Process(raw)
	if !ok {
		return
	}
	s.deliver(transcriptEvent{ev})
}

// onRecognitionError surfaces stream-level errors to the client; the
// session keeps running so a transient engine hiccup does not end it.
func (s *Session) onRecognitionError(err error) {
	s.logger.Error("speech recognition stream error",
		zap.String("meeting_id", s.id.String()),
		zap.Error(err),
	)
	s.push(ws.ErrorMessage{Type: ws.TypeError, Error: "Speech recognition error"})
}

// run is the per-session event loop; every transition happens here
func (s *Session) run() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			switch e := ev.(type) {
			case transcriptEvent:
				s.handleTranscript(e.TranscriptEvent)
			case translationResolvedEvent:
				s.handleTranslationResolved(e)
			case translationFailedEvent:
				s.handleTranslationFailed(e)
			case stopEvent:
				s.handleStop()
			case finalizedEvent:
				s.handleFinalized(e)
			case abortEvent:
				s.handleAbort(e)
			}
		}
	}
}

func (s *Session) handleTranscript(ev TranscriptEvent) {
	if s.State() != StateRecording {
		return
	}

	if !ev.IsFinal {
		// Transient update only; partials are never persisted.
		s.push(ws.TranscriptMessage{
			Type: ws.TypeTranscript,
			Segment: ws.SegmentPayload{
				ID:         uuid.NewString(),
				StartTime:  ev.Start,
				EndTime:    ev.End,
				Text:       ws.TextPair{Source: ev.Text, Translated: entities.TranslationPlaceholder},
				Confidence: ev.Confidence,
			},
		})
		return
	}

	seg := entities.NewSegment(s.id, ev.Start, ev.End, ev.Text, ev.Confidence)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.deps.Segments.Create(ctx, seg); err != nil {
		s.fatal(apperrors.ErrDBQueryFailed("create segment", err))
		return
	}
	s.segmentCount++

	s.push(ws.TranscriptMessage{
		Type: ws.TypeTranscript,
		Segment: ws.SegmentPayload{
			ID:         seg.ID.String(),
			StartTime:  seg.StartTime,
			EndTime:    seg.EndTime,
			Text:       ws.TextPair{Source: seg.SourceText, Translated: seg.TranslatedText},
			Confidence: seg.Confidence,
			IsFinal:    true,
		},
	})

	s.translations.Submit(seg.ID, seg.SourceText)
}

func (s *Session) handleTranslationResolved(ev translationResolvedEvent) {
	// The coordinator already persisted the translation before delivering
	// this event; the loop only fans it out to the client.
	if s.State().Terminal() {
		return
	}

	s.push(ws.TranscriptUpdateMessage{
		Type:        ws.TypeTranscriptUpdate,
		SegmentID:   ev.segmentID.String(),
		Translation: ev.translation,
	})
}

func (s *Session) handleTranslationFailed(ev translationFailedEvent) {
	// Placeholder stays in place; nothing to persist or push.
	s.logger.Debug("translation unresolved",
		zap.String("segment_id", ev.segmentID.String()),
		zap.Error(ev.reason),
	)
}

func (s *Session) handleStop() {
	if s.State() != StateRecording {
		s.logger.Debug("stop ignored outside recording state",
			zap.String("meeting_id", s.id.String()),
			zap.String("state", string(s.State())),
		)
		return
	}

	s.setState(StateFinalizing)

	if err := s.stream.Close(); err != nil {
		s.logger.Warn("failed to close speech stream",
			zap.String("meeting_id", s.id.String()),
			zap.Error(err),
		)
	}

	duration := int(time.Since(s.startedAt) / time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := s.deps.Meetings.Update(ctx, s.id, map[string]interface{}{"duration_seconds": duration}); err != nil {
		s.logger.Error("failed to persist meeting duration",
			zap.String("meeting_id", s.id.String()),
			zap.Error(err),
		)
	}

	s.push(ws.StatusMessage{Type: ws.TypeStatus, Status: ws.StatusProcessing})

	// Finalization never blocks the loop; translations still pending at
	// this instant resolve against the persisted segments.
	s.audioMu.Lock()
	audioData := s.audio.Bytes()
	s.audioMu.Unlock()

	go func() {
		res := s.deps.Finalizer.Finalize(context.Background(), s.id, audioData)
		s.deliver(finalizedEvent{summary: res.Summary, actionItems: res.ActionItems})
	}()
}

func (s *Session) handleFinalized(ev finalizedEvent) {
	if s.State() != StateFinalizing {
		return
	}

	s.push(ws.MeetingCompleteMessage{
		Type:        ws.TypeMeetingComplete,
		MeetingID:   s.id.String(),
		Summary:     ev.summary,
		ActionItems: ev.actionItems,
	})

	s.logger.Info("meeting completed",
		zap.String("meeting_id", s.id.String()),
		zap.Int("segments", s.segmentCount),
		zap.Int("duration_seconds", int(time.Since(s.startedAt)/time.Second)),
	)

	s.setState(StateCompleted)
	s.translations.Detach()
	s.terminate()
}

func (s *Session) handleAbort(ev abortEvent) {
	if s.State().Terminal() {
		return
	}

	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			s.logger.Debug("speech stream close on abort", zap.Error(err))
		}
	}
	if ev.err != nil {
		s.pushError(ev.err)
	}

	s.logger.Info("recording session aborted",
		zap.String("meeting_id", s.id.String()),
		zap.Int("segments", s.segmentCount),
		zap.Error(ev.err),
	)

	s.setState(StateAborted)
	s.translations.Detach()
	s.terminate()
}

// fatal handles unrecoverable errors discovered inside the loop
func (s *Session) fatal(err error) {
	s.logger.Error("fatal session error",
		zap.String("meeting_id", s.id.String()),
		zap.Error(err),
	)
	s.handleAbort(abortEvent{err: err})
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) terminate() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *Session) push(v interface{}) {
	if err := s.pusher.Push(v); err != nil {
		s.logger.Debug("client push failed",
			zap.String("meeting_id", s.id.String()),
			zap.Error(err),
		)
	}
}

func (s *Session) pushError(err error) {
	var appErr apperrors.AppError
	msg := "Failed to process message"
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	s.push(ws.ErrorMessage{Type: ws.TypeError, Error: msg})
}
