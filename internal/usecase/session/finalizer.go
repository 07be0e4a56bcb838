package session

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/meetscribe/meetscribe/internal/domain/repositories"
	"github.com/meetscribe/meetscribe/pkg/config"
)

// FinalizationResult is what the client receives in meeting_complete
type FinalizationResult struct {
	Summary     string
	ActionItems []string
}

// FinalizationWorkflow runs when a recording stops: it uploads the buffered
// audio, builds the full source transcript, requests a summary with action
// items, and writes everything back to the meeting record exactly once.
// Every step degrades on failure; a meeting always finishes finalizing.
type FinalizationWorkflow struct {
	meetings    repositories.MeetingRepository
	segments    repositories.SegmentRepository
	summarizer  Summarizer
	audio       AudioStore
	logger      *zap.Logger
	cfg         config.SessionConfig
	onFinalized func(meetingID uuid.UUID)
}

// NewFinalizationWorkflow creates the workflow shared by all sessions
func NewFinalizationWorkflow(
	meetings repositories.MeetingRepository,
	segments repositories.SegmentRepository,
	summarizer Summarizer,
	audio AudioStore,
	cfg config.SessionConfig,
	logger *zap.Logger,
) *FinalizationWorkflow {
	return &FinalizationWorkflow{
		meetings:   meetings,
		segments:   segments,
		summarizer: summarizer,
		audio:      audio,
		logger:     logger,
		cfg:        cfg,
	}
}

// SetOnFinalized registers a hook invoked after every finalization attempt,
// whatever its outcome. Used to evict stale cached meeting details.
func (f *FinalizationWorkflow) SetOnFinalized(fn func(meetingID uuid.UUID)) {
	f.onFinalized = fn
}

// Finalize produces the summary payload for a stopped meeting. It never
// fails: summarization or upload problems yield empty results, not errors.
func (f *FinalizationWorkflow) Finalize(ctx context.Context, meetingID uuid.UUID, audioData []byte) FinalizationResult {
	defer func() {
		if f.onFinalized != nil {
			f.onFinalized(meetingID)
		}
	}()

	f.uploadAudio(ctx, meetingID, audioData)

	segs, err := f.segments.FindByMeetingID(ctx, meetingID)
	if err != nil {
		f.logger.Error("finalization: failed to load segments",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
		return FinalizationResult{ActionItems: []string{}}
	}
	if len(segs) == 0 {
		return FinalizationResult{ActionItems: []string{}}
	}

	parts := make([]string, 0, len(segs))
	for _, seg := range segs {
		parts = append(parts, seg.SourceText)
	}
	transcript := strings.Join(parts, " ")
	// Keep the earliest characters up to the cap rather than fail on long
	// meetings. The cut backs up to a rune boundary so a multi-byte
	// character is never split.
	if f.cfg.TranscriptCharCap > 0 && len(transcript) > f.cfg.TranscriptCharCap {
		cut := f.cfg.TranscriptCharCap
		for cut > 0 && !utf8.RuneStart(transcript[cut]) {
			cut--
		}
		transcript = transcript[:cut]
	}

	sumCtx, cancel := context.WithTimeout(ctx, f.cfg.SummaryTimeout)
	defer cancel()

	out, err := f.summarizer.GenerateSummary(sumCtx, transcript)
	if err != nil {
		f.logger.Error("finalization: summary generation failed",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
		return FinalizationResult{ActionItems: []string{}}
	}
	if out.ActionItems == nil {
		out.ActionItems = []string{}
	}

	f.writeBack(ctx, meetingID, out.Summary, out.ActionItems)

	return FinalizationResult{Summary: out.Summary, ActionItems: out.ActionItems}
}

// uploadAudio stores the session's raw audio buffer; failure is non-fatal
func (f *FinalizationWorkflow) uploadAudio(ctx context.Context, meetingID uuid.UUID, audioData []byte) {
	if f.audio == nil || len(audioData) == 0 {
		return
	}

	url, err := f.audio.UploadRecording(ctx, meetingID.String(), audioData)
	if err != nil {
		f.logger.Error("finalization: audio upload failed",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
		return
	}

	if err := f.meetings.Update(ctx, meetingID, map[string]interface{}{"audio_path": url}); err != nil {
		f.logger.Error("finalization: failed to record audio path",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
	}
}

// writeBack persists summary and action items onto the meeting record
func (f *FinalizationWorkflow) writeBack(ctx context.Context, meetingID uuid.UUID, summary string, actionItems []string) {
	items, err := json.Marshal(actionItems)
	if err != nil {
		f.logger.Error("finalization: failed to encode action items", zap.Error(err))
		items = []byte("[]")
	}

	if err := f.meetings.Update(ctx, meetingID, map[string]interface{}{
		"summary":      summary,
		"action_items": datatypes.JSON(items),
	}); err != nil {
		f.logger.Error("finalization: failed to persist summary",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
	}
}
