package session

import (
	"strings"

	"go.uber.org/zap"
)

// TranscriptEventProcessor normalizes raw speech recognition events into
// TranscriptEvent values. Empty results are suppressed and malformed input
// is dropped; a bad event from the speech engine never brings the session
// down. Ordering is not this component's concern.
type TranscriptEventProcessor struct {
	logger *zap.Logger
}

// NewTranscriptEventProcessor creates a processor
func NewTranscriptEventProcessor(logger *zap.Logger) *TranscriptEventProcessor {
	return &TranscriptEventProcessor{logger: logger}
}

// Process normalizes one raw event. The second return value is false when
// the event is suppressed or dropped.
func (p *TranscriptEventProcessor) Process(raw RawRecognitionEvent) (TranscriptEvent, bool) {
	text := strings.TrimSpace(raw.Transcript)
	if text == "" {
		return TranscriptEvent{}, false
	}

	if raw.Start < 0 || raw.Duration < 0 {
		if p.logger != nil {
			p.logger.Warn("dropping malformed recognition event",
				zap.Float64("start", raw.Start),
				zap.Float64("duration", raw.Duration),
			)
		}
		return TranscriptEvent{}, false
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return TranscriptEvent{
		Text:       text,
		IsFinal:    raw.IsFinal,
		Start:      raw.Start,
		End:        raw.Start + raw.Duration,
		Confidence: confidence,
	}, true
}
