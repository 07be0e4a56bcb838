package session

import (
	"context"

	pkgai "github.com/meetscribe/meetscribe/pkg/ai"
)

// RawRecognitionEvent is a single result message from the live speech
// recognition stream, before normalization.
type RawRecognitionEvent struct {
	Transcript string
	IsFinal    bool
	Start      float64
	Duration   float64
	Confidence float64
}

// SpeechStream is an open live recognition stream
type SpeechStream interface {
	// SendAudio forwards a raw audio chunk upstream
	SendAudio(data []byte) error

	// Close finishes the stream, flushing pending results upstream
	Close() error
}

// SpeechRecognizer opens live recognition streams. Results and stream-level
// errors are delivered through the callbacks, from the stream's own
// goroutine.
type SpeechRecognizer interface {
	Start(ctx context.Context, onEvent func(RawRecognitionEvent), onError func(error)) (SpeechStream, error)
}

// Translator translates a single text between the configured languages
type Translator interface {
	TranslateText(ctx context.Context, text, fromLang string) (string, error)
}

// Summarizer produces a meeting summary and action items from a transcript
type Summarizer interface {
	GenerateSummary(ctx context.Context, transcript string) (pkgai.SummaryOutput, error)
}

// AudioStore persists the raw audio of a finished recording
type AudioStore interface {
	UploadRecording(ctx context.Context, meetingID string, data []byte) (string, error)
}

// ClientPusher delivers a server event to the connected client. Push
// failures mean the connection is gone; they are logged, never fatal.
type ClientPusher interface {
	Push(v interface{}) error
}
