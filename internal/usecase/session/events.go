package session

import "github.com/google/uuid"

// TranscriptEvent is a normalized speech recognition result. Partial events
// are pushed to the client and discarded; final events become segments.
type TranscriptEvent struct {
	Text       string
	IsFinal    bool
	Start      float64
	End        float64
	Confidence float64
}

// event is a message processed by a session's event loop. Events from the
// speech stream, the translation coordinator and the client command channel
// are serialized through a single channel, so state transitions never race.
type event interface {
	isEvent()
}

type transcriptEvent struct {
	TranscriptEvent
}

type translationResolvedEvent struct {
	segmentID   uuid.UUID
	translation string
}

type translationFailedEvent struct {
	segmentID uuid.UUID
	reason    error
}

type stopEvent struct{}

type finalizedEvent struct {
	summary     string
	actionItems []string
}

type abortEvent struct {
	err error
}

func (transcriptEvent) isEvent()          {}
func (translationResolvedEvent) isEvent() {}
func (translationFailedEvent) isEvent()   {}
func (stopEvent) isEvent()                {}
func (finalizedEvent) isEvent()           {}
func (abortEvent) isEvent()               {}
