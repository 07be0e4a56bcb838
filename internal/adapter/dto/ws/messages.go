// Package ws defines the JSON messages exchanged with the client over the
// recording WebSocket. Binary frames on the same connection carry raw audio.
package ws

// Message types, client to server
const (
	TypeStartRecording = "start_recording"
	TypeStopRecording  = "stop_recording"
)

// Message types, server to client
const (
	TypeStatus           = "status"
	TypeTranscript       = "transcript"
	TypeTranscriptUpdate = "transcript_update"
	TypeMeetingComplete  = "meeting_complete"
	TypeError            = "error"
)

// Connection status values
const (
	StatusConnected  = "connected"
	StatusProcessing = "processing"
)

// Command is a client-issued control message
type Command struct {
	Type      string `json:"type"`
	MeetingID string `json:"meetingId,omitempty"`
	Title     string `json:"title,omitempty"`
}

// TextPair carries a segment's text in both languages
type TextPair struct {
	Source     string `json:"source"`
	Translated string `json:"translated"`
}

// SegmentPayload is a transcript segment as pushed to the client
type SegmentPayload struct {
	ID         string   `json:"id"`
	StartTime  float64  `json:"startTime"`
	EndTime    float64  `json:"endTime"`
	Text       TextPair `json:"text"`
	Confidence float64  `json:"confidence"`
	Speaker    string   `json:"speaker,omitempty"`
	IsFinal    bool     `json:"isFinal"`
}

// StatusMessage reports connection state changes
type StatusMessage struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

// TranscriptMessage carries a new (partial or final) transcript segment
type TranscriptMessage struct {
	Type    string         `json:"type"`
	Segment SegmentPayload `json:"segment"`
}

// TranscriptUpdateMessage carries a resolved translation for a segment
type TranscriptUpdateMessage struct {
	Type        string `json:"type"`
	SegmentID   string `json:"segmentId"`
	Translation string `json:"translation"`
}

// MeetingCompleteMessage ends a recording session
type MeetingCompleteMessage struct {
	Type        string   `json:"type"`
	MeetingID   string   `json:"meetingId"`
	Summary     string   `json:"summary"`
	ActionItems []string `json:"actionItems"`
}

// ErrorMessage reports a user-visible error
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
