package meeting

import "time"

// MeetingResponse represents a meeting in responses
type MeetingResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	AudioPath       string    `json:"audio_path,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	Summary         string    `json:"summary,omitempty"`
	ActionItems     []string  `json:"action_items"`
	SegmentCount    int       `json:"segment_count,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SegmentResponse represents one transcript segment in responses
type SegmentResponse struct {
	ID             string  `json:"id"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	SourceText     string  `json:"source_text"`
	TranslatedText string  `json:"translated_text"`
	Confidence     float64 `json:"confidence"`
	Speaker        string  `json:"speaker,omitempty"`
}

// MeetingDetailResponse is a meeting together with its ordered transcript
type MeetingDetailResponse struct {
	Meeting  *MeetingResponse   `json:"meeting"`
	Segments []*SegmentResponse `json:"segments"`
}

// MeetingListResponse is a paginated list of meetings
type MeetingListResponse struct {
	Meetings   []*MeetingResponse `json:"meetings"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}
