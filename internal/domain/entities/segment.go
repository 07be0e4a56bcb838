package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranslationPlaceholder is the provisional translated text stored with a
// segment until its translation resolves. Segments whose translation never
// completes keep this value.
const TranslationPlaceholder = "[翻譯中...]"

// Segment is a finalized, timestamped unit of transcript with source and
// translated text. A segment outlives the session that produced it.
type Segment struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	MeetingID      uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	StartTime      float64   `json:"start_time" gorm:"not null"`
	EndTime        float64   `json:"end_time" gorm:"not null"`
	SourceText     string    `json:"source_text" gorm:"type:text;not null"`
	TranslatedText string    `json:"translated_text" gorm:"type:text"`
	Confidence     float64   `json:"confidence" gorm:"default:0.0"`
	Speaker        string    `json:"speaker,omitempty" gorm:"type:varchar(50)"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Segment) TableName() string {
	return "segments"
}

// NewSegment creates a segment with the translation placeholder in place
func NewSegment(meetingID uuid.UUID, start, end float64, sourceText string, confidence float64) *Segment {
	return &Segment{
		ID:             uuid.New(),
		MeetingID:      meetingID,
		StartTime:      start,
		EndTime:        end,
		SourceText:     sourceText,
		TranslatedText: TranslationPlaceholder,
		Confidence:     confidence,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

// IsTranslated reports whether the segment's translation has resolved
func (s *Segment) IsTranslated() bool {
	return s.TranslatedText != "" && s.TranslatedText != TranslationPlaceholder
}
