package entities

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMeetingTitle is used when the client does not provide a title
const DefaultMeetingTitle = "會議記錄"

// Meeting is the durable record aggregating a recording session's
// segments, summary and metadata. It is created when recording starts so
// that partially recorded sessions remain addressable.
type Meeting struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Title           string    `json:"title" gorm:"type:varchar(255);not null"`
	AudioPath       string    `json:"audio_path,omitempty" gorm:"type:varchar(512)"`
	DurationSeconds int       `json:"duration_seconds" gorm:"default:0"`
	Summary         string    `json:"summary,omitempty" gorm:"type:text"`
	ActionItems     []string  `json:"action_items,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a new meeting record
func NewMeeting(id uuid.UUID, title string) *Meeting {
	if title == "" {
		title = DefaultMeetingTitle
	}
	return &Meeting{
		ID:        id,
		Title:     title,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
