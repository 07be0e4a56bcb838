package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/meetscribe/meetscribe/internal/domain/entities"
)

// MeetingFilters holds pagination for meeting listing
type MeetingFilters struct {
	Limit  int
	Offset int
}

// MeetingRepository defines the interface for meeting data access.
// All operations are keyed by stable ids and safe to retry.
type MeetingRepository interface {
	// Create creates a new meeting
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID retrieves a meeting by its ID (nil when not found)
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// Update applies a partial update to a meeting
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error

	// List retrieves meetings ordered by creation time descending
	List(ctx context.Context, filters MeetingFilters) ([]*entities.Meeting, int64, error)

	// Delete removes a meeting and its segments
	Delete(ctx context.Context, id uuid.UUID) error
}

// SegmentRepository defines the interface for transcript segment access
type SegmentRepository interface {
	// Create persists a new segment
	Create(ctx context.Context, segment *entities.Segment) error

	// UpdateTranslation sets the translated text of a segment.
	// Applying the same translation twice is a no-op.
	UpdateTranslation(ctx context.Context, segmentID uuid.UUID, translation string) error

	// FindByMeetingID returns all segments of a meeting ordered by start time
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Segment, error)

	// FindByID retrieves a segment by its ID (nil when not found)
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Segment, error)
}
