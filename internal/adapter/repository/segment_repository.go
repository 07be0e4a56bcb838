package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meetscribe/meetscribe/internal/domain/entities"
)

// SegmentRepository handles transcript segment data operations
type SegmentRepository struct {
	db *gorm.DB
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db *gorm.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// Create persists a new segment
func (r *SegmentRepository) Create(ctx context.Context, segment *entities.Segment) error {
	if segment == nil {
		return errors.New("segment cannot be nil")
	}
	return r.db.WithContext(ctx).Create(segment).Error
}

// UpdateTranslation sets the translated text of a segment. The update is
// keyed by segment id, so applying the same translation twice is harmless.
func (r *SegmentRepository) UpdateTranslation(ctx context.Context, segmentID uuid.UUID, translation string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Segment{}).
		Where("id = ?", segmentID).
		Updates(map[string]interface{}{
			"translated_text": translation,
			"updated_at":      time.Now(),
		}).Error
}

// FindByMeetingID returns all segments of a meeting ordered by start time
func (r *SegmentRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Segment, error) {
	var segments []*entities.Segment
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("start_time ASC").
		Find(&segments).Error; err != nil {
		return nil, err
	}
	return segments, nil
}

// FindByID retrieves a segment by ID
func (r *SegmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Segment, error) {
	var segment entities.Segment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&segment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &segment, nil
}
