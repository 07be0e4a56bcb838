package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/meetscribe/meetscribe/errors"
	"github.com/meetscribe/meetscribe/internal/adapter/dto/meeting"
	"github.com/meetscribe/meetscribe/internal/adapter/presenter"
	"github.com/meetscribe/meetscribe/internal/domain/repositories"
	"github.com/meetscribe/meetscribe/internal/infrastructure/cache"
)

// meetingCacheTTL bounds staleness of cached meeting detail responses.
const meetingCacheTTL = 5 * time.Minute

// Meeting handles meeting-related HTTP requests
type Meeting struct {
	meetings repositories.MeetingRepository
	segments repositories.SegmentRepository
	cache    *cache.Store
	logger   *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(
	meetings repositories.MeetingRepository,
	segments repositories.SegmentRepository,
	cacheStore *cache.Store,
	logger *zap.Logger,
) *Meeting {
	return &Meeting{
		meetings: meetings,
		segments: segments,
		cache:    cacheStore,
		logger:   logger,
	}
}

// ListMeetings handles GET /meetings
func (h *Meeting) ListMeetings(c echo.Context) error {
	var req meeting.ListMeetingsRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	filters := repositories.MeetingFilters{
		Limit:  req.PageSize,
		Offset: (req.Page - 1) * req.PageSize,
	}

	meetings, total, err := h.meetings.List(c.Request().Context(), filters)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	return HandleSuccess(h.logger, c, presenter.ToMeetingListResponse(meetings, total, req.Page, req.PageSize))
}

// GetMeeting handles GET /meetings/:id
func (h *Meeting) GetMeeting(c echo.Context) error {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("meeting ID must be a valid UUID"))
	}

	ctx := c.Request().Context()
	cacheKey := MeetingCacheKey(meetingID.String())

	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, cacheKey); ok {
			var detail meeting.MeetingDetailResponse
			if err := json.Unmarshal([]byte(cached), &detail); err == nil {
				return HandleSuccess(h.logger, c, &detail)
			}
			// Corrupt cache entry, fall through to the database
			if err := h.cache.Delete(ctx, cacheKey); err != nil {
				h.logger.Warn("failed to evict cache entry", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}

	m, err := h.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if m == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("meeting"))
	}

	segments, err := h.segments.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	detail := presenter.ToMeetingDetailResponse(m, segments)

	if h.cache != nil {
		if payload, err := json.Marshal(detail); err == nil {
			if err := h.cache.Set(ctx, cacheKey, string(payload), meetingCacheTTL); err != nil {
				h.logger.Warn("failed to cache meeting detail", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}

	return HandleSuccess(h.logger, c, detail)
}

// UpdateMeeting handles PATCH /meetings/:id
func (h *Meeting) UpdateMeeting(c echo.Context) error {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("meeting ID must be a valid UUID"))
	}

	var req meeting.UpdateMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	ctx := c.Request().Context()

	m, err := h.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if m == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("meeting"))
	}

	if err := h.meetings.Update(ctx, meetingID, map[string]interface{}{"title": req.Title}); err != nil {
		return HandleError(h.logger, c, err)
	}
	h.invalidate(c, meetingID.String())

	m.Title = req.Title
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// DeleteMeeting handles DELETE /meetings/:id
func (h *Meeting) DeleteMeeting(c echo.Context) error {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("meeting ID must be a valid UUID"))
	}

	ctx := c.Request().Context()

	m, err := h.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if m == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("meeting"))
	}

	if err := h.meetings.Delete(ctx, meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}
	h.invalidate(c, meetingID.String())

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "meeting deleted successfully",
	})
}

func (h *Meeting) invalidate(c echo.Context, meetingID string) {
	if h.cache == nil {
		return
	}
	key := MeetingCacheKey(meetingID)
	if err := h.cache.Delete(c.Request().Context(), key); err != nil {
		h.logger.Warn("failed to invalidate cache entry", zap.String("key", key), zap.Error(err))
	}
}

// MeetingCacheKey is the Redis key holding a cached meeting detail response
func MeetingCacheKey(meetingID string) string {
	return "meeting:detail:" + meetingID
}
