package presenter

import (
	"github.com/meetscribe/meetscribe/internal/adapter/dto/meeting"
	"github.com/meetscribe/meetscribe/internal/domain/entities"
)

// ToMeetingResponse converts a Meeting entity to MeetingResponse DTO
func ToMeetingResponse(m *entities.Meeting) *meeting.MeetingResponse {
	if m == nil {
		return nil
	}

	actionItems := m.ActionItems
	if actionItems == nil {
		actionItems = []string{}
	}

	return &meeting.MeetingResponse{
		ID:              m.ID.String(),
		Title:           m.Title,
		AudioPath:       m.AudioPath,
		DurationSeconds: m.DurationSeconds,
		Summary:         m.Summary,
		ActionItems:     actionItems,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ToSegmentResponse converts a Segment entity to SegmentResponse DTO
func ToSegmentResponse(s *entities.Segment) *meeting.SegmentResponse {
	if s == nil {
		return nil
	}

	return &meeting.SegmentResponse{
		ID:             s.ID.String(),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		SourceText:     s.SourceText,
		TranslatedText: s.TranslatedText,
		Confidence:     s.Confidence,
		Speaker:        s.Speaker,
	}
}

// ToMeetingDetailResponse combines a meeting and its ordered transcript
func ToMeetingDetailResponse(m *entities.Meeting, segments []*entities.Segment) *meeting.MeetingDetailResponse {
	segmentResponses := make([]*meeting.SegmentResponse, len(segments))
	for i, s := range segments {
		segmentResponses[i] = ToSegmentResponse(s)
	}

	resp := ToMeetingResponse(m)
	resp.SegmentCount = len(segments)

	return &meeting.MeetingDetailResponse{
		Meeting:  resp,
		Segments: segmentResponses,
	}
}

// ToMeetingListResponse converts a slice of Meeting entities to MeetingListResponse
func ToMeetingListResponse(meetings []*entities.Meeting, total int64, page, pageSize int) *meeting.MeetingListResponse {
	meetingResponses := make([]*meeting.MeetingResponse, len(meetings))
	for i, m := range meetings {
		meetingResponses[i] = ToMeetingResponse(m)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}

	return &meeting.MeetingListResponse{
		Meetings:   meetingResponses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
