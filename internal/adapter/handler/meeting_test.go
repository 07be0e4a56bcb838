package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/meetscribe/meetscribe/internal/domain/entities"
	"github.com/meetscribe/meetscribe/internal/domain/repositories"
	pkgvalidator "github.com/meetscribe/meetscribe/pkg/validator"
)

type stubMeetingRepo struct {
	mu       sync.Mutex
	meetings map[uuid.UUID]*entities.Meeting
	updates  map[uuid.UUID][]map[string]interface{}
}

func newStubMeetingRepo() *stubMeetingRepo {
	return &stubMeetingRepo{
		meetings: make(map[uuid.UUID]*entities.Meeting),
		updates:  make(map[uuid.UUID][]map[string]interface{}),
	}
}

func (r *stubMeetingRepo) Create(ctx context.Context, m *entities.Meeting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meetings[m.ID] = m
	return nil
}

func (r *stubMeetingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meetings[id], nil
}

func (r *stubMeetingRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[id] = append(r.updates[id], fields)
	return nil
}

func (r *stubMeetingRepo) List(ctx context.Context, filters repositories.MeetingFilters) ([]*entities.Meeting, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Meeting, 0, len(r.meetings))
	for _, m := range r.meetings {
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMeetingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.meetings, id)
	return nil
}

type stubSegmentRepo struct {
	mu       sync.Mutex
	segments []*entities.Segment
}

func (r *stubSegmentRepo) Create(ctx context.Context, s *entities.Segment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.segments = append(r.segments, s)
	return nil
}

func (r *stubSegmentRepo) UpdateTranslation(ctx context.Context, segmentID uuid.UUID, translation string) error {
	return nil
}

func (r *stubSegmentRepo) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entities.Segment, 0, len(r.segments))
	for _, s := range r.segments {
		if s.MeetingID == meetingID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *stubSegmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Segment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.segments {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func newTestMeetingHandler() (*Meeting, *stubMeetingRepo, *stubSegmentRepo, *echo.Echo) {
	meetings := newStubMeetingRepo()
	segments := &stubSegmentRepo{}
	h := NewMeetingHandler(meetings, segments, nil, zap.NewNop())
	e := echo.New()
	e.Validator = pkgvalidator.New()
	return h, meetings, segments, e
}

func TestGetMeetingReturnsDetail(t *testing.T) {
	h, meetings, segments, e := newTestMeetingHandler()

	id := uuid.New()
	meetings.Create(context.Background(), entities.NewMeeting(id, "standup"))
	segments.Create(context.Background(), entities.NewSegment(id, 0, 2, "第一句", 0.9))
	segments.Create(context.Background(), entities.NewSegment(id, 2, 4, "第二句", 0.8))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.GetMeeting(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			Meeting struct {
				Title        string `json:"title"`
				SegmentCount int    `json:"segment_count"`
			} `json:"meeting"`
			Segments []struct {
				SourceText string `json:"source_text"`
			} `json:"segments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Data.Meeting.Title != "standup" || body.Data.Meeting.SegmentCount != 2 {
		t.Fatalf("unexpected meeting payload: %+v", body.Data.Meeting)
	}
	if len(body.Data.Segments) != 2 || body.Data.Segments[0].SourceText != "第一句" {
		t.Fatalf("unexpected segments payload: %+v", body.Data.Segments)
	}
}

func TestGetMeetingNotFound(t *testing.T) {
	h, _, _, e := newTestMeetingHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	if err := h.GetMeeting(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetMeetingRejectsBadID(t *testing.T) {
	h, _, _, e := newTestMeetingHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.GetMeeting(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateMeetingRenames(t *testing.T) {
	h, meetings, _, e := newTestMeetingHandler()

	id := uuid.New()
	meetings.Create(context.Background(), entities.NewMeeting(id, ""))

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"title":"renamed"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.UpdateMeeting(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	meetings.mu.Lock()
	updates := meetings.updates[id]
	meetings.mu.Unlock()
	if len(updates) != 1 || updates[0]["title"] != "renamed" {
		t.Fatalf("unexpected updates %v", updates)
	}
}

func TestUpdateMeetingValidatesTitle(t *testing.T) {
	h, meetings, _, e := newTestMeetingHandler()

	id := uuid.New()
	meetings.Create(context.Background(), entities.NewMeeting(id, ""))

	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"title":""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.UpdateMeeting(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty title, got %d", rec.Code)
	}
}

func TestDeleteMeetingRemovesRecord(t *testing.T) {
	h, meetings, _, e := newTestMeetingHandler()

	id := uuid.New()
	meetings.Create(context.Background(), entities.NewMeeting(id, ""))

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := h.DeleteMeeting(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if m, _ := meetings.FindByID(context.Background(), id); m != nil {
		t.Fatal("meeting should be gone")
	}
}

func TestListMeetings(t *testing.T) {
	h, meetings, _, e := newTestMeetingHandler()

	meetings.Create(context.Background(), entities.NewMeeting(uuid.New(), "one"))
	meetings.Create(context.Background(), entities.NewMeeting(uuid.New(), "two"))

	req := httptest.NewRequest(http.MethodGet, "/?page=1&page_size=10", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ListMeetings(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			Meetings []json.RawMessage `json:"meetings"`
			Total    int64             `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Data.Meetings) != 2 || body.Data.Total != 2 {
		t.Fatalf("unexpected list payload: %+v", body.Data)
	}
}
