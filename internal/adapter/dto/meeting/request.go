package meeting

// UpdateMeetingRequest represents the request to rename a meeting
type UpdateMeetingRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// ListMeetingsRequest represents query parameters for listing meetings
type ListMeetingsRequest struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}
