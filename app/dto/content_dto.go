package dto

import (
	"time"
)

// GenerateContentRequest represents the request to generate a social post draft
type GenerateContentRequest struct {
	Platform            string   `json:"platform" validate:"required,oneof=twitter linkedin"`
	Focus               string   `json:"focus" validate:"required,min=3,max=255"`
	Tone                string   `json:"tone,omitempty" validate:"omitempty,max=64"`
	Keywords            []string `json:"keywords,omitempty" validate:"omitempty,dive,min=1"`
	IncludeCallToAction bool     `json:"include_call_to_action,omitempty"`
	InspirationCount    int      `json:"inspiration_count,omitempty" validate:"omitempty,min=1"`
}

// GenerateContentResponse represents the created draft held for review
type GenerateContentResponse struct {
	Message string          `json:"message"`
	Post    PendingPostView `json:"post"`
}

// ReviewPostRequest represents the operator's decision on a pending post
type ReviewPostRequest struct {
	UUID          string     `json:"-"`
	Action        string     `json:"action" validate:"required,oneof=approve schedule reject"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	Modifications *string    `json:"modifications,omitempty" validate:"omitempty,min=1"`
	Reason        *string    `json:"reason,omitempty" validate:"omitempty,max=1024"`
}

// ReviewPostResponse represents the outcome of a review action
type ReviewPostResponse struct {
	Message  string  `json:"message"`
	UUID     string  `json:"uuid"`
	Status   string  `json:"status"`
	PostedID *string `json:"posted_id,omitempty"`
	PostURL  *string `json:"post_url,omitempty"`
}

// ListPendingPostsRequest represents the request to list posts under review
type ListPendingPostsRequest struct {
	Platform *string `json:"platform,omitempty" validate:"omitempty,oneof=twitter linkedin"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=pending_approval scheduled posted rejected failed"`
	Page     int     `json:"page" validate:"min=1"`
	PageSize int     `json:"page_size" validate:"min=1,max=100"`
}

// ListPendingPostsResponse represents a page of posts under review
type ListPendingPostsResponse struct {
	Posts      []PendingPostView `json:"posts"`
	Pagination PaginationView    `json:"pagination"`
}

// PendingPostView is the API projection of a pending post
type PendingPostView struct {
	UUID                string     `json:"uuid"`
	Platform            string     `json:"platform"`
	Content             string     `json:"content"`
	Hashtags            []string   `json:"hashtags"`
	CallToAction        *string    `json:"call_to_action,omitempty"`
	Tone                string     `json:"tone,omitempty"`
	Focus               string     `json:"focus"`
	EstimatedEngagement int        `json:"estimated_engagement"`
	Fallback            bool       `json:"fallback"`
	Status              string     `json:"status"`
	ScheduledFor        *time.Time `json:"scheduled_for,omitempty"`
	PostedID            *string    `json:"posted_id,omitempty"`
	FailureReason       *string    `json:"failure_reason,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// PaginationView carries paging metadata in list responses
type PaginationView struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}
