package dto

import (
	"time"
)

// DiscoverLeadsRequest represents the request to run lead discovery
type DiscoverLeadsRequest struct {
	Platform      string   `json:"platform" validate:"required,oneof=twitter linkedin"`
	Keywords      []string `json:"keywords" validate:"required,min=1,dive,min=1"`
	Limit         int      `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	MinFollowers  *int     `json:"min_followers,omitempty" validate:"omitempty,min=0"`
	MinEngagement *int     `json:"min_engagement,omitempty" validate:"omitempty,min=0"`
	MinLeadScore  *int     `json:"min_lead_score,omitempty" validate:"omitempty,min=0,max=100"`
}

// DiscoverLeadsResponse represents the outcome of a discovery run
type DiscoverLeadsResponse struct {
	Message    string     `json:"message"`
	Discovered int        `json:"discovered"`
	Qualified  int        `json:"qualified"`
	Stored     int        `json:"stored"`
	Leads      []LeadView `json:"leads"`
}

// ListLeadsRequest represents the request to list persisted leads
type ListLeadsRequest struct {
	Platform     *string `json:"platform,omitempty" validate:"omitempty,oneof=twitter linkedin"`
	MinLeadScore *int    `json:"min_lead_score,omitempty" validate:"omitempty,min=0,max=100"`
	MinFollowers *int    `json:"min_followers,omitempty" validate:"omitempty,min=0"`
	Page         int     `json:"page" validate:"min=1"`
	PageSize     int     `json:"page_size" validate:"min=1,max=100"`
}

// ListLeadsResponse represents a page of persisted leads
type ListLeadsResponse struct {
	Leads      []LeadView     `json:"leads"`
	Pagination PaginationView `json:"pagination"`
}

// ConvertLeadRequest represents the request to convert a lead to a contact
type ConvertLeadRequest struct {
	UUID    string   `json:"-"`
	Email   *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string  `json:"phone,omitempty" validate:"omitempty,max=64"`
	Company *string  `json:"company,omitempty" validate:"omitempty,max=255"`
	Website *string  `json:"website,omitempty" validate:"omitempty,url"`
	Labels  []string `json:"labels,omitempty" validate:"omitempty,dive,min=1"`
	Notes   *string  `json:"notes,omitempty" validate:"omitempty,max=4096"`
}

// ConvertLeadResponse represents the created contact
type ConvertLeadResponse struct {
	Message string      `json:"message"`
	Contact ContactView `json:"contact"`
}

// ExportLeadsRequest represents the request to export leads as a spreadsheet
type ExportLeadsRequest struct {
	Platform     *string `json:"platform,omitempty" validate:"omitempty,oneof=twitter linkedin"`
	MinLeadScore *int    `json:"min_lead_score,omitempty" validate:"omitempty,min=0,max=100"`
}

// LeadView is the API projection of a lead
type LeadView struct {
	UUID          string    `json:"uuid"`
	Platform      string    `json:"platform"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Bio           string    `json:"bio,omitempty"`
	ProfileURL    string    `json:"profile_url"`
	Followers     int       `json:"followers"`
	Engagement    int       `json:"engagement"`
	Topics        []string  `json:"topics"`
	Sentiment     string    `json:"sentiment"`
	LeadScore     int       `json:"lead_score"`
	RelevantPosts []string  `json:"relevant_posts"`
	CreatedAt     time.Time `json:"created_at"`
}

// ContactView is the API projection of a contact
type ContactView struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Website   *string   `json:"website,omitempty"`
	Labels    []string  `json:"labels"`
	Notes     *string   `json:"notes,omitempty"`
	Source    string    `json:"source"`
	SourceURL *string   `json:"source_url,omitempty"`
	LeadScore int       `json:"lead_score"`
	CreatedAt time.Time `json:"created_at"`
}
