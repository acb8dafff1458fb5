package models

import (
	"time"

	"github.com/amirphl/Jorougumo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadProfile is a scored candidate produced by discovery. It is transient:
// either persisted as a Lead when it qualifies or discarded.
type LeadProfile struct {
	Platform      Platform  `json:"platform"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	Bio           string    `json:"bio,omitempty"`
	ProfileURL    string    `json:"profile_url"`
	Followers     int       `json:"followers"`
	Engagement    int       `json:"engagement"`
	Topics        []string  `json:"topics"`
	Sentiment     Sentiment `json:"sentiment"`
	LeadScore     int       `json:"lead_score"` // [0,100]
	RelevantPosts []string  `json:"relevant_posts"`
}

// Qualifies applies the minimum follower/engagement/score thresholds.
// Qualification is an explicit step separate from discovery.
func (p *LeadProfile) Qualifies(minFollowers, minEngagement, minScore int) bool {
	return p.Followers >= minFollowers &&
		p.Engagement >= minEngagement &&
		p.LeadScore >= minScore
}

// Lead is a persisted qualified profile. No uniqueness is enforced on
// (platform, profile_url); duplicate discovery runs may insert duplicates.
type Lead struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_leads_uuid" json:"uuid"`
	Platform      Platform   `gorm:"type:varchar(16);not null;index:idx_leads_platform" json:"platform"`
	Username      string     `gorm:"size:255;not null;index:idx_leads_username" json:"username"`
	DisplayName   string     `gorm:"size:255" json:"display_name"`
	Bio           string     `gorm:"type:text" json:"bio,omitempty"`
	ProfileURL    string     `gorm:"size:512;not null;index:idx_leads_profile_url" json:"profile_url"`
	Followers     int        `gorm:"not null;default:0" json:"followers"`
	Engagement    int        `gorm:"not null;default:0" json:"engagement"`
	Topics        StringList `gorm:"type:jsonb;not null" json:"topics"`
	Sentiment     Sentiment  `gorm:"type:varchar(16);not null;default:'neutral'" json:"sentiment"`
	LeadScore     int        `gorm:"not null;default:0;index:idx_leads_lead_score" json:"lead_score"`
	RelevantPosts StringList `gorm:"type:jsonb;not null" json:"relevant_posts"`
	CreatedAt     time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_leads_created_at" json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Lead) TableName() string {
	return "leads"
}

// BeforeCreate is called before creating a new record
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	if l.Sentiment == "" {
		l.Sentiment = SentimentNeutral
	}
	if l.Topics == nil {
		l.Topics = StringList{}
	}
	if l.RelevantPosts == nil {
		l.RelevantPosts = StringList{}
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (l *Lead) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	l.UpdatedAt = &now
	return nil
}

// FromProfile builds a persistable Lead from a transient profile
func FromProfile(p LeadProfile) *Lead {
	return &Lead{
		Platform:      p.Platform,
		Username:      p.Username,
		DisplayName:   p.DisplayName,
		Bio:           p.Bio,
		ProfileURL:    p.ProfileURL,
		Followers:     p.Followers,
		Engagement:    p.Engagement,
		Topics:        StringList(p.Topics),
		Sentiment:     p.Sentiment,
		LeadScore:     p.LeadScore,
		RelevantPosts: StringList(p.RelevantPosts),
	}
}

// LeadFilter represents filter criteria for leads
type LeadFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Platform      *Platform  `json:"platform,omitempty"`
	Username      *string    `json:"username,omitempty"`
	ProfileURL    *string    `json:"profile_url,omitempty"`
	Sentiment     *Sentiment `json:"sentiment,omitempty"`
	MinLeadScore  *int       `json:"min_lead_score,omitempty"`
	MinFollowers  *int       `json:"min_followers,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
