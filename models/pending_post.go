package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Jorougumo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus represents the review status of a generated post
type PostStatus string

const (
	PostStatusPendingApproval PostStatus = "pending_approval"
	PostStatusScheduled       PostStatus = "scheduled"
	PostStatusPosted          PostStatus = "posted"
	PostStatusRejected        PostStatus = "rejected"
	PostStatusFailed          PostStatus = "failed"
)

// String returns the string representation of the status
func (s PostStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusPendingApproval, PostStatusScheduled,
		PostStatusPosted, PostStatusRejected, PostStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed
func (s PostStatus) IsTerminal() bool {
	return s == PostStatusPosted || s == PostStatusRejected
}

// Scan implements the sql.Scanner interface for PostStatus
func (s *PostStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = PostStatus(v)
	case []byte:
		*s = PostStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PostStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PostStatus
func (s PostStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PostStatus: %s", s)
	}
	return string(s), nil
}

// StringList is a JSONB-backed list of strings
type StringList []string

// Value implements the driver.Valuer interface for StringList
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface for StringList
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	return json.Unmarshal(bytes, l)
}

// PendingPost is a generated social-media draft held for human review.
// It is created by the content generator and mutated only by the approval
// workflow; terminal states are immutable.
type PendingPost struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UUID                uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_pending_posts_uuid" json:"uuid"`
	Platform            Platform   `gorm:"type:varchar(16);not null;index:idx_pending_posts_platform" json:"platform"`
	Content             string     `gorm:"type:text;not null" json:"content"`
	Hashtags            StringList `gorm:"type:jsonb;not null" json:"hashtags"`
	CallToAction        *string    `gorm:"type:text" json:"call_to_action,omitempty"`
	Tone                string     `gorm:"size:64" json:"tone"`
	Focus               string     `gorm:"size:255" json:"focus"`
	EstimatedEngagement int        `gorm:"not null;default:0" json:"estimated_engagement"`
	Fallback            bool       `gorm:"not null;default:false" json:"fallback"`
	Status              PostStatus `gorm:"type:varchar(32);not null;default:'pending_approval';index:idx_pending_posts_status" json:"status"`
	ScheduledFor        *time.Time `gorm:"index:idx_pending_posts_scheduled_for" json:"scheduled_for,omitempty"`
	PostedID            *string    `gorm:"size:255" json:"posted_id,omitempty"`
	FailureReason       *string    `gorm:"type:text" json:"failure_reason,omitempty"`
	CreatedAt           time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_pending_posts_created_at" json:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (PendingPost) TableName() string {
	return "pending_posts"
}

// BeforeCreate is called before creating a new record
func (p *PendingPost) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PostStatusPendingApproval
	}
	if p.Hashtags == nil {
		p.Hashtags = StringList{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (p *PendingPost) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	p.UpdatedAt = &now
	return nil
}

// CanTransitionTo checks if the post can transition to the given status
func (p *PendingPost) CanTransitionTo(newStatus PostStatus) bool {
	switch p.Status {
	case PostStatusPendingApproval:
		return newStatus == PostStatusPosted ||
			newStatus == PostStatusScheduled ||
			newStatus == PostStatusRejected ||
			newStatus == PostStatusFailed
	case PostStatusScheduled:
		return newStatus == PostStatusPosted ||
			newStatus == PostStatusFailed
	case PostStatusFailed:
		return newStatus == PostStatusPosted
	default:
		return false
	}
}

// WithinCharacterLimit reports whether the content fits the platform budget
func (p *PendingPost) WithinCharacterLimit() bool {
	return len([]rune(p.Content)) <= p.Platform.CharacterLimit()
}

// IsDue reports whether a scheduled post is ready for publication
func (p *PendingPost) IsDue(now time.Time) bool {
	return p.Status == PostStatusScheduled &&
		p.ScheduledFor != nil && !p.ScheduledFor.After(now)
}

// PendingPostFilter represents filter criteria for pending posts
type PendingPostFilter struct {
	ID             *uint       `json:"id,omitempty"`
	UUID           *uuid.UUID  `json:"uuid,omitempty"`
	Platform       *Platform   `json:"platform,omitempty"`
	Status         *PostStatus `json:"status,omitempty"`
	ScheduledAfter *time.Time  `json:"scheduled_after,omitempty"`
	DueBefore      *time.Time  `json:"due_before,omitempty"`
	CreatedAfter   *time.Time  `json:"created_after,omitempty"`
	CreatedBefore  *time.Time  `json:"created_before,omitempty"`
}
