package models

import (
	"time"

	"github.com/amirphl/Jorougumo/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contact is a CRM contact created by converting a lead. Conversion is a
// move: the source lead row is deleted in the same transaction, and the
// contact's lead score is recomputed from the contact rubric rather than
// copied from the lead.
type Contact struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_contacts_uuid" json:"uuid"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Email       *string    `gorm:"size:255;index:idx_contacts_email" json:"email,omitempty"`
	Phone       *string    `gorm:"size:64" json:"phone,omitempty"`
	Company     *string    `gorm:"size:255" json:"company,omitempty"`
	Website     *string    `gorm:"size:512" json:"website,omitempty"`
	Labels      StringList `gorm:"type:jsonb;not null" json:"labels"`
	Notes       *string    `gorm:"type:text" json:"notes,omitempty"`
	Source      string     `gorm:"size:64;not null;default:'lead_conversion'" json:"source"`
	SourceURL   *string    `gorm:"size:512" json:"source_url,omitempty"`
	LeadScore   int        `gorm:"not null;default:0" json:"lead_score"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_contacts_created_at" json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Contact) TableName() string {
	return "contacts"
}

// BeforeCreate is called before creating a new record
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Labels == nil {
		c.Labels = StringList{}
	}
	if c.Source == "" {
		c.Source = "lead_conversion"
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Contact) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// ContactFilter represents filter criteria for contacts
type ContactFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Company       *string    `json:"company,omitempty"`
	Source        *string    `json:"source,omitempty"`
	MinLeadScore  *int       `json:"min_lead_score,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
