package models

import (
	"encoding/json"
	"time"
)

// AuditLog records operator actions against the pipeline
type AuditLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Action       string          `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string         `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_audit_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionContentGenerated        = "content_generated"
	AuditActionContentGenerationFailed = "content_generation_failed"
	AuditActionPostApproved            = "post_approved"
	AuditActionPostRejected            = "post_rejected"
	AuditActionPostScheduled           = "post_scheduled"
	AuditActionPostPublished           = "post_published"
	AuditActionPostPublishFailed       = "post_publish_failed"
	AuditActionLeadsDiscovered         = "leads_discovered"
	AuditActionLeadDiscoveryFailed     = "lead_discovery_failed"
	AuditActionLeadConverted           = "lead_converted"
	AuditActionLeadConversionFailed    = "lead_conversion_failed"
	AuditActionLeadsExported           = "leads_exported"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}
