// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/amirphl/Jorougumo/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// LeadRepository defines operations for persisted leads
type LeadRepository interface {
	Repository[models.Lead, models.LeadFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Lead, error)
	ByPlatform(ctx context.Context, platform models.Platform, limit, offset int) ([]*models.Lead, error)
	Delete(ctx context.Context, id uint) error
}

// ContactRepository defines operations for CRM contacts
type ContactRepository interface {
	Repository[models.Contact, models.ContactFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Contact, error)
}

// PendingPostRepository defines operations for generated posts under review
type PendingPostRepository interface {
	Repository[models.PendingPost, models.PendingPostFilter]
	ByUUID(ctx context.Context, uuid string) (*models.PendingPost, error)
	ByStatus(ctx context.Context, status models.PostStatus, limit, offset int) ([]*models.PendingPost, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PendingPost, error)
	Update(ctx context.Context, post models.PendingPost) error
	UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
