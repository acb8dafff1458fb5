package repository

import (
	"context"
	"time"

	"github.com/amirphl/Jorougumo/models"
	"github.com/amirphl/Jorougumo/utils"
	"gorm.io/gorm"
)

// PendingPostRepositoryImpl implements the PendingPostRepository interface
type PendingPostRepositoryImpl struct {
	*BaseRepository[models.PendingPost, models.PendingPostFilter]
}

// NewPendingPostRepository creates a new pending post repository
func NewPendingPostRepository(db *gorm.DB) PendingPostRepository {
	return &PendingPostRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PendingPost, models.PendingPostFilter](db),
	}
}

// ByUUID retrieves a pending post by UUID
func (r *PendingPostRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.PendingPost, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.PendingPostFilter{UUID: &parsedUUID}
	posts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return nil, nil
	}

	return posts[0], nil
}

// ByStatus retrieves pending posts by status with pagination
func (r *PendingPostRepositoryImpl) ByStatus(ctx context.Context, status models.PostStatus, limit, offset int) ([]*models.PendingPost, error) {
	filter := models.PendingPostFilter{Status: &status}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// ListDue retrieves scheduled posts whose publication time has arrived
func (r *PendingPostRepositoryImpl) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PendingPost, error) {
	status := models.PostStatusScheduled
	filter := models.PendingPostFilter{
		Status:    &status,
		DueBefore: &now,
	}
	return r.ByFilter(ctx, filter, "scheduled_for ASC", limit, 0)
}

// Update updates a pending post
func (r *PendingPostRepositoryImpl) Update(ctx context.Context, post models.PendingPost) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := utils.UTCNow()
	post.UpdatedAt = &now

	err = db.Save(&post).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateStatus updates only the status of a pending post
func (r *PendingPostRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.PendingPost{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error

	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves pending posts based on filter criteria
func (r *PendingPostRepositoryImpl) ByFilter(ctx context.Context, filter models.PendingPostFilter, orderBy string, limit, offset int) ([]*models.PendingPost, error) {
	db := r.getDB(ctx)

	var posts []*models.PendingPost
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return posts, nil
}

// Count returns the number of pending posts matching the filter
func (r *PendingPostRepositoryImpl) Count(ctx context.Context, filter models.PendingPostFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.PendingPost{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any pending post matching the filter exists
func (r *PendingPostRepositoryImpl) Exists(ctx context.Context, filter models.PendingPostFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PendingPostRepositoryImpl) applyFilter(db *gorm.DB, filter models.PendingPostFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Platform != nil {
		db = db.Where("platform = ?", *filter.Platform)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ScheduledAfter != nil {
		db = db.Where("scheduled_for >= ?", *filter.ScheduledAfter)
	}
	if filter.DueBefore != nil {
		db = db.Where("scheduled_for <= ?", *filter.DueBefore)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return db
}
