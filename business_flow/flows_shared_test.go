package businessflow

import (
	"context"
	"time"

	"github.com/amirphl/Jorougumo/models"
	"github.com/google/uuid"
)

// In-memory repository fakes. WithTransaction passes straight through on a
// nil *gorm.DB, so the flows run against these without a database.

type fakePostRepo struct {
	posts  []*models.PendingPost
	nextID uint

	saveErr error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{}
}

func (r *fakePostRepo) ByID(ctx context.Context, id uint) (*models.PendingPost, error) {
	for _, p := range r.posts {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePostRepo) ByFilter(ctx context.Context, filter models.PendingPostFilter, orderBy string, limit, offset int) ([]*models.PendingPost, error) {
	out := make([]*models.PendingPost, 0)
	for _, p := range r.posts {
		if !matchPost(p, filter) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	if offset > 0 {
		if offset >= len(out) {
			return []*models.PendingPost{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func matchPost(p *models.PendingPost, filter models.PendingPostFilter) bool {
	if filter.Platform != nil && p.Platform != *filter.Platform {
		return false
	}
	if filter.Status != nil && p.Status != *filter.Status {
		return false
	}
	if filter.UUID != nil && p.UUID != *filter.UUID {
		return false
	}
	return true
}

func (r *fakePostRepo) Save(ctx context.Context, post *models.PendingPost) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nextID++
	post.ID = r.nextID
	if post.UUID == uuid.Nil {
		post.UUID = uuid.New()
	}
	if post.Status == "" {
		post.Status = models.PostStatusPendingApproval
	}
	if post.Hashtags == nil {
		post.Hashtags = models.StringList{}
	}
	cp := *post
	r.posts = append(r.posts, &cp)
	return nil
}

func (r *fakePostRepo) SaveBatch(ctx context.Context, posts []*models.PendingPost) error {
	for _, p := range posts {
		if err := r.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakePostRepo) Count(ctx context.Context, filter models.PendingPostFilter) (int64, error) {
	found, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), nil
}

func (r *fakePostRepo) Exists(ctx context.Context, filter models.PendingPostFilter) (bool, error) {
	n, _ := r.Count(ctx, filter)
	return n > 0, nil
}

func (r *fakePostRepo) ByUUID(ctx context.Context, id string) (*models.PendingPost, error) {
	for _, p := range r.posts {
		if p.UUID.String() == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePostRepo) ByStatus(ctx context.Context, status models.PostStatus, limit, offset int) ([]*models.PendingPost, error) {
	return r.ByFilter(ctx, models.PendingPostFilter{Status: &status}, "", limit, offset)
}

func (r *fakePostRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PendingPost, error) {
	out := make([]*models.PendingPost, 0)
	for _, p := range r.posts {
		if p.IsDue(now) {
			cp := *p
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakePostRepo) Update(ctx context.Context, post models.PendingPost) error {
	for i, p := range r.posts {
		if p.ID == post.ID {
			cp := post
			r.posts[i] = &cp
			return nil
		}
	}
	return nil
}

func (r *fakePostRepo) UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error {
	for _, p := range r.posts {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return nil
}

type fakeLeadRepo struct {
	leads  []*models.Lead
	nextID uint

	saveErr error
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{}
}

func (r *fakeLeadRepo) ByID(ctx context.Context, id uint) (*models.Lead, error) {
	for _, l := range r.leads {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLeadRepo) ByFilter(ctx context.Context, filter models.LeadFilter, orderBy string, limit, offset int) ([]*models.Lead, error) {
	out := make([]*models.Lead, 0)
	for _, l := range r.leads {
		if filter.Platform != nil && l.Platform != *filter.Platform {
			continue
		}
		if filter.MinLeadScore != nil && l.LeadScore < *filter.MinLeadScore {
			continue
		}
		if filter.MinFollowers != nil && l.Followers < *filter.MinFollowers {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	if offset > 0 {
		if offset >= len(out) {
			return []*models.Lead{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeLeadRepo) Save(ctx context.Context, lead *models.Lead) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nextID++
	lead.ID = r.nextID
	if lead.UUID == uuid.Nil {
		lead.UUID = uuid.New()
	}
	cp := *lead
	r.leads = append(r.leads, &cp)
	return nil
}

func (r *fakeLeadRepo) SaveBatch(ctx context.Context, leads []*models.Lead) error {
	for _, l := range leads {
		if err := r.Save(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeLeadRepo) Count(ctx context.Context, filter models.LeadFilter) (int64, error) {
	found, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(found)), nil
}

func (r *fakeLeadRepo) Exists(ctx context.Context, filter models.LeadFilter) (bool, error) {
	n, _ := r.Count(ctx, filter)
	return n > 0, nil
}

func (r *fakeLeadRepo) ByUUID(ctx context.Context, id string) (*models.Lead, error) {
	for _, l := range r.leads {
		if l.UUID.String() == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeLeadRepo) ByPlatform(ctx context.Context, platform models.Platform, limit, offset int) ([]*models.Lead, error) {
	return r.ByFilter(ctx, models.LeadFilter{Platform: &platform}, "", limit, offset)
}

func (r *fakeLeadRepo) Delete(ctx context.Context, id uint) error {
	for i, l := range r.leads {
		if l.ID == id {
			r.leads = append(r.leads[:i], r.leads[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeContactRepo struct {
	contacts []*models.Contact
	nextID   uint

	saveErr error
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{}
}

func (r *fakeContactRepo) ByID(ctx context.Context, id uint) (*models.Contact, error) {
	for _, c := range r.contacts {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeContactRepo) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	out := make([]*models.Contact, 0, len(r.contacts))
	for _, c := range r.contacts {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeContactRepo) Save(ctx context.Context, contact *models.Contact) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.nextID++
	contact.ID = r.nextID
	if contact.UUID == uuid.Nil {
		contact.UUID = uuid.New()
	}
	if contact.Labels == nil {
		contact.Labels = models.StringList{}
	}
	cp := *contact
	r.contacts = append(r.contacts, &cp)
	return nil
}

func (r *fakeContactRepo) SaveBatch(ctx context.Context, contacts []*models.Contact) error {
	for _, c := range contacts {
		if err := r.Save(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeContactRepo) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	return int64(len(r.contacts)), nil
}

func (r *fakeContactRepo) Exists(ctx context.Context, filter models.ContactFilter) (bool, error) {
	return len(r.contacts) > 0, nil
}

func (r *fakeContactRepo) ByUUID(ctx context.Context, id string) (*models.Contact, error) {
	for _, c := range r.contacts {
		if c.UUID.String() == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeAuditRepo struct {
	entries []*models.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) Save(ctx context.Context, entry *models.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) SaveBatch(ctx context.Context, entries []*models.AuditLog) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	return int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	return len(r.entries) > 0, nil
}

func (r *fakeAuditRepo) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	out := make([]*models.AuditLog, 0)
	for _, e := range r.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	out := make([]*models.AuditLog, 0)
	for _, e := range r.entries {
		if e.IsFailed() {
			out = append(out, e)
		}
	}
	return out, nil
}

// lastAction returns the most recent audit action, or "" when none exists
func (r *fakeAuditRepo) lastAction() string {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].Action
}
