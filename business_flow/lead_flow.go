// Package businessflow contains the core business logic and use cases for lead workflows
package businessflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/amirphl/Jorougumo/app/dto"
	"github.com/amirphl/Jorougumo/app/services"
	"github.com/amirphl/Jorougumo/config"
	"github.com/amirphl/Jorougumo/models"
	"github.com/amirphl/Jorougumo/repository"
	"github.com/amirphl/Jorougumo/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var leadsDiscoveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "leads_discovered_total",
		Help: "Total number of lead profiles discovered by platform",
	},
	[]string{"platform"},
)

// LeadFlow handles lead discovery, listing, conversion, and export
type LeadFlow interface {
	DiscoverLeads(ctx context.Context, req *dto.DiscoverLeadsRequest, metadata *ClientMetadata) (*dto.DiscoverLeadsResponse, error)
	ListLeads(ctx context.Context, req *dto.ListLeadsRequest, metadata *ClientMetadata) (*dto.ListLeadsResponse, error)
	ConvertLead(ctx context.Context, req *dto.ConvertLeadRequest, metadata *ClientMetadata) (*dto.ConvertLeadResponse, error)
	ExportLeads(ctx context.Context, req *dto.ExportLeadsRequest, metadata *ClientMetadata) (string, []byte, error)
}

// LeadFlowImpl implements the lead business flow
type LeadFlowImpl struct {
	leadRepo       repository.LeadRepository
	contactRepo    repository.ContactRepository
	auditRepo      repository.AuditLogRepository
	analysis       AnalysisFlow
	clients        map[models.Platform]services.SocialClient
	pipelineConfig config.PipelineConfig
	cacheConfig    *config.CacheConfig
	rc             *redis.Client
	db             *gorm.DB
}

// NewLeadFlow creates a new lead flow instance
func NewLeadFlow(
	leadRepo repository.LeadRepository,
	contactRepo repository.ContactRepository,
	auditRepo repository.AuditLogRepository,
	analysis AnalysisFlow,
	clients map[models.Platform]services.SocialClient,
	pipelineConfig config.PipelineConfig,
	cacheConfig *config.CacheConfig,
	rc *redis.Client,
	db *gorm.DB,
) LeadFlow {
	return &LeadFlowImpl{
		leadRepo:       leadRepo,
		contactRepo:    contactRepo,
		auditRepo:      auditRepo,
		analysis:       analysis,
		clients:        clients,
		pipelineConfig: pipelineConfig,
		cacheConfig:    cacheConfig,
		rc:             rc,
		db:             db,
	}
}

// mockLinkedInProfiles stands in for LinkedIn discovery until an API
// integration lands. TODO: replace with a real LinkedIn client once API
// access is approved.
var mockLinkedInProfiles = []models.LeadProfile{
	{
		Platform:    models.PlatformLinkedIn,
		Username:    "sarah-chen-cre",
		DisplayName: "Sarah Chen",
		Bio:         "VP of Acquisitions | Commercial Real Estate | PropTech advocate",
		ProfileURL:  "https://linkedin.com/in/sarah-chen-cre",
		Followers:   8400,
		Engagement:  320,
		Topics:      []string{"commercial real estate", "proptech", "acquisitions"},
		Sentiment:   models.SentimentPositive,
		LeadScore:   82,
	},
	{
		Platform:    models.PlatformLinkedIn,
		Username:    "marcus-webb-invest",
		DisplayName: "Marcus Webb",
		Bio:         "Real estate investor exploring tokenized property assets",
		ProfileURL:  "https://linkedin.com/in/marcus-webb-invest",
		Followers:   3100,
		Engagement:  145,
		Topics:      []string{"real estate investment", "tokenization"},
		Sentiment:   models.SentimentPositive,
		LeadScore:   74,
	},
	{
		Platform:    models.PlatformLinkedIn,
		Username:    "elena-rodriguez-pm",
		DisplayName: "Elena Rodriguez",
		Bio:         "Property manager | Office and retail portfolios",
		ProfileURL:  "https://linkedin.com/in/elena-rodriguez-pm",
		Followers:   950,
		Engagement:  60,
		Topics:      []string{"property management"},
		Sentiment:   models.SentimentNeutral,
		LeadScore:   55,
	},
}

// DiscoverLeads searches a platform for the given keywords, scores each
// unique author, qualifies them against the configured thresholds, and
// persists the qualified ones. Discovery, qualification, and storage counts
// are reported separately.
func (s *LeadFlowImpl) DiscoverLeads(ctx context.Context, req *dto.DiscoverLeadsRequest, metadata *ClientMetadata) (*dto.DiscoverLeadsResponse, error) {
	platform := models.Platform(req.Platform)
	if !platform.Valid() {
		return nil, NewBusinessError("LEAD_VALIDATION_FAILED", "Lead validation failed", ErrUnsupportedPlatform)
	}
	if len(req.Keywords) == 0 {
		return nil, NewBusinessError("LEAD_VALIDATION_FAILED", "Lead validation failed", ErrKeywordsRequired)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.pipelineConfig.DiscoveryLimit
	}
	if limit <= 0 {
		limit = utils.DefaultDiscoveryLimit
	}

	var profiles []models.LeadProfile
	var err error
	switch platform {
	case models.PlatformLinkedIn:
		profiles = append(profiles, mockLinkedInProfiles...)
	default:
		profiles, err = s.discoverTwitterLeads(ctx, req.Keywords, limit)
	}
	if err != nil {
		errMsg := fmt.Sprintf("Lead discovery failed: %s", err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionLeadDiscoveryFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LEAD_DISCOVERY_FAILED", "Lead discovery failed", err)
	}

	leadsDiscoveredTotal.WithLabelValues(platform.String()).Add(float64(len(profiles)))

	// Highest-scoring prospects first
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].LeadScore > profiles[j].LeadScore
	})

	// Qualification is an explicit step after scoring
	minFollowers := s.pipelineConfig.MinFollowers
	if req.MinFollowers != nil {
		minFollowers = *req.MinFollowers
	}
	minEngagement := s.pipelineConfig.MinEngagement
	if req.MinEngagement != nil {
		minEngagement = *req.MinEngagement
	}
	minScore := s.pipelineConfig.MinLeadScore
	if req.MinLeadScore != nil {
		minScore = *req.MinLeadScore
	}

	qualified := make([]models.LeadProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.Qualifies(minFollowers, minEngagement, minScore) {
			qualified = append(qualified, p)
		}
	}

	leads := make([]*models.Lead, 0, len(qualified))
	for _, p := range qualified {
		leads = append(leads, models.FromProfile(p))
	}

	stored := 0
	if len(leads) > 0 {
		if err := s.leadRepo.SaveBatch(ctx, leads); err != nil {
			errMsg := fmt.Sprintf("Lead persistence failed: %s", err.Error())
			_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionLeadDiscoveryFailed, errMsg, false, &errMsg, metadata)

			return nil, NewBusinessError("LEAD_PERSISTENCE_FAILED", "Failed to store leads", err)
		}
		stored = len(leads)
	}

	msg := fmt.Sprintf("Discovered %d profiles on %s, %d qualified", len(profiles), platform, len(qualified))
	_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionLeadsDiscovered, msg, true, nil, metadata)

	views := make([]dto.LeadView, 0, len(leads))
	for _, lead := range leads {
		views = append(views, toLeadView(lead))
	}

	return &dto.DiscoverLeadsResponse{
		Message:    "Lead discovery completed",
		Discovered: len(profiles),
		Qualified:  len(qualified),
		Stored:     stored,
		Leads:      views,
	}, nil
}

// discoverTwitterLeads searches recent tweets, groups them by author with
// first-seen-wins dedupe, and scores each unique author once
func (s *LeadFlowImpl) discoverTwitterLeads(ctx context.Context, keywords []string, limit int) ([]models.LeadProfile, error) {
	client, ok := s.clients[models.PlatformTwitter]
	if !ok {
		return nil, ErrPlatformClientMissing
	}

	query := strings.Join(keywords, " OR ") + " -is:retweet"

	posts, err := s.searchWithCache(ctx, client, query, limit)
	if err != nil {
		return nil, err
	}

	// First-seen-wins per author: the author record from their earliest post
	// in the result set is the one scored
	order := make([]string, 0, len(posts))
	authors := make(map[string]models.PostAuthor)
	authorPosts := make(map[string][]string)
	for _, post := range posts {
		username := post.Author.Username
		if username == "" {
			continue
		}
		if _, seen := authors[username]; !seen {
			authors[username] = post.Author
			order = append(order, username)
		}
		authorPosts[username] = append(authorPosts[username], post.Content)
	}

	profiles := make([]models.LeadProfile, 0, len(order))
	for _, username := range order {
		author := authors[username]
		relevant := authorPosts[username]

		scored := s.analysis.ScoreLeadProfile(ctx, models.PlatformTwitter, author, relevant)

		engagement := 0
		for _, post := range posts {
			if post.Author.Username == username {
				engagement += post.EngagementTotal()
			}
		}

		profiles = append(profiles, models.LeadProfile{
			Platform:      models.PlatformTwitter,
			Username:      username,
			DisplayName:   author.DisplayName,
			Bio:           author.Bio,
			ProfileURL:    "https://twitter.com/" + username,
			Followers:     author.FollowerCount,
			Engagement:    engagement,
			Topics:        scored.Topics,
			Sentiment:     scored.Sentiment,
			LeadScore:     int(utils.Clamp(scored.LeadScore, 0, 100)),
			RelevantPosts: relevant,
		})
	}

	return profiles, nil
}

// searchWithCache serves platform searches from redis when a fresh result
// for the same query exists
func (s *LeadFlowImpl) searchWithCache(ctx context.Context, client services.SocialClient, query string, limit int) ([]models.SocialPost, error) {
	if s.rc == nil || !s.cacheConfig.Enabled {
		return client.SearchPosts(ctx, query, limit)
	}

	digest := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", query, limit)))
	cacheKey := redisKey(*s.cacheConfig, fmt.Sprintf("search:%s:%s", client.Platform(), hex.EncodeToString(digest[:8])))

	if bs, err := s.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
		var cached []models.SocialPost
		if err := json.Unmarshal(bs, &cached); err == nil {
			return cached, nil
		}
	}

	posts, err := client.SearchPosts(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	if bs, err := json.Marshal(posts); err == nil {
		ttl := s.cacheConfig.SearchTTL
		if ttl <= 0 {
			ttl = utils.SearchCacheTTL
		}
		if err := s.rc.Set(ctx, cacheKey, bs, ttl).Err(); err != nil {
			log.Printf("failed to cache search results: %v", err)
		}
	}

	return posts, nil
}

// ListLeads returns a page of persisted leads, best scores first
func (s *LeadFlowImpl) ListLeads(ctx context.Context, req *dto.ListLeadsRequest, metadata *ClientMetadata) (*dto.ListLeadsResponse, error) {
	if req.Page < 1 {
		return nil, NewBusinessError("LIST_VALIDATION_FAILED", "List validation failed", ErrInvalidPage)
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		return nil, NewBusinessError("LIST_VALIDATION_FAILED", "List validation failed", ErrInvalidPageSize)
	}

	filter := models.LeadFilter{
		MinLeadScore: req.MinLeadScore,
		MinFollowers: req.MinFollowers,
	}
	if req.Platform != nil {
		filter.Platform = utils.ToPtr(models.Platform(*req.Platform))
	}

	offset := (req.Page - 1) * req.PageSize
	leads, err := s.leadRepo.ByFilter(ctx, filter, "lead_score DESC, created_at DESC", req.PageSize, offset)
	if err != nil {
		return nil, NewBusinessError("LEAD_LIST_FAILED", "Failed to list leads", err)
	}

	total, err := s.leadRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LEAD_LIST_FAILED", "Failed to count leads", err)
	}

	views := make([]dto.LeadView, 0, len(leads))
	for _, lead := range leads {
		views = append(views, toLeadView(lead))
	}

	return &dto.ListLeadsResponse{
		Leads:      views,
		Pagination: buildPagination(req.Page, req.PageSize, total),
	}, nil
}

// ConvertLead turns a lead into a CRM contact. The contact insert and the
// lead delete run in one transaction: conversion is a move, and the lead
// must not survive it.
func (s *LeadFlowImpl) ConvertLead(ctx context.Context, req *dto.ConvertLeadRequest, metadata *ClientMetadata) (*dto.ConvertLeadResponse, error) {
	if strings.TrimSpace(req.UUID) == "" {
		return nil, NewBusinessError("LEAD_VALIDATION_FAILED", "Lead validation failed", ErrLeadUUIDRequired)
	}

	lead, err := s.leadRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("LEAD_LOOKUP_FAILED", "Failed to lookup lead", err)
	}
	if lead == nil {
		return nil, NewBusinessError("LEAD_NOT_FOUND", "Lead not found", ErrLeadNotFound)
	}

	name := lead.DisplayName
	if name == "" {
		name = lead.Username
	}

	contact := &models.Contact{
		Name:      name,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Website:   req.Website,
		Labels:    models.StringList(req.Labels),
		Notes:     req.Notes,
		Source:    "lead_conversion",
		SourceURL: utils.ToPtr(lead.ProfileURL),
		LeadScore: contactScore(lead, req),
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.contactRepo.Save(txCtx, contact); err != nil {
			return fmt.Errorf("failed to save contact: %w", err)
		}
		if err := s.leadRepo.Delete(txCtx, lead.ID); err != nil {
			return fmt.Errorf("failed to delete lead: %w", err)
		}
		return nil
	})

	if err != nil {
		errMsg := fmt.Sprintf("Lead conversion failed for %s: %s", lead.UUID, err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionLeadConversionFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("LEAD_CONVERSION_FAILED", "Lead conversion failed", err)
	}

	msg := fmt.Sprintf("Lead %s converted to contact %s", lead.UUID, contact.UUID)
	_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionLeadConverted, msg, true, nil, metadata)

	return &dto.ConvertLeadResponse{
		Message: "Lead converted to contact",
		Contact: toContactView(contact),
	}, nil
}

// contactScore recomputes the score from the contact rubric instead of
// copying the lead score: completeness of contact data is what matters for
// a CRM record.
func contactScore(lead *models.Lead, req *dto.ConvertLeadRequest) int {
	score := utils.ContactBaseScore
	if req.Phone != nil && *req.Phone != "" {
		score += 5
	}
	if req.Company != nil && *req.Company != "" {
		score += 5
	}
	if req.Website != nil && *req.Website != "" {
		score += 5
	}
	if len(req.Labels) > 0 {
		score += 5
	}
	if lead.Followers > utils.HighFollowerThreshold {
		score += 10
	}
	if lead.Engagement > 0 {
		score += 10
	}
	return score
}

// ExportLeads renders the matching leads as a spreadsheet for the CRM
func (s *LeadFlowImpl) ExportLeads(ctx context.Context, req *dto.ExportLeadsRequest, metadata *ClientMetadata) (string, []byte, error) {
	filter := models.LeadFilter{
		MinLeadScore: req.MinLeadScore,
	}
	if req.Platform != nil {
		filter.Platform = utils.ToPtr(models.Platform(*req.Platform))
	}

	leads, err := s.leadRepo.ByFilter(ctx, filter, "lead_score DESC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("LEAD_EXPORT_FAILED", "Failed to load leads for export", err)
	}
	if len(leads) == 0 {
		return "", nil, NewBusinessError("NO_LEADS_TO_EXPORT", "No leads match the export filter", ErrNoLeadsToExport)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Leads"
	if err := xl.SetSheetName("Sheet1", sheet); err != nil {
		return "", nil, NewBusinessError("LEAD_EXPORT_FAILED", "Failed to build spreadsheet", err)
	}

	headers := []string{"UUID", "Platform", "Username", "Display Name", "Profile URL", "Followers", "Engagement", "Lead Score", "Sentiment", "Topics", "Discovered At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = xl.SetCellValue(sheet, cell, h)
	}

	for row, lead := range leads {
		values := []any{
			lead.UUID.String(),
			lead.Platform.String(),
			lead.Username,
			lead.DisplayName,
			lead.ProfileURL,
			lead.Followers,
			lead.Engagement,
			lead.LeadScore,
			lead.Sentiment.String(),
			strings.Join(lead.Topics, ", "),
			lead.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = xl.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("LEAD_EXPORT_FAILED", "Failed to render spreadsheet", err)
	}

	msg := fmt.Sprintf("Exported %d leads", len(leads))
	_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionLeadsExported, msg, true, nil, metadata)

	filename := fmt.Sprintf("leads_%s.xlsx", utils.UTCNow().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

// toLeadView converts a lead model to its API projection
func toLeadView(lead *models.Lead) dto.LeadView {
	return dto.LeadView{
		UUID:          lead.UUID.String(),
		Platform:      lead.Platform.String(),
		Username:      lead.Username,
		DisplayName:   lead.DisplayName,
		Bio:           lead.Bio,
		ProfileURL:    lead.ProfileURL,
		Followers:     lead.Followers,
		Engagement:    lead.Engagement,
		Topics:        lead.Topics,
		Sentiment:     lead.Sentiment.String(),
		LeadScore:     lead.LeadScore,
		RelevantPosts: lead.RelevantPosts,
		CreatedAt:     lead.CreatedAt,
	}
}

// toContactView converts a contact model to its API projection
func toContactView(contact *models.Contact) dto.ContactView {
	return dto.ContactView{
		UUID:      contact.UUID.String(),
		Name:      contact.Name,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Company:   contact.Company,
		Website:   contact.Website,
		Labels:    contact.Labels,
		Notes:     contact.Notes,
		Source:    contact.Source,
		SourceURL: contact.SourceURL,
		LeadScore: contact.LeadScore,
		CreatedAt: contact.CreatedAt,
	}
}
