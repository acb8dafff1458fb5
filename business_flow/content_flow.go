// Package businessflow contains the core business logic and use cases for content workflows
package businessflow

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amirphl/Jorougumo/app/dto"
	"github.com/amirphl/Jorougumo/app/services"
	"github.com/amirphl/Jorougumo/config"
	"github.com/amirphl/Jorougumo/models"
	"github.com/amirphl/Jorougumo/repository"
	"github.com/amirphl/Jorougumo/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var postsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "posts_published_total",
		Help: "Total number of post publish attempts by platform and outcome",
	},
	[]string{"platform", "outcome"},
)

// ContentFlow handles the content generation and approval business logic
type ContentFlow interface {
	GenerateContent(ctx context.Context, req *dto.GenerateContentRequest, metadata *ClientMetadata) (*dto.GenerateContentResponse, error)
	ReviewPost(ctx context.Context, req *dto.ReviewPostRequest, metadata *ClientMetadata) (*dto.ReviewPostResponse, error)
	ListPendingPosts(ctx context.Context, req *dto.ListPendingPostsRequest, metadata *ClientMetadata) (*dto.ListPendingPostsResponse, error)
	PublishDue(ctx context.Context, limit int) (int, error)
}

// ContentFlowImpl implements the content business flow
type ContentFlowImpl struct {
	postRepo       repository.PendingPostRepository
	auditRepo      repository.AuditLogRepository
	oracle         services.OracleClient
	parser         *services.ContentParser
	analysis       AnalysisFlow
	clients        map[models.Platform]services.SocialClient
	notifier       services.NotificationService
	pipelineConfig config.PipelineConfig
	db             *gorm.DB
}

// NewContentFlow creates a new content flow instance
func NewContentFlow(
	postRepo repository.PendingPostRepository,
	auditRepo repository.AuditLogRepository,
	oracle services.OracleClient,
	parser *services.ContentParser,
	analysis AnalysisFlow,
	clients map[models.Platform]services.SocialClient,
	notifier services.NotificationService,
	pipelineConfig config.PipelineConfig,
	db *gorm.DB,
) ContentFlow {
	return &ContentFlowImpl{
		postRepo:       postRepo,
		auditRepo:      auditRepo,
		oracle:         oracle,
		parser:         parser,
		analysis:       analysis,
		clients:        clients,
		notifier:       notifier,
		pipelineConfig: pipelineConfig,
		db:             db,
	}
}

// GenerateContent runs the full generation round: gather inspiration, call
// the oracle, fall back to the deterministic template when the whole chain
// fails, and persist the draft for human review. It never returns an empty
// draft.
func (s *ContentFlowImpl) GenerateContent(ctx context.Context, req *dto.GenerateContentRequest, metadata *ClientMetadata) (*dto.GenerateContentResponse, error) {
	platform := models.Platform(req.Platform)
	if !platform.Valid() {
		return nil, NewBusinessError("CONTENT_VALIDATION_FAILED", "Content validation failed", ErrUnsupportedPlatform)
	}
	if strings.TrimSpace(req.Focus) == "" {
		return nil, NewBusinessError("CONTENT_VALIDATION_FAILED", "Content validation failed", ErrFocusRequired)
	}

	tone := req.Tone
	if tone == "" {
		tone = "professional"
	}

	inspiration := s.gatherInspiration(ctx, platform, req)
	generated := s.generate(ctx, platform, req.Focus, tone, inspiration, req.IncludeCallToAction)

	post := &models.PendingPost{
		Platform:            platform,
		Content:             generated.Content,
		Hashtags:            models.StringList(generated.Hashtags),
		Tone:                tone,
		Focus:               req.Focus,
		EstimatedEngagement: int(generated.EstimatedEngagement),
		Fallback:            generated.Fallback,
		Status:              models.PostStatusPendingApproval,
	}
	if generated.CallToAction != "" {
		post.CallToAction = utils.ToPtr(generated.CallToAction)
	}

	if err := s.postRepo.Save(ctx, post); err != nil {
		errMsg := fmt.Sprintf("Content generation failed: %s", err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionContentGenerationFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("CONTENT_GENERATION_FAILED", "Content generation failed", err)
	}

	msg := fmt.Sprintf("Content generated for %s: %s", platform, post.UUID.String())
	_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionContentGenerated, msg, true, nil, metadata)

	// Fire-and-forget operator notification; delivery failure is only logged
	if s.notifier != nil {
		go func(p models.PendingPost) {
			if err := s.notifier.NotifyPendingApproval(&p); err != nil {
				log.Printf("failed to notify operator about post %s: %v", p.UUID, err)
			}
		}(*post)
	}

	return &dto.GenerateContentResponse{
		Message: "Content generated and held for approval",
		Post:    toPendingPostView(post),
	}, nil
}

// gatherInspiration fetches recent platform posts on the topic and keeps the
// most relevant ones. Degraded clients and fetch failures both mean an empty
// inspiration set, never a failed generation.
func (s *ContentFlowImpl) gatherInspiration(ctx context.Context, platform models.Platform, req *dto.GenerateContentRequest) []models.SocialPost {
	client, ok := s.clients[platform]
	if !ok || !client.Available() {
		return nil
	}

	terms := req.Keywords
	if len(terms) == 0 {
		terms = []string{req.Focus}
	}
	query := strings.Join(terms, " OR ")
	if platform == models.PlatformTwitter {
		query += " -is:retweet"
	}

	posts, err := client.SearchPosts(ctx, query, utils.DefaultDiscoveryLimit)
	if err != nil {
		log.Printf("inspiration fetch failed for %s: %v", platform, err)
		return nil
	}
	if len(posts) == 0 {
		return nil
	}

	threshold := s.pipelineConfig.RelevanceThreshold
	if threshold <= 0 {
		threshold = utils.DefaultRelevanceThreshold
	}

	limit := utils.MaxInspirationPosts
	if req.InspirationCount > 0 {
		limit = utils.Clamp(req.InspirationCount, 1, utils.MaxInspirationPosts)
	}

	analyses := s.analysis.AnalyzeSentiment(ctx, posts)

	relevant := make([]models.SocialPost, 0, limit)
	for _, post := range posts {
		analysis, ok := analyses[post.ID]
		if !ok || !analysis.IsRelevant(threshold) {
			continue
		}
		relevant = append(relevant, post)
		if len(relevant) == limit {
			break
		}
	}

	return relevant
}

func (s *ContentFlowImpl) generate(ctx context.Context, platform models.Platform, focus, tone string, inspiration []models.SocialPost, includeCTA bool) services.GeneratedContentResult {
	prompt := BuildGenerationPrompt(platform, focus, tone, inspiration, includeCTA)

	raw, err := s.oracle.Generate(ctx, prompt, utils.OracleMaxTokensGeneration, utils.OracleTemperatureCreative)
	if err != nil || strings.TrimSpace(raw) == "" {
		if err != nil {
			log.Printf("oracle generation failed for %s/%s: %v", platform, focus, err)
		}
		return services.GeneratedContentResult{
			Content:  FallbackContent(platform, focus),
			Hashtags: []string{"CRE", "PropTech"},
			Fallback: true,
		}
	}

	generated := s.parser.ParseGeneratedContent(raw)
	if strings.TrimSpace(generated.Content) == "" {
		generated.Content = FallbackContent(platform, focus)
		generated.Fallback = true
	}
	if len([]rune(generated.Content)) > platform.CharacterLimit() {
		generated.Content = utils.Truncate(generated.Content, platform.CharacterLimit()-1)
	}

	return generated
}

// ReviewPost applies the operator's decision to a pending post:
// approve publishes immediately (or schedules, when a time is supplied),
// schedule defers to the background publisher, reject closes the draft.
// Operator edits replace the draft content before any precondition check.
// Terminal states never change again.
func (s *ContentFlowImpl) ReviewPost(ctx context.Context, req *dto.ReviewPostRequest, metadata *ClientMetadata) (*dto.ReviewPostResponse, error) {
	post, err := s.postRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("POST_LOOKUP_FAILED", "Failed to lookup post", err)
	}
	if post == nil {
		return nil, NewBusinessError("POST_NOT_FOUND", "Pending post not found", ErrPostNotFound)
	}

	switch req.Action {
	case "approve":
		applyModifications(post, req.Modifications)
		if req.ScheduledAt != nil {
			return s.schedule(ctx, post, req.ScheduledAt, metadata)
		}
		return s.approve(ctx, post, metadata)
	case "schedule":
		applyModifications(post, req.Modifications)
		return s.schedule(ctx, post, req.ScheduledAt, metadata)
	case "reject":
		return s.reject(ctx, post, req.Reason, metadata)
	default:
		return nil, NewBusinessError("REVIEW_VALIDATION_FAILED", "Review validation failed", ErrUnknownReviewAction)
	}
}

// applyModifications swaps the operator's edited content into the draft.
// The edit is subject to the same character-limit precondition as the
// original content; nothing is persisted until the transition succeeds.
func applyModifications(post *models.PendingPost, modifications *string) {
	if modifications == nil {
		return
	}
	if edited := strings.TrimSpace(*modifications); edited != "" {
		post.Content = edited
	}
}

func (s *ContentFlowImpl) approve(ctx context.Context, post *models.PendingPost, metadata *ClientMetadata) (*dto.ReviewPostResponse, error) {
	if post.Status.IsTerminal() {
		return nil, NewBusinessError("POST_ALREADY_FINALIZED", "Post is already finalized", ErrPostAlreadyFinalized)
	}
	if !post.CanTransitionTo(models.PostStatusPosted) {
		return nil, NewBusinessError("INVALID_STATUS_TRANSITION", "Invalid status transition", ErrInvalidStatusTransition)
	}

	// Character budget is a precondition of any platform write
	if !post.WithinCharacterLimit() {
		return nil, NewBusinessError("CONTENT_OVER_LIMIT", "Content exceeds platform character limit", ErrContentOverLimit)
	}

	result, err := s.publish(ctx, post)
	if err != nil {
		errMsg := fmt.Sprintf("Publish failed for post %s: %s", post.UUID, err.Error())
		_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionPostPublishFailed, errMsg, false, &errMsg, metadata)

		return nil, NewBusinessError("PUBLISH_FAILED", "Platform publish failed", err)
	}

	msg := fmt.Sprintf("Post %s approved and published as %s", post.UUID, result.PostID)
	_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionPostPublished, msg, true, nil, metadata)

	return &dto.ReviewPostResponse{
		Message:  "Post published",
		UUID:     post.UUID.String(),
		Status:   post.Status.String(),
		PostedID: post.PostedID,
		PostURL:  utils.ToPtr(result.URL),
	}, nil
}

// publish performs the platform write and records the outcome on the post.
// A failed write moves the post to failed with the reason; the post stays
// re-approvable. PostedID is set only after the platform confirms the write.
func (s *ContentFlowImpl) publish(ctx context.Context, post *models.PendingPost) (*services.PublishResult, error) {
	client, ok := s.clients[post.Platform]
	if !ok {
		return nil, ErrPlatformClientMissing
	}

	result, err := client.Publish(ctx, post.Content)
	if err == nil && result != nil && !result.Success {
		err = fmt.Errorf("%w: %s", ErrPublishFailed, result.Error)
	}
	if err != nil {
		postsPublishedTotal.WithLabelValues(post.Platform.String(), "failure").Inc()

		post.Status = models.PostStatusFailed
		post.FailureReason = utils.ToPtr(err.Error())
		if saveErr := s.postRepo.Update(ctx, *post); saveErr != nil {
			log.Printf("failed to record publish failure for post %s: %v", post.UUID, saveErr)
		}

		return nil, err
	}

	postsPublishedTotal.WithLabelValues(post.Platform.String(), "success").Inc()

	post.Status = models.PostStatusPosted
	post.PostedID = utils.ToPtr(result.PostID)
	post.FailureReason = nil
	if err := s.postRepo.Update(ctx, *post); err != nil {
		return nil, fmt.Errorf("post published as %s but state update failed: %w", result.PostID, err)
	}

	return result, nil
}

func (s *ContentFlowImpl) schedule(ctx context.Context, post *models.PendingPost, scheduledAt *time.Time, metadata *ClientMetadata) (*dto.ReviewPostResponse, error) {
	if post.Status.IsTerminal() {
		return nil, NewBusinessError("POST_ALREADY_FINALIZED", "Post is already finalized", ErrPostAlreadyFinalized)
	}
	if !post.CanTransitionTo(models.PostStatusScheduled) {
		return nil, NewBusinessError("INVALID_STATUS_TRANSITION", "Invalid status transition", ErrInvalidStatusTransition)
	}
	if scheduledAt == nil {
		return nil, NewBusinessError("REVIEW_VALIDATION_FAILED", "Review validation failed", ErrScheduleTimeNotPresent)
	}
	if scheduledAt.Before(utils.UTCNow()) {
		return nil, NewBusinessError("REVIEW_VALIDATION_FAILED", "Review validation failed", ErrScheduleTimeInPast)
	}
	if !post.WithinCharacterLimit() {
		return nil, NewBusinessError("CONTENT_OVER_LIMIT", "Content exceeds platform character limit", ErrContentOverLimit)
	}

	post.Status = models.PostStatusScheduled
	post.ScheduledFor = utils.ToPtr(scheduledAt.UTC())
	if err := s.postRepo.Update(ctx, *post); err != nil {
		return nil, NewBusinessError("POST_UPDATE_FAILED", "Failed to schedule post", err)
	}

	msg := fmt.Sprintf("Post %s scheduled for %s", post.UUID, post.ScheduledFor.Format(time.RFC3339))
	_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionPostScheduled, msg, true, nil, metadata)

	return &dto.ReviewPostResponse{
		Message: "Post scheduled",
		UUID:    post.UUID.String(),
		Status:  post.Status.String(),
	}, nil
}

func (s *ContentFlowImpl) reject(ctx context.Context, post *models.PendingPost, reason *string, metadata *ClientMetadata) (*dto.ReviewPostResponse, error) {
	if post.Status.IsTerminal() {
		return nil, NewBusinessError("POST_ALREADY_FINALIZED", "Post is already finalized", ErrPostAlreadyFinalized)
	}
	if !post.CanTransitionTo(models.PostStatusRejected) {
		return nil, NewBusinessError("INVALID_STATUS_TRANSITION", "Invalid status transition", ErrInvalidStatusTransition)
	}

	post.Status = models.PostStatusRejected
	if err := s.postRepo.Update(ctx, *post); err != nil {
		return nil, NewBusinessError("POST_UPDATE_FAILED", "Failed to reject post", err)
	}

	msg := fmt.Sprintf("Post %s rejected", post.UUID)
	if reason != nil && *reason != "" {
		msg = fmt.Sprintf("Post %s rejected: %s", post.UUID, *reason)
	}
	_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionPostRejected, msg, true, nil, metadata)

	return &dto.ReviewPostResponse{
		Message: "Post rejected",
		UUID:    post.UUID.String(),
		Status:  post.Status.String(),
	}, nil
}

// ListPendingPosts returns a page of posts under review, newest first
func (s *ContentFlowImpl) ListPendingPosts(ctx context.Context, req *dto.ListPendingPostsRequest, metadata *ClientMetadata) (*dto.ListPendingPostsResponse, error) {
	if req.Page < 1 {
		return nil, NewBusinessError("LIST_VALIDATION_FAILED", "List validation failed", ErrInvalidPage)
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		return nil, NewBusinessError("LIST_VALIDATION_FAILED", "List validation failed", ErrInvalidPageSize)
	}

	filter := models.PendingPostFilter{}
	if req.Platform != nil {
		filter.Platform = utils.ToPtr(models.Platform(*req.Platform))
	}
	if req.Status != nil {
		filter.Status = utils.ToPtr(models.PostStatus(*req.Status))
	} else {
		filter.Status = utils.ToPtr(models.PostStatusPendingApproval)
	}

	offset := (req.Page - 1) * req.PageSize
	posts, err := s.postRepo.ByFilter(ctx, filter, "created_at DESC", req.PageSize, offset)
	if err != nil {
		return nil, NewBusinessError("POST_LIST_FAILED", "Failed to list posts", err)
	}

	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("POST_LIST_FAILED", "Failed to count posts", err)
	}

	views := make([]dto.PendingPostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, toPendingPostView(post))
	}

	return &dto.ListPendingPostsResponse{
		Posts:      views,
		Pagination: buildPagination(req.Page, req.PageSize, total),
	}, nil
}

// PublishDue publishes scheduled posts whose time has arrived. It is called
// by the background scheduler and returns the number of successful
// publishes; per-post failures move that post to failed and continue.
func (s *ContentFlowImpl) PublishDue(ctx context.Context, limit int) (int, error) {
	due, err := s.postRepo.ListDue(ctx, utils.UTCNow(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list due posts: %w", err)
	}

	published := 0
	for _, post := range due {
		if !post.WithinCharacterLimit() {
			post.Status = models.PostStatusFailed
			post.FailureReason = utils.ToPtr(ErrContentOverLimit.Error())
			if err := s.postRepo.Update(ctx, *post); err != nil {
				log.Printf("failed to fail oversized post %s: %v", post.UUID, err)
			}
			continue
		}

		result, err := s.publish(ctx, post)
		if err != nil {
			errMsg := fmt.Sprintf("Scheduled publish failed for post %s: %s", post.UUID, err.Error())
			_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionPostPublishFailed, errMsg, false, &errMsg, nil)
			continue
		}

		msg := fmt.Sprintf("Scheduled post %s published as %s", post.UUID, result.PostID)
		_ = writeAuditLog(ctx, s.auditRepo, models.AuditActionPostPublished, msg, true, nil, nil)
		published++
	}

	return published, nil
}

// toPendingPostView converts a pending post model to its API projection
func toPendingPostView(post *models.PendingPost) dto.PendingPostView {
	return dto.PendingPostView{
		UUID:                post.UUID.String(),
		Platform:            post.Platform.String(),
		Content:             post.Content,
		Hashtags:            post.Hashtags,
		CallToAction:        post.CallToAction,
		Tone:                post.Tone,
		Focus:               post.Focus,
		EstimatedEngagement: post.EstimatedEngagement,
		Fallback:            post.Fallback,
		Status:              post.Status.String(),
		ScheduledFor:        post.ScheduledFor,
		PostedID:            post.PostedID,
		FailureReason:       post.FailureReason,
		CreatedAt:           post.CreatedAt,
	}
}

// buildPagination computes paging metadata for list responses
func buildPagination(page, pageSize int, total int64) dto.PaginationView {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return dto.PaginationView{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
