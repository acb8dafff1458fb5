package businessflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/Jorougumo/app/dto"
	"github.com/amirphl/Jorougumo/app/services"
	"github.com/amirphl/Jorougumo/config"
	"github.com/amirphl/Jorougumo/models"
	testhelpers "github.com/amirphl/Jorougumo/testing"
	"github.com/amirphl/Jorougumo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContentFlowForTest(oracle services.OracleClient, client services.SocialClient) (ContentFlow, *fakePostRepo, *fakeAuditRepo) {
	postRepo := newFakePostRepo()
	auditRepo := newFakeAuditRepo()

	clients := make(map[models.Platform]services.SocialClient)
	if client != nil {
		clients[client.Platform()] = client
	}

	parser := services.NewContentParser()
	analysis := NewAnalysisFlow(oracle, parser, nil, &config.CacheConfig{Enabled: false})

	flow := NewContentFlow(
		postRepo,
		auditRepo,
		oracle,
		parser,
		analysis,
		clients,
		nil,
		config.PipelineConfig{RelevanceThreshold: 0.5},
		nil,
	)

	return flow, postRepo, auditRepo
}

func testMetadata() *ClientMetadata {
	return NewClientMetadata("127.0.0.1", "test-agent")
}

func seedPendingPost(t *testing.T, repo *fakePostRepo, platform models.Platform, status models.PostStatus, content string) *models.PendingPost {
	t.Helper()
	post := &models.PendingPost{
		Platform: platform,
		Content:  content,
		Hashtags: models.StringList{"CRE"},
		Tone:     "professional",
		Focus:    "commercial real estate trends",
		Status:   status,
	}
	if status == models.PostStatusScheduled {
		post.ScheduledFor = utils.ToPtr(utils.UTCNow().Add(-time.Minute))
	}
	require.NoError(t, repo.Save(context.Background(), post))
	return post
}

func TestGenerateContent(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unsupported platform", func(t *testing.T) {
		flow, _, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.GenerateContent(ctx, &dto.GenerateContentRequest{
			Platform: "facebook",
			Focus:    "commercial real estate trends",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsUnsupportedPlatform(err))
	})

	t.Run("requires a focus", func(t *testing.T) {
		flow, _, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.GenerateContent(ctx, &dto.GenerateContentRequest{
			Platform: "twitter",
			Focus:    "   ",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsFocusRequired(err))
	})

	t.Run("falls back when oracle is unavailable", func(t *testing.T) {
		flow, postRepo, auditRepo := newContentFlowForTest(
			services.NewStubOracleClient(),
			services.NewDisabledSocialClient(models.PlatformTwitter),
		)

		resp, err := flow.GenerateContent(ctx, &dto.GenerateContentRequest{
			Platform: "twitter",
			Focus:    "office-to-residential conversions",
		}, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp)

		assert.True(t, resp.Post.Fallback)
		assert.Equal(t, FallbackContent(models.PlatformTwitter, "office-to-residential conversions"), resp.Post.Content)
		assert.Equal(t, []string{"CRE", "PropTech"}, resp.Post.Hashtags)
		assert.Equal(t, models.PostStatusPendingApproval.String(), resp.Post.Status)
		assert.Equal(t, "professional", resp.Post.Tone)

		require.Len(t, postRepo.posts, 1)
		assert.Equal(t, models.AuditActionContentGenerated, auditRepo.lastAction())
	})

	t.Run("parses a structured oracle reply", func(t *testing.T) {
		oracle := services.NewMockOracleClient(
			`{"content":"Office-to-residential conversions are reshaping downtown CRE.","hashtags":["CRE","Conversions"],"call_to_action":"DM us to talk deals.","estimated_engagement":42}`,
		)
		flow, _, _ := newContentFlowForTest(oracle, services.NewDisabledSocialClient(models.PlatformTwitter))

		resp, err := flow.GenerateContent(ctx, &dto.GenerateContentRequest{
			Platform: "twitter",
			Focus:    "office-to-residential conversions",
			Tone:     "conversational",
		}, testMetadata())
		require.NoError(t, err)

		assert.False(t, resp.Post.Fallback)
		assert.Equal(t, "Office-to-residential conversions are reshaping downtown CRE.", resp.Post.Content)
		assert.Equal(t, []string{"CRE", "Conversions"}, resp.Post.Hashtags)
		require.NotNil(t, resp.Post.CallToAction)
		assert.Equal(t, "DM us to talk deals.", *resp.Post.CallToAction)
		assert.Equal(t, 42, resp.Post.EstimatedEngagement)
		assert.Equal(t, "conversational", resp.Post.Tone)
	})

	t.Run("truncates an over-limit reply", func(t *testing.T) {
		long := strings.Repeat("commercial real estate ", 30)
		oracle := services.NewMockOracleClient(`{"content":"` + long + `","hashtags":["CRE"]}`)
		flow, _, _ := newContentFlowForTest(oracle, services.NewDisabledSocialClient(models.PlatformTwitter))

		resp, err := flow.GenerateContent(ctx, &dto.GenerateContentRequest{
			Platform: "twitter",
			Focus:    "commercial real estate trends",
		}, testMetadata())
		require.NoError(t, err)

		assert.LessOrEqual(t, len([]rune(resp.Post.Content)), utils.TwitterCharacterLimit)
	})

	t.Run("builds the inspiration query from keywords", func(t *testing.T) {
		analysisReply := `{"sentiment":"positive","confidence":0.9,"relevance_score":0.8,"topics":["cre"],"insights":[]}`
		generationReply := `{"content":"Proptech adoption keeps climbing across CRE portfolios.","hashtags":["CRE"]}`

		client := services.NewMockSocialClient(models.PlatformTwitter)
		client.SearchResult = testhelpers.CreateTestSocialPosts(models.PlatformTwitter, 2)

		oracle := services.NewMockOracleClient(analysisReply, analysisReply, generationReply)
		flow, _, _ := newContentFlowForTest(oracle, client)

		_, err := flow.GenerateContent(ctx, &dto.GenerateContentRequest{
			Platform: "twitter",
			Focus:    "proptech adoption",
			Keywords: []string{"cre", "proptech"},
		}, testMetadata())
		require.NoError(t, err)

		require.Len(t, client.Queries, 1)
		assert.Equal(t, "cre OR proptech -is:retweet", client.Queries[0])
		// Two analysis calls plus one generation call
		assert.Equal(t, 3, oracle.CallCount())
	})

	t.Run("caps inspiration at the requested count", func(t *testing.T) {
		analysisReply := `{"sentiment":"positive","confidence":0.9,"relevance_score":0.8,"topics":["cre"],"insights":[]}`
		generationReply := `{"content":"Conversions are the story of this cycle.","hashtags":["CRE"]}`

		client := services.NewMockSocialClient(models.PlatformTwitter)
		client.SearchResult = testhelpers.CreateTestSocialPosts(models.PlatformTwitter, 3)

		oracle := services.NewMockOracleClient(analysisReply, analysisReply, analysisReply, generationReply)
		flow, _, _ := newContentFlowForTest(oracle, client)

		_, err := flow.GenerateContent(ctx, &dto.GenerateContentRequest{
			Platform:         "twitter",
			Focus:            "office conversions",
			InspirationCount: 1,
		}, testMetadata())
		require.NoError(t, err)

		// Three analysis calls plus one generation call
		require.Equal(t, 4, oracle.CallCount())
		generationPrompt := oracle.Prompts[len(oracle.Prompts)-1]
		assert.Contains(t, generationPrompt, "1. Post 1 about office-to-residential conversions")
		assert.NotContains(t, generationPrompt, "2. Post 2")
	})
}

func TestReviewPost(t *testing.T) {
	ctx := context.Background()

	t.Run("post not found", func(t *testing.T) {
		flow, _, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   "b3b7a7e0-0000-0000-0000-000000000000",
			Action: "approve",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsPostNotFound(err))
	})

	t.Run("approve publishes to the platform", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		flow, postRepo, auditRepo := newContentFlowForTest(services.NewStubOracleClient(), client)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Short draft about CRE trends")

		resp, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   post.UUID.String(),
			Action: "approve",
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, models.PostStatusPosted.String(), resp.Status)
		require.NotNil(t, resp.PostedID)
		assert.Equal(t, "mock-post-1", *resp.PostedID)
		require.NotNil(t, resp.PostURL)

		require.Len(t, client.Published, 1)
		assert.Equal(t, "Short draft about CRE trends", client.Published[0])

		stored, err := postRepo.ByUUID(ctx, post.UUID.String())
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, models.PostStatusPosted, stored.Status)
		require.NotNil(t, stored.PostedID)
		assert.Equal(t, models.AuditActionPostPublished, auditRepo.lastAction())
	})

	t.Run("approve applies operator edits before publishing", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), client)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Original draft about CRE trends")

		edited := "Edited copy, ready to ship"
		resp, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:          post.UUID.String(),
			Action:        "approve",
			Modifications: &edited,
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusPosted.String(), resp.Status)

		require.Len(t, client.Published, 1)
		assert.Equal(t, edited, client.Published[0])

		stored, _ := postRepo.ByUUID(ctx, post.UUID.String())
		assert.Equal(t, edited, stored.Content)
	})

	t.Run("oversized edit blocks the approve", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), client)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Short draft")

		edited := strings.Repeat("a", utils.TwitterCharacterLimit+1)
		_, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:          post.UUID.String(),
			Action:        "approve",
			Modifications: &edited,
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsContentOverLimit(err))

		// Nothing reached the platform and the stored draft is untouched
		assert.Empty(t, client.Published)
		stored, _ := postRepo.ByUUID(ctx, post.UUID.String())
		assert.Equal(t, "Short draft", stored.Content)
		assert.Equal(t, models.PostStatusPendingApproval, stored.Status)
	})

	t.Run("approve with a time schedules instead of publishing", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), client)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft")

		future := utils.UTCNow().Add(time.Hour)
		resp, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:        post.UUID.String(),
			Action:      "approve",
			ScheduledAt: &future,
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusScheduled.String(), resp.Status)
		assert.Empty(t, client.Published)

		stored, _ := postRepo.ByUUID(ctx, post.UUID.String())
		require.NotNil(t, stored.ScheduledFor)
	})

	t.Run("approve refuses oversized content", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), client)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, strings.Repeat("a", utils.TwitterCharacterLimit+1))

		_, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   post.UUID.String(),
			Action: "approve",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsContentOverLimit(err))

		// Nothing reached the platform and the post stays reviewable
		assert.Empty(t, client.Published)
		stored, _ := postRepo.ByUUID(ctx, post.UUID.String())
		assert.Equal(t, models.PostStatusPendingApproval, stored.Status)
	})

	t.Run("publish failure marks the post failed and allows retry", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		client.PublishOK = false
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), client)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft that fails the first write")

		_, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   post.UUID.String(),
			Action: "approve",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsPublishFailed(err))

		stored, _ := postRepo.ByUUID(ctx, post.UUID.String())
		assert.Equal(t, models.PostStatusFailed, stored.Status)
		require.NotNil(t, stored.FailureReason)

		client.PublishOK = true
		resp, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   post.UUID.String(),
			Action: "approve",
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusPosted.String(), resp.Status)

		stored, _ = postRepo.ByUUID(ctx, post.UUID.String())
		assert.Nil(t, stored.FailureReason)
	})

	t.Run("schedule requires a time", func(t *testing.T) {
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft")

		_, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   post.UUID.String(),
			Action: "schedule",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsScheduleTimeNotPresent(err))
	})

	t.Run("schedule rejects a past time", func(t *testing.T) {
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft")

		past := utils.UTCNow().Add(-time.Hour)
		_, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:        post.UUID.String(),
			Action:      "schedule",
			ScheduledAt: &past,
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsScheduleTimeInPast(err))
	})

	t.Run("schedule defers the post", func(t *testing.T) {
		flow, postRepo, auditRepo := newContentFlowForTest(services.NewStubOracleClient(), nil)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft")

		future := utils.UTCNow().Add(2 * time.Hour)
		resp, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:        post.UUID.String(),
			Action:      "schedule",
			ScheduledAt: &future,
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusScheduled.String(), resp.Status)

		stored, _ := postRepo.ByUUID(ctx, post.UUID.String())
		require.NotNil(t, stored.ScheduledFor)
		assert.Equal(t, models.AuditActionPostScheduled, auditRepo.lastAction())
	})

	t.Run("schedule keeps operator edits", func(t *testing.T) {
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft")

		edited := "Edited before the scheduled send"
		future := utils.UTCNow().Add(time.Hour)
		resp, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:          post.UUID.String(),
			Action:        "schedule",
			ScheduledAt:   &future,
			Modifications: &edited,
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusScheduled.String(), resp.Status)

		stored, _ := postRepo.ByUUID(ctx, post.UUID.String())
		assert.Equal(t, edited, stored.Content)
	})

	t.Run("reject closes the draft for good", func(t *testing.T) {
		flow, postRepo, auditRepo := newContentFlowForTest(services.NewStubOracleClient(), nil)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft")

		reason := "off brand"
		resp, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   post.UUID.String(),
			Action: "reject",
			Reason: &reason,
		}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusRejected.String(), resp.Status)
		assert.Equal(t, models.AuditActionPostRejected, auditRepo.lastAction())

		// Rejected is terminal
		_, err = flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   post.UUID.String(),
			Action: "approve",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsPostAlreadyFinalized(err))
	})

	t.Run("unknown action", func(t *testing.T) {
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)
		post := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft")

		_, err := flow.ReviewPost(ctx, &dto.ReviewPostRequest{
			UUID:   post.UUID.String(),
			Action: "publish",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsUnknownReviewAction(err))
	})
}

func TestListPendingPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("validates paging", func(t *testing.T) {
		flow, _, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.ListPendingPosts(ctx, &dto.ListPendingPostsRequest{Page: 0, PageSize: 10}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsInvalidPage(err))

		_, err = flow.ListPendingPosts(ctx, &dto.ListPendingPostsRequest{Page: 1, PageSize: 500}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsInvalidPageSize(err))
	})

	t.Run("defaults to posts awaiting approval", func(t *testing.T) {
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)
		seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft one")
		seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft two")
		seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusRejected, "Closed draft")

		resp, err := flow.ListPendingPosts(ctx, &dto.ListPendingPostsRequest{Page: 1, PageSize: 10}, testMetadata())
		require.NoError(t, err)
		assert.Len(t, resp.Posts, 2)
		assert.Equal(t, int64(2), resp.Pagination.Total)
	})

	t.Run("filters by explicit status", func(t *testing.T) {
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), nil)
		seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Draft")
		seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusRejected, "Closed draft")

		status := models.PostStatusRejected.String()
		resp, err := flow.ListPendingPosts(ctx, &dto.ListPendingPostsRequest{
			Status:   &status,
			Page:     1,
			PageSize: 10,
		}, testMetadata())
		require.NoError(t, err)
		require.Len(t, resp.Posts, 1)
		assert.Equal(t, "Closed draft", resp.Posts[0].Content)
	})
}

func TestPublishDue(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes due posts and fails oversized ones", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		flow, postRepo, _ := newContentFlowForTest(services.NewStubOracleClient(), client)

		due := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusScheduled, "Due and short enough")
		oversized := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusScheduled, strings.Repeat("a", utils.TwitterCharacterLimit+1))
		notDue := seedPendingPost(t, postRepo, models.PlatformTwitter, models.PostStatusPendingApproval, "Still under review")

		published, err := flow.PublishDue(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, published)

		storedDue, _ := postRepo.ByUUID(ctx, due.UUID.String())
		assert.Equal(t, models.PostStatusPosted, storedDue.Status)

		storedOversized, _ := postRepo.ByUUID(ctx, oversized.UUID.String())
		assert.Equal(t, models.PostStatusFailed, storedOversized.Status)
		require.NotNil(t, storedOversized.FailureReason)

		storedPending, _ := postRepo.ByUUID(ctx, notDue.UUID.String())
		assert.Equal(t, models.PostStatusPendingApproval, storedPending.Status)

		require.Len(t, client.Published, 1)
		assert.Equal(t, "Due and short enough", client.Published[0])
	})
}
