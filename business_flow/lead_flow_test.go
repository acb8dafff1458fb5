package businessflow

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amirphl/Jorougumo/app/dto"
	"github.com/amirphl/Jorougumo/app/services"
	"github.com/amirphl/Jorougumo/config"
	"github.com/amirphl/Jorougumo/models"
	"github.com/amirphl/Jorougumo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newLeadFlowForTest(oracle services.OracleClient, client services.SocialClient) (LeadFlow, *fakeLeadRepo, *fakeContactRepo, *fakeAuditRepo) {
	leadRepo := newFakeLeadRepo()
	contactRepo := newFakeContactRepo()
	auditRepo := newFakeAuditRepo()

	clients := make(map[models.Platform]services.SocialClient)
	if client != nil {
		clients[client.Platform()] = client
	}

	analysis := NewAnalysisFlow(oracle, services.NewContentParser(), nil, &config.CacheConfig{Enabled: false})

	flow := NewLeadFlow(
		leadRepo,
		contactRepo,
		auditRepo,
		analysis,
		clients,
		config.PipelineConfig{
			MinFollowers: 1000,
			MinLeadScore: 60,
		},
		&config.CacheConfig{Enabled: false},
		nil,
		nil,
	)

	return flow, leadRepo, contactRepo, auditRepo
}

func seedLead(t *testing.T, repo *fakeLeadRepo, username string, followers, engagement, score int) *models.Lead {
	t.Helper()
	lead := &models.Lead{
		Platform:      models.PlatformTwitter,
		Username:      username,
		DisplayName:   "",
		Bio:           "CRE investor",
		ProfileURL:    "https://twitter.com/" + username,
		Followers:     followers,
		Engagement:    engagement,
		Topics:        models.StringList{"commercial real estate"},
		Sentiment:     models.SentimentPositive,
		LeadScore:     score,
		RelevantPosts: models.StringList{"Scouting value-add office deals"},
	}
	require.NoError(t, repo.Save(context.Background(), lead))
	return lead
}

func discoveryPosts() []models.SocialPost {
	alpha := models.PostAuthor{Username: "alpha", DisplayName: "Alpha Investor", Bio: "CRE investor", FollowerCount: 5000}
	beta := models.PostAuthor{Username: "beta", DisplayName: "Beta Broker", FollowerCount: 200}

	return []models.SocialPost{
		{
			ID:         "t-1",
			Platform:   models.PlatformTwitter,
			Content:    "Cap rates on suburban office are finally moving",
			Author:     alpha,
			Engagement: models.PostEngagement{Likes: 40, Shares: 5, Comments: 3},
		},
		{
			ID:         "t-2",
			Platform:   models.PlatformTwitter,
			Content:    "Anyone else seeing proptech budgets grow this year?",
			Author:     beta,
			Engagement: models.PostEngagement{Likes: 2},
		},
		{
			ID:         "t-3",
			Platform:   models.PlatformTwitter,
			Content:    "Closed another mixed-use deal downtown",
			Author:     alpha,
			Engagement: models.PostEngagement{Likes: 12, Comments: 1},
		},
	}
}

func TestDiscoverLeads(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects unsupported platform", func(t *testing.T) {
		flow, _, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.DiscoverLeads(ctx, &dto.DiscoverLeadsRequest{
			Platform: "instagram",
			Keywords: []string{"cre"},
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsUnsupportedPlatform(err))
	})

	t.Run("requires keywords", func(t *testing.T) {
		flow, _, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.DiscoverLeads(ctx, &dto.DiscoverLeadsRequest{
			Platform: "twitter",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsKeywordsRequired(err))
	})

	t.Run("fails without a twitter client", func(t *testing.T) {
		flow, _, _, auditRepo := newLeadFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.DiscoverLeads(ctx, &dto.DiscoverLeadsRequest{
			Platform: "twitter",
			Keywords: []string{"cre"},
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPlatformClientMissing))
		assert.Equal(t, models.AuditActionLeadDiscoveryFailed, auditRepo.lastAction())
	})

	t.Run("scores each author once and qualifies by thresholds", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		client.SearchResult = discoveryPosts()

		oracle := services.NewMockOracleClient(
			`{"sentiment":"positive","confidence":0.9,"relevance_score":0.8,"topics":["commercial real estate"],"insights":["active investor"],"lead_score":80}`,
			`{"sentiment":"neutral","confidence":0.7,"relevance_score":0.6,"topics":["proptech"],"insights":[],"lead_score":65}`,
		)

		flow, leadRepo, _, auditRepo := newLeadFlowForTest(oracle, client)

		resp, err := flow.DiscoverLeads(ctx, &dto.DiscoverLeadsRequest{
			Platform: "twitter",
			Keywords: []string{"cre", "proptech"},
		}, testMetadata())
		require.NoError(t, err)

		// Three posts collapse to two unique authors, each scored once
		assert.Equal(t, 2, oracle.CallCount())
		assert.Equal(t, 2, resp.Discovered)

		// beta misses the follower threshold
		assert.Equal(t, 1, resp.Qualified)
		assert.Equal(t, 1, resp.Stored)
		require.Len(t, resp.Leads, 1)

		lead := resp.Leads[0]
		assert.Equal(t, "alpha", lead.Username)
		assert.Equal(t, "https://twitter.com/alpha", lead.ProfileURL)
		assert.Equal(t, 80, lead.LeadScore)
		// Engagement sums over all of the author's posts
		assert.Equal(t, 61, lead.Engagement)
		assert.Len(t, lead.RelevantPosts, 2)

		require.Len(t, client.Queries, 1)
		assert.Equal(t, "cre OR proptech -is:retweet", client.Queries[0])

		require.Len(t, leadRepo.leads, 1)
		assert.Equal(t, models.AuditActionLeadsDiscovered, auditRepo.lastAction())
	})

	t.Run("request thresholds override the configured ones", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		client.SearchResult = discoveryPosts()

		oracle := services.NewMockOracleClient(
			`{"sentiment":"positive","confidence":0.9,"relevance_score":0.8,"topics":["cre"],"insights":[],"lead_score":80}`,
			`{"sentiment":"neutral","confidence":0.7,"relevance_score":0.6,"topics":["proptech"],"insights":[],"lead_score":65}`,
		)

		flow, _, _, _ := newLeadFlowForTest(oracle, client)

		resp, err := flow.DiscoverLeads(ctx, &dto.DiscoverLeadsRequest{
			Platform:     "twitter",
			Keywords:     []string{"cre"},
			MinFollowers: utils.ToPtr(0),
			MinLeadScore: utils.ToPtr(0),
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, 2, resp.Qualified)
		assert.Equal(t, 2, resp.Stored)
		// Best score first
		assert.Equal(t, "alpha", resp.Leads[0].Username)
		assert.Equal(t, "beta", resp.Leads[1].Username)
	})

	t.Run("degraded oracle scores nobody above the bar", func(t *testing.T) {
		client := services.NewMockSocialClient(models.PlatformTwitter)
		client.SearchResult = discoveryPosts()

		flow, leadRepo, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), client)

		resp, err := flow.DiscoverLeads(ctx, &dto.DiscoverLeadsRequest{
			Platform: "twitter",
			Keywords: []string{"cre"},
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, 2, resp.Discovered)
		assert.Equal(t, 0, resp.Qualified)
		assert.Equal(t, 0, resp.Stored)
		assert.Empty(t, leadRepo.leads)
	})

	t.Run("linkedin uses the built-in profile set", func(t *testing.T) {
		flow, leadRepo, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)

		resp, err := flow.DiscoverLeads(ctx, &dto.DiscoverLeadsRequest{
			Platform: "linkedin",
			Keywords: []string{"commercial real estate"},
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, 3, resp.Discovered)
		// elena misses both the follower and score thresholds
		assert.Equal(t, 2, resp.Qualified)
		require.Len(t, resp.Leads, 2)
		assert.Equal(t, "sarah-chen-cre", resp.Leads[0].Username)
		assert.Equal(t, "marcus-webb-invest", resp.Leads[1].Username)
		assert.Len(t, leadRepo.leads, 2)
	})
}

func TestListLeads(t *testing.T) {
	ctx := context.Background()

	t.Run("validates paging", func(t *testing.T) {
		flow, _, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.ListLeads(ctx, &dto.ListLeadsRequest{Page: 0, PageSize: 10}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsInvalidPage(err))

		_, err = flow.ListLeads(ctx, &dto.ListLeadsRequest{Page: 1, PageSize: 0}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsInvalidPageSize(err))
	})

	t.Run("filters by minimum score", func(t *testing.T) {
		flow, leadRepo, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)
		seedLead(t, leadRepo, "alpha", 5000, 60, 85)
		seedLead(t, leadRepo, "beta", 1200, 20, 45)

		resp, err := flow.ListLeads(ctx, &dto.ListLeadsRequest{
			MinLeadScore: utils.ToPtr(60),
			Page:         1,
			PageSize:     10,
		}, testMetadata())
		require.NoError(t, err)

		require.Len(t, resp.Leads, 1)
		assert.Equal(t, "alpha", resp.Leads[0].Username)
		assert.Equal(t, int64(1), resp.Pagination.Total)
	})
}

func TestConvertLead(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a uuid", func(t *testing.T) {
		flow, _, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.ConvertLead(ctx, &dto.ConvertLeadRequest{}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsLeadUUIDRequired(err))
	})

	t.Run("lead not found", func(t *testing.T) {
		flow, _, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)

		_, err := flow.ConvertLead(ctx, &dto.ConvertLeadRequest{
			UUID: "b3b7a7e0-0000-0000-0000-000000000000",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsLeadNotFound(err))
	})

	t.Run("conversion moves the lead into the contact book", func(t *testing.T) {
		flow, leadRepo, contactRepo, auditRepo := newLeadFlowForTest(services.NewStubOracleClient(), nil)
		lead := seedLead(t, leadRepo, "alpha", 5000, 60, 85)

		resp, err := flow.ConvertLead(ctx, &dto.ConvertLeadRequest{
			UUID:    lead.UUID.String(),
			Email:   utils.ToPtr("alpha@example.com"),
			Phone:   utils.ToPtr("+1-555-0100"),
			Company: utils.ToPtr("Alpha Capital"),
			Website: utils.ToPtr("https://alphacapital.example.com"),
			Labels:  []string{"investor", "priority"},
		}, testMetadata())
		require.NoError(t, err)

		// DisplayName is empty, so the username carries over
		assert.Equal(t, "alpha", resp.Contact.Name)
		assert.Equal(t, "lead_conversion", resp.Contact.Source)
		require.NotNil(t, resp.Contact.SourceURL)
		assert.Equal(t, lead.ProfileURL, *resp.Contact.SourceURL)

		// Full rubric: base 20 + phone/company/website/labels 5 each + followers and engagement 10 each
		assert.Equal(t, 60, resp.Contact.LeadScore)

		gone, err := leadRepo.ByUUID(ctx, lead.UUID.String())
		require.NoError(t, err)
		assert.Nil(t, gone)

		require.Len(t, contactRepo.contacts, 1)
		assert.Equal(t, models.AuditActionLeadConverted, auditRepo.lastAction())
	})

	t.Run("sparse conversion keeps the base score", func(t *testing.T) {
		flow, leadRepo, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)
		lead := seedLead(t, leadRepo, "beta", 100, 0, 45)

		resp, err := flow.ConvertLead(ctx, &dto.ConvertLeadRequest{
			UUID: lead.UUID.String(),
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, utils.ContactBaseScore, resp.Contact.LeadScore)
	})

	t.Run("failed contact insert keeps the lead", func(t *testing.T) {
		flow, leadRepo, contactRepo, auditRepo := newLeadFlowForTest(services.NewStubOracleClient(), nil)
		lead := seedLead(t, leadRepo, "gamma", 2000, 10, 70)
		contactRepo.saveErr = errors.New("insert rejected")

		_, err := flow.ConvertLead(ctx, &dto.ConvertLeadRequest{
			UUID: lead.UUID.String(),
		}, testMetadata())
		require.Error(t, err)

		still, err := leadRepo.ByUUID(ctx, lead.UUID.String())
		require.NoError(t, err)
		assert.NotNil(t, still)
		assert.Equal(t, models.AuditActionLeadConversionFailed, auditRepo.lastAction())
	})
}

func TestExportLeads(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to export", func(t *testing.T) {
		flow, _, _, _ := newLeadFlowForTest(services.NewStubOracleClient(), nil)

		_, _, err := flow.ExportLeads(ctx, &dto.ExportLeadsRequest{}, testMetadata())
		require.Error(t, err)
		assert.True(t, IsNoLeadsToExport(err))
	})

	t.Run("renders a spreadsheet", func(t *testing.T) {
		flow, leadRepo, _, auditRepo := newLeadFlowForTest(services.NewStubOracleClient(), nil)
		seedLead(t, leadRepo, "alpha", 5000, 60, 85)
		seedLead(t, leadRepo, "beta", 1200, 20, 45)

		filename, data, err := flow.ExportLeads(ctx, &dto.ExportLeadsRequest{}, testMetadata())
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(filename, "leads_"))
		assert.True(t, strings.HasSuffix(filename, ".xlsx"))
		require.NotEmpty(t, data)

		xl, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer func() { _ = xl.Close() }()

		header, err := xl.GetCellValue("Leads", "A1")
		require.NoError(t, err)
		assert.Equal(t, "UUID", header)

		username, err := xl.GetCellValue("Leads", "C2")
		require.NoError(t, err)
		assert.Equal(t, "alpha", username)

		rows, err := xl.GetRows("Leads")
		require.NoError(t, err)
		assert.Len(t, rows, 3)

		assert.Equal(t, models.AuditActionLeadsExported, auditRepo.lastAction())
	})
}
