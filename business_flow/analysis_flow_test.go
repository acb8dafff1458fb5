package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/amirphl/Jorougumo/app/services"
	"github.com/amirphl/Jorougumo/config"
	"github.com/amirphl/Jorougumo/models"
	testhelpers "github.com/amirphl/Jorougumo/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalysisFlowForTest(oracle services.OracleClient) AnalysisFlow {
	return NewAnalysisFlow(oracle, services.NewContentParser(), nil, &config.CacheConfig{Enabled: false})
}

func TestAnalyzeSentiment(t *testing.T) {
	ctx := context.Background()

	t.Run("one entry per input post", func(t *testing.T) {
		posts := testhelpers.CreateTestSocialPosts(models.PlatformTwitter, 3)
		oracle := services.NewMockOracleClient(
			`{"sentiment":"positive","confidence":0.9,"relevance_score":0.8,"topics":["cre"],"insights":["investor"]}`,
		)

		flow := newAnalysisFlowForTest(oracle)
		results := flow.AnalyzeSentiment(ctx, posts)

		require.Len(t, results, 3)
		for _, post := range posts {
			analysis, ok := results[post.ID]
			require.True(t, ok)
			assert.Equal(t, post.ID, analysis.PostID)
			assert.Equal(t, models.SentimentPositive, analysis.Sentiment)
		}
		assert.Equal(t, 3, oracle.CallCount())
	})

	t.Run("failed call defaults only that post", func(t *testing.T) {
		posts := testhelpers.CreateTestSocialPosts(models.PlatformTwitter, 2)
		oracle := services.NewMockOracleClient(
			`{"sentiment":"positive","confidence":0.9,"relevance_score":0.8}`,
		)
		oracle.Errs = []error{nil, errors.New("oracle timeout")}

		flow := newAnalysisFlowForTest(oracle)
		results := flow.AnalyzeSentiment(ctx, posts)

		require.Len(t, results, 2)
		assert.Equal(t, models.SentimentPositive, results[posts[0].ID].Sentiment)
		assert.Equal(t, models.SentimentNeutral, results[posts[1].ID].Sentiment)
		assert.Zero(t, results[posts[1].ID].Confidence)
	})

	t.Run("unparseable reply defaults to neutral", func(t *testing.T) {
		posts := testhelpers.CreateTestSocialPosts(models.PlatformTwitter, 1)
		oracle := services.NewMockOracleClient("the vibes are immaculate")

		flow := newAnalysisFlowForTest(oracle)
		results := flow.AnalyzeSentiment(ctx, posts)

		analysis := results[posts[0].ID]
		assert.Equal(t, models.SentimentNeutral, analysis.Sentiment)
		assert.Zero(t, analysis.RelevanceScore)
	})

	t.Run("degraded oracle defaults everything", func(t *testing.T) {
		posts := testhelpers.CreateTestSocialPosts(models.PlatformLinkedIn, 2)

		flow := newAnalysisFlowForTest(services.NewStubOracleClient())
		results := flow.AnalyzeSentiment(ctx, posts)

		require.Len(t, results, 2)
		for _, analysis := range results {
			assert.Equal(t, models.SentimentNeutral, analysis.Sentiment)
		}
	})
}

func TestScoreLeadProfile(t *testing.T) {
	ctx := context.Background()
	author := models.PostAuthor{Username: "alpha", DisplayName: "Alpha Investor", FollowerCount: 5000}

	t.Run("parses the oracle score", func(t *testing.T) {
		oracle := services.NewMockOracleClient(
			`{"sentiment":"positive","confidence":0.85,"relevance_score":0.7,"topics":["cre"],"insights":["ready to buy"],"lead_score":78}`,
		)

		flow := newAnalysisFlowForTest(oracle)
		result := flow.ScoreLeadProfile(ctx, models.PlatformTwitter, author, []string{"Scouting deals"})

		assert.InDelta(t, 78, result.LeadScore, 0.0001)
		assert.Equal(t, models.SentimentPositive, result.Sentiment)
		assert.False(t, result.Fallback)
	})

	t.Run("clamps an out-of-range score", func(t *testing.T) {
		oracle := services.NewMockOracleClient(`{"sentiment":"positive","lead_score":700}`)

		flow := newAnalysisFlowForTest(oracle)
		result := flow.ScoreLeadProfile(ctx, models.PlatformTwitter, author, nil)

		assert.InDelta(t, 100, result.LeadScore, 0.0001)
	})

	t.Run("degraded oracle yields the zero-score default", func(t *testing.T) {
		flow := newAnalysisFlowForTest(services.NewStubOracleClient())
		result := flow.ScoreLeadProfile(ctx, models.PlatformTwitter, author, nil)

		assert.True(t, result.Fallback)
		assert.Zero(t, result.LeadScore)
		assert.Equal(t, models.SentimentNeutral, result.Sentiment)
	})

	t.Run("oracle error yields the zero-score default", func(t *testing.T) {
		oracle := services.NewMockOracleClient()
		oracle.Errs = []error{errors.New("rate limited")}

		flow := newAnalysisFlowForTest(oracle)
		result := flow.ScoreLeadProfile(ctx, models.PlatformTwitter, author, nil)

		assert.True(t, result.Fallback)
		assert.Zero(t, result.LeadScore)
	})
}
