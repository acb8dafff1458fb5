package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/amirphl/Jorougumo/app/services"
	"github.com/amirphl/Jorougumo/config"
	"github.com/amirphl/Jorougumo/models"
	"github.com/amirphl/Jorougumo/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var sentimentAnalysesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sentiment_analyses_total",
		Help: "Total number of post sentiment analyses by outcome",
	},
	[]string{"outcome"},
)

// AnalysisFlow handles oracle-backed sentiment analysis and lead scoring
type AnalysisFlow interface {
	AnalyzeSentiment(ctx context.Context, posts []models.SocialPost) map[string]models.SentimentAnalysis
	ScoreLeadProfile(ctx context.Context, platform models.Platform, author models.PostAuthor, relevantPosts []string) services.AnalysisResult
}

// AnalysisFlowImpl implements the analysis business flow
type AnalysisFlowImpl struct {
	oracle      services.OracleClient
	parser      *services.ContentParser
	rc          *redis.Client
	cacheConfig *config.CacheConfig
}

// NewAnalysisFlow creates a new analysis flow instance
func NewAnalysisFlow(
	oracle services.OracleClient,
	parser *services.ContentParser,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) AnalysisFlow {
	return &AnalysisFlowImpl{
		oracle:      oracle,
		parser:      parser,
		rc:          rc,
		cacheConfig: cacheConfig,
	}
}

// AnalyzeSentiment classifies a batch of posts one by one. A failed call or
// unparseable reply yields the neutral default for that post only; the rest
// of the batch proceeds. The returned map is keyed by post ID and always has
// one entry per input post.
func (s *AnalysisFlowImpl) AnalyzeSentiment(ctx context.Context, posts []models.SocialPost) map[string]models.SentimentAnalysis {
	results := make(map[string]models.SentimentAnalysis, len(posts))

	for _, post := range posts {
		if cached, ok := s.cachedAnalysis(ctx, post); ok {
			sentimentAnalysesTotal.WithLabelValues("cache_hit").Inc()
			results[post.ID] = cached
			continue
		}

		analysis := s.analyzeOne(ctx, post)
		results[post.ID] = analysis
		s.storeAnalysis(ctx, post, analysis)
	}

	return results
}

func (s *AnalysisFlowImpl) analyzeOne(ctx context.Context, post models.SocialPost) models.SentimentAnalysis {
	prompt := BuildAnalysisPrompt(post)

	raw, err := s.oracle.Generate(ctx, prompt, utils.OracleMaxTokensAnalysis, utils.OracleTemperatureAnalysis)
	if err != nil || raw == "" {
		if err != nil {
			log.Printf("sentiment analysis failed for post %s: %v", post.ID, err)
		}
		sentimentAnalysesTotal.WithLabelValues("defaulted").Inc()
		return models.NeutralAnalysis(post.ID, post.Platform)
	}

	parsed := s.parser.ParseAnalysis(raw)
	if parsed.Fallback {
		sentimentAnalysesTotal.WithLabelValues("defaulted").Inc()
		return models.NeutralAnalysis(post.ID, post.Platform)
	}

	sentimentAnalysesTotal.WithLabelValues("success").Inc()
	return models.SentimentAnalysis{
		PostID:         post.ID,
		Platform:       post.Platform,
		Sentiment:      parsed.Sentiment,
		Confidence:     parsed.Confidence,
		RelevanceScore: parsed.RelevanceScore,
		Topics:         parsed.Topics,
		Insights:       parsed.Insights,
	}
}

// ScoreLeadProfile asks the oracle to score a profile against the lead
// rubric. The oracle does the arithmetic; the flow only clamps the result.
// Any failure yields the zero-score default.
func (s *AnalysisFlowImpl) ScoreLeadProfile(ctx context.Context, platform models.Platform, author models.PostAuthor, relevantPosts []string) services.AnalysisResult {
	prompt := BuildLeadScoringPrompt(platform, author, relevantPosts)

	raw, err := s.oracle.Generate(ctx, prompt, utils.OracleMaxTokensAnalysis, utils.OracleTemperatureAnalysis)
	if err != nil || raw == "" {
		if err != nil {
			log.Printf("lead scoring failed for @%s: %v", author.Username, err)
		}
		return services.AnalysisResult{
			Sentiment: models.SentimentNeutral,
			Topics:    []string{},
			Insights:  []string{},
			Fallback:  true,
		}
	}

	return s.parser.ParseAnalysis(raw)
}

// analysisCacheKey identifies the current analysis of one (platform, post) pair
func analysisCacheKey(cfg config.CacheConfig, post models.SocialPost) string {
	return redisKey(cfg, fmt.Sprintf("analysis:%s:%s", post.Platform, post.ID))
}

func (s *AnalysisFlowImpl) cachedAnalysis(ctx context.Context, post models.SocialPost) (models.SentimentAnalysis, bool) {
	if s.rc == nil || !s.cacheConfig.Enabled {
		return models.SentimentAnalysis{}, false
	}

	bs, err := s.rc.Get(ctx, analysisCacheKey(*s.cacheConfig, post)).Bytes()
	if err != nil || len(bs) == 0 {
		return models.SentimentAnalysis{}, false
	}

	var analysis models.SentimentAnalysis
	if err := json.Unmarshal(bs, &analysis); err != nil {
		return models.SentimentAnalysis{}, false
	}

	return analysis, true
}

// storeAnalysis overwrites the post's current analysis. SET, never append:
// re-analysis replaces whatever was there.
func (s *AnalysisFlowImpl) storeAnalysis(ctx context.Context, post models.SocialPost, analysis models.SentimentAnalysis) {
	if s.rc == nil || !s.cacheConfig.Enabled {
		return
	}

	bs, err := json.Marshal(analysis)
	if err != nil {
		return
	}

	ttl := s.cacheConfig.AnalysisTTL
	if ttl <= 0 {
		ttl = utils.AnalysisCacheTTL
	}

	if err := s.rc.Set(ctx, analysisCacheKey(*s.cacheConfig, post), bs, ttl).Err(); err != nil {
		log.Printf("failed to cache analysis for post %s: %v", post.ID, err)
	}
}
