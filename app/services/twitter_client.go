package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amirphl/Jorougumo/config"
	"github.com/amirphl/Jorougumo/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var platformPublishTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "platform_publish_total",
		Help: "Total number of platform publish attempts by platform and outcome",
	},
	[]string{"platform", "outcome"},
)

// PublishResult is the outcome of a platform write
type PublishResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id,omitempty"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SocialClient abstracts a social platform: read recent posts, read a
// profile's timeline, and publish. Implementations must be safe for
// concurrent use.
type SocialClient interface {
	SearchPosts(ctx context.Context, query string, limit int) ([]models.SocialPost, error)
	Timeline(ctx context.Context, username string, limit int) ([]models.SocialPost, error)
	Publish(ctx context.Context, content string) (*PublishResult, error)
	Platform() models.Platform
	Available() bool
}

// TwitterClient implements SocialClient against the Twitter API v2
type TwitterClient struct {
	config *config.TwitterConfig
	client *http.Client
}

// NewTwitterClient creates a new twitter client instance
func NewTwitterClient(cfg *config.TwitterConfig) *TwitterClient {
	return &TwitterClient{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Platform returns the platform this client serves
func (c *TwitterClient) Platform() models.Platform {
	return models.PlatformTwitter
}

// Available reports whether API credentials are configured
func (c *TwitterClient) Available() bool {
	return c.config.BearerToken != ""
}

type twitterUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
	} `json:"public_metrics"`
}

type twitterTweet struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	AuthorID      string    `json:"author_id"`
	CreatedAt     time.Time `json:"created_at"`
	PublicMetrics struct {
		LikeCount    int `json:"like_count"`
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
	} `json:"public_metrics"`
}

type twitterSearchResponse struct {
	Data     []twitterTweet `json:"data"`
	Includes struct {
		Users []twitterUser `json:"users"`
	} `json:"includes"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// SearchPosts runs a recent-search query and returns hydrated posts
func (c *TwitterClient) SearchPosts(ctx context.Context, query string, limit int) ([]models.SocialPost, error) {
	if !c.Available() {
		return nil, fmt.Errorf("twitter credentials not configured")
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", strconv.Itoa(clampPageSize(limit)))
	params.Set("expansions", "author_id")
	params.Set("tweet.fields", "created_at,public_metrics,author_id")
	params.Set("user.fields", "username,name,description,public_metrics")

	endpoint := c.config.BaseURL + "/tweets/search/recent?" + params.Encode()
	return c.fetchPosts(ctx, endpoint)
}

// Timeline returns the recent posts of a single profile
func (c *TwitterClient) Timeline(ctx context.Context, username string, limit int) ([]models.SocialPost, error) {
	query := fmt.Sprintf("from:%s -is:retweet", username)
	return c.SearchPosts(ctx, query, limit)
}

func (c *TwitterClient) fetchPosts(ctx context.Context, endpoint string) ([]models.SocialPost, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create twitter request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.BearerToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter API returned status %d", resp.StatusCode)
	}

	var out twitterSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode twitter response: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("twitter API error: %s", out.Errors[0].Message)
	}

	authors := make(map[string]twitterUser, len(out.Includes.Users))
	for _, u := range out.Includes.Users {
		authors[u.ID] = u
	}

	posts := make([]models.SocialPost, 0, len(out.Data))
	for _, t := range out.Data {
		author := authors[t.AuthorID]
		posts = append(posts, models.SocialPost{
			ID:       t.ID,
			Platform: models.PlatformTwitter,
			Content:  t.Text,
			Author: models.PostAuthor{
				Username:      author.Username,
				DisplayName:   author.Name,
				Bio:           author.Description,
				FollowerCount: author.PublicMetrics.FollowersCount,
			},
			Engagement: models.PostEngagement{
				Likes:    t.PublicMetrics.LikeCount,
				Shares:   t.PublicMetrics.RetweetCount,
				Comments: t.PublicMetrics.ReplyCount,
			},
			CreatedAt: t.CreatedAt,
			URL:       fmt.Sprintf("https://twitter.com/%s/status/%s", author.Username, t.ID),
		})
	}

	return posts, nil
}

type twitterPublishRequest struct {
	Text string `json:"text"`
}

type twitterPublishResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Detail string `json:"detail"`
}

// Publish writes a tweet and returns the platform-assigned post ID
func (c *TwitterClient) Publish(ctx context.Context, content string) (*PublishResult, error) {
	if !c.Available() {
		platformPublishTotal.WithLabelValues("twitter", "unavailable").Inc()
		return &PublishResult{Success: false, Error: "twitter credentials not configured"}, nil
	}

	payload, err := json.Marshal(twitterPublishRequest{Text: content})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/tweets", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		platformPublishTotal.WithLabelValues("twitter", "transport_error").Inc()
		return nil, fmt.Errorf("twitter publish failed: %w", err)
	}
	defer resp.Body.Close()

	var out twitterPublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		platformPublishTotal.WithLabelValues("twitter", "decode_error").Inc()
		return nil, fmt.Errorf("failed to decode publish response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		platformPublishTotal.WithLabelValues("twitter", "api_error").Inc()
		msg := out.Detail
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return &PublishResult{Success: false, Error: msg}, nil
	}

	platformPublishTotal.WithLabelValues("twitter", "success").Inc()
	return &PublishResult{
		Success: true,
		PostID:  out.Data.ID,
		URL:     "https://twitter.com/i/status/" + out.Data.ID,
	}, nil
}

// DisabledSocialClient is the degraded-mode platform client used when no
// credentials are configured. Reads return empty sets; publishes report a
// non-success result without erroring so callers can mark the post failed.
type DisabledSocialClient struct {
	platform models.Platform
}

// NewDisabledSocialClient creates a disabled client for the given platform
func NewDisabledSocialClient(platform models.Platform) *DisabledSocialClient {
	return &DisabledSocialClient{platform: platform}
}

// Platform returns the platform this client stands in for
func (c *DisabledSocialClient) Platform() models.Platform {
	return c.platform
}

// Available always reports false
func (c *DisabledSocialClient) Available() bool {
	return false
}

// SearchPosts returns an empty result set
func (c *DisabledSocialClient) SearchPosts(ctx context.Context, query string, limit int) ([]models.SocialPost, error) {
	return []models.SocialPost{}, nil
}

// Timeline returns an empty result set
func (c *DisabledSocialClient) Timeline(ctx context.Context, username string, limit int) ([]models.SocialPost, error) {
	return []models.SocialPost{}, nil
}

// Publish reports a non-success result without attempting any write
func (c *DisabledSocialClient) Publish(ctx context.Context, content string) (*PublishResult, error) {
	platformPublishTotal.WithLabelValues(c.platform.String(), "disabled").Inc()
	return &PublishResult{
		Success: false,
		Error:   fmt.Sprintf("%s client disabled: no credentials configured", c.platform),
	}, nil
}

// MockSocialClient implements SocialClient for testing with canned posts
// and a recorded publish log
type MockSocialClient struct {
	MockPlatform models.Platform
	SearchResult []models.SocialPost
	SearchErr    error
	PublishOK    bool
	PublishID    string
	PublishErr   error

	Published []string
	Queries   []string
}

// NewMockSocialClient creates a new mock social client
func NewMockSocialClient(platform models.Platform) *MockSocialClient {
	return &MockSocialClient{
		MockPlatform: platform,
		PublishOK:    true,
		PublishID:    "mock-post-1",
	}
}

// Platform returns the configured platform
func (c *MockSocialClient) Platform() models.Platform {
	return c.MockPlatform
}

// Available always reports true for the mock
func (c *MockSocialClient) Available() bool {
	return true
}

// SearchPosts records the query and returns the canned posts
func (c *MockSocialClient) SearchPosts(ctx context.Context, query string, limit int) ([]models.SocialPost, error) {
	c.Queries = append(c.Queries, query)
	if c.SearchErr != nil {
		return nil, c.SearchErr
	}
	if limit > 0 && limit < len(c.SearchResult) {
		return c.SearchResult[:limit], nil
	}
	return c.SearchResult, nil
}

// Timeline records the lookup and returns the canned posts
func (c *MockSocialClient) Timeline(ctx context.Context, username string, limit int) ([]models.SocialPost, error) {
	return c.SearchPosts(ctx, "from:"+username, limit)
}

// Publish records the content and returns the scripted result
func (c *MockSocialClient) Publish(ctx context.Context, content string) (*PublishResult, error) {
	c.Published = append(c.Published, content)
	if c.PublishErr != nil {
		return nil, c.PublishErr
	}
	if !c.PublishOK {
		return &PublishResult{Success: false, Error: "mock publish rejected"}, nil
	}
	return &PublishResult{
		Success: true,
		PostID:  c.PublishID,
		URL:     "https://example.com/posts/" + c.PublishID,
	}, nil
}

// clampPageSize keeps the search page size inside the API's accepted range
func clampPageSize(limit int) int {
	if limit < 10 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}
