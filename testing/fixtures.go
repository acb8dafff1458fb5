// Package testing provides test utilities and database setup for testing the pipeline
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/amirphl/Jorougumo/models"
	"github.com/amirphl/Jorougumo/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestLead creates a persisted lead on the given platform
func (tf *TestFixtures) CreateTestLead(platform models.Platform, leadScore int) (*models.Lead, error) {
	suffix := rand.Intn(1000000)
	username := fmt.Sprintf("lead_%d", suffix)

	lead := &models.Lead{
		Platform:      platform,
		Username:      username,
		DisplayName:   fmt.Sprintf("Test Lead %d", suffix),
		Bio:           "Commercial real estate investor exploring PropTech",
		ProfileURL:    fmt.Sprintf("https://%s.com/%s", platform, username),
		Followers:     1000 + rand.Intn(10000),
		Engagement:    rand.Intn(500),
		Topics:        models.StringList{"commercial real estate", "proptech"},
		Sentiment:     models.SentimentPositive,
		LeadScore:     leadScore,
		RelevantPosts: models.StringList{"Looking at tokenized CRE deals this quarter"},
	}

	if err := tf.DB.DB.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create test lead: %w", err)
	}

	return lead, nil
}

// CreateTestContact creates a CRM contact as if produced by a conversion
func (tf *TestFixtures) CreateTestContact() (*models.Contact, error) {
	suffix := rand.Intn(1000000)
	email := fmt.Sprintf("contact%d@example.com", suffix)
	sourceURL := fmt.Sprintf("https://twitter.com/contact_%d", suffix)

	contact := &models.Contact{
		Name:      fmt.Sprintf("Test Contact %d", suffix),
		Email:     &email,
		Labels:    models.StringList{"discovered"},
		Source:    "lead_conversion",
		SourceURL: &sourceURL,
		LeadScore: 20,
	}

	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}

	return contact, nil
}

// CreateTestPendingPost creates a generated draft in the given status
func (tf *TestFixtures) CreateTestPendingPost(platform models.Platform, status models.PostStatus) (*models.PendingPost, error) {
	post := &models.PendingPost{
		Platform: platform,
		Content:  fmt.Sprintf("Draft %d about commercial real estate trends", rand.Intn(1000000)),
		Hashtags: models.StringList{"CRE", "PropTech"},
		Tone:     "professional",
		Focus:    "commercial real estate trends",
		Status:   status,
	}
	if status == models.PostStatusScheduled {
		at := utils.UTCNow().Add(-time.Minute) // already due
		post.ScheduledFor = &at
	}

	if err := tf.DB.DB.Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create test pending post: %w", err)
	}

	return post, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// CreateTestSocialPosts builds transient social posts for analysis tests
func CreateTestSocialPosts(platform models.Platform, n int) []models.SocialPost {
	posts := make([]models.SocialPost, 0, n)
	for i := range n {
		posts = append(posts, models.SocialPost{
			ID:       fmt.Sprintf("post-%d", i+1),
			Platform: platform,
			Content:  fmt.Sprintf("Post %d about office-to-residential conversions", i+1),
			Author: models.PostAuthor{
				Username:      fmt.Sprintf("author_%d", i+1),
				DisplayName:   fmt.Sprintf("Author %d", i+1),
				FollowerCount: 500 * (i + 1),
			},
			Engagement: models.PostEngagement{
				Likes:    10 * (i + 1),
				Shares:   i,
				Comments: i,
			},
			CreatedAt: utils.UTCNow(),
		})
	}
	return posts
}
