// Package models contains domain entities and business models for the lead pipeline
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/amirphl/Jorougumo/utils"
)

// Platform identifies the social network a post or profile belongs to
type Platform string

const (
	PlatformTwitter  Platform = "twitter"
	PlatformLinkedIn Platform = "linkedin"
)

// String returns the string representation of the platform
func (p Platform) String() string {
	return string(p)
}

// Valid checks if the platform is supported
func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitter, PlatformLinkedIn:
		return true
	default:
		return false
	}
}

// CharacterLimit returns the maximum content length allowed by the platform
func (p Platform) CharacterLimit() int {
	switch p {
	case PlatformLinkedIn:
		return utils.LinkedInCharacterLimit
	default:
		return utils.TwitterCharacterLimit
	}
}

// Scan implements the sql.Scanner interface for Platform
func (p *Platform) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = Platform(v)
	case []byte:
		*p = Platform(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Platform", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Platform
func (p Platform) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid Platform: %s", p)
	}
	return string(p), nil
}

// PostAuthor is the author of a fetched social post
type PostAuthor struct {
	Username        string `json:"username"`
	DisplayName     string `json:"display_name"`
	Bio             string `json:"bio,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	FollowerCount   int    `json:"follower_count"`
}

// PostEngagement holds the engagement counters of a fetched social post
type PostEngagement struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
}

// SocialPost is a post fetched from a social platform. It is ephemeral:
// produced by the platform client, never mutated, cached with a TTL.
type SocialPost struct {
	ID         string         `json:"id"`
	Platform   Platform       `json:"platform"`
	Content    string         `json:"content"`
	Author     PostAuthor     `json:"author"`
	Engagement PostEngagement `json:"engagement"`
	CreatedAt  time.Time      `json:"created_at"`
	URL        string         `json:"url,omitempty"`
}

// EngagementTotal returns the summed engagement counters
func (p *SocialPost) EngagementTotal() int {
	return p.Engagement.Likes + p.Engagement.Shares + p.Engagement.Comments
}
