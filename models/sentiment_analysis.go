package models

import (
	"database/sql/driver"
	"fmt"
)

// Sentiment classifies the tone of a social post
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// String returns the string representation of the sentiment
func (s Sentiment) String() string {
	return string(s)
}

// Valid checks if the sentiment is a known value
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for Sentiment
func (s *Sentiment) Scan(value any) error {
	if value == nil {
		*s = SentimentNeutral
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = Sentiment(v)
	case []byte:
		*s = Sentiment(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Sentiment", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Sentiment
func (s Sentiment) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid Sentiment: %s", s)
	}
	return string(s), nil
}

// SentimentAnalysis is the oracle's classification of a single social post.
// A post has at most one current analysis; re-analysis overwrites it.
type SentimentAnalysis struct {
	PostID         string    `json:"post_id"`
	Platform       Platform  `json:"platform"`
	Sentiment      Sentiment `json:"sentiment"`
	Confidence     float64   `json:"confidence"`      // [0,1]
	RelevanceScore float64   `json:"relevance_score"` // [0,1]
	Topics         []string  `json:"topics"`
	Insights       []string  `json:"insights"`
}

// NeutralAnalysis returns the documented default used when an oracle call
// or its parse fails for a post.
func NeutralAnalysis(postID string, platform Platform) SentimentAnalysis {
	return SentimentAnalysis{
		PostID:         postID,
		Platform:       platform,
		Sentiment:      SentimentNeutral,
		Confidence:     0,
		RelevanceScore: 0,
		Topics:         []string{},
		Insights:       []string{},
	}
}

// IsRelevant reports whether the analyzed post clears the given relevance bar
func (a *SentimentAnalysis) IsRelevant(threshold float64) bool {
	return a.RelevanceScore >= threshold
}
