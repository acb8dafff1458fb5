package services

import (
	"encoding/json"
	"strings"

	"github.com/amirphl/Jorougumo/models"
	"github.com/amirphl/Jorougumo/utils"
)

// AnalysisResult is the parsed form of an oracle sentiment reply
type AnalysisResult struct {
	Sentiment      models.Sentiment `json:"sentiment"`
	Confidence     float64          `json:"confidence"`
	RelevanceScore float64          `json:"relevance_score"`
	Topics         []string         `json:"topics"`
	Insights       []string         `json:"insights"`
	LeadScore      float64          `json:"lead_score"`
	Fallback       bool             `json:"fallback"`
}

// GeneratedContentResult is the parsed form of an oracle content reply
type GeneratedContentResult struct {
	Content             string   `json:"content"`
	Hashtags            []string `json:"hashtags"`
	CallToAction        string   `json:"call_to_action"`
	MediaType           string   `json:"media_type"`
	EstimatedEngagement float64  `json:"estimated_engagement"`
	Fallback            bool     `json:"fallback"`
}

// BlogPostResult is the parsed form of an oracle long-form reply
type BlogPostResult struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	Tags          []string `json:"tags"`
	FeaturedImage string   `json:"featured_image"`
	Fallback      bool     `json:"fallback"`
}

// ContentParser turns free-form oracle replies into typed results. Oracles
// wrap JSON in prose, markdown fences, or nothing at all; every parse method
// tolerates all of that and falls back to documented defaults instead of
// returning an error.
type ContentParser struct{}

// NewContentParser creates a new content parser
func NewContentParser() *ContentParser {
	return &ContentParser{}
}

// ExtractJSONObject returns the first balanced top-level {...} substring of
// raw, honoring string literals and escapes, or "" if none exists
func ExtractJSONObject(raw string) string {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1]
				}
			}
		}
	}

	return ""
}

// ParseAnalysis extracts a sentiment analysis from a raw oracle reply.
// Unparseable input yields the neutral defaults with Fallback set.
func (p *ContentParser) ParseAnalysis(raw string) AnalysisResult {
	result := AnalysisResult{
		Sentiment:      models.SentimentNeutral,
		Confidence:     0,
		RelevanceScore: 0,
		Topics:         []string{},
		Insights:       []string{},
		LeadScore:      0,
	}

	obj := p.decode(raw)
	if obj == nil {
		result.Fallback = true
		return result
	}

	if s := models.Sentiment(toString(obj["sentiment"])); s.Valid() {
		result.Sentiment = s
	}
	result.Confidence = utils.Clamp(toFloat(obj["confidence"]), 0, 1)
	if v, ok := obj["relevance_score"]; ok {
		result.RelevanceScore = utils.Clamp(toFloat(v), 0, 1)
	} else {
		result.RelevanceScore = utils.Clamp(toFloat(obj["relevance"]), 0, 1)
	}
	result.Topics = toStringSlice(obj["topics"])
	result.Insights = toStringSlice(obj["insights"])
	if v, ok := obj["lead_score"]; ok {
		result.LeadScore = utils.Clamp(toFloat(v), 0, 100)
	} else {
		result.LeadScore = utils.Clamp(toFloat(obj["leadScore"]), 0, 100)
	}

	return result
}

// ParseGeneratedContent extracts a social draft from a raw oracle reply.
// When no JSON object can be recovered the raw text itself becomes the
// content, so a generation round never produces an empty draft from a
// non-empty reply.
func (p *ContentParser) ParseGeneratedContent(raw string) GeneratedContentResult {
	result := GeneratedContentResult{
		Hashtags:  []string{},
		MediaType: "text",
	}

	obj := p.decode(raw)
	if obj == nil {
		result.Content = strings.TrimSpace(raw)
		result.Fallback = true
		return result
	}

	result.Content = toString(obj["content"])
	result.Hashtags = toStringSlice(obj["hashtags"])
	if cta, ok := obj["call_to_action"]; ok {
		result.CallToAction = toString(cta)
	} else {
		result.CallToAction = toString(obj["callToAction"])
	}
	if mt := toString(obj["media_type"]); mt != "" {
		result.MediaType = mt
	}
	if v, ok := obj["estimated_engagement"]; ok {
		result.EstimatedEngagement = utils.Clamp(toFloat(v), 0, 100)
	} else {
		result.EstimatedEngagement = utils.Clamp(toFloat(obj["estimatedEngagement"]), 0, 100)
	}

	if result.Content == "" {
		result.Content = strings.TrimSpace(raw)
		result.Fallback = true
	}

	return result
}

// ParseBlogPost extracts a long-form article from a raw oracle reply. The
// heuristic fallback treats the first non-trivial line as the title and the
// whole reply as the body.
func (p *ContentParser) ParseBlogPost(raw string) BlogPostResult {
	result := BlogPostResult{
		Tags: []string{"proptech"},
	}

	obj := p.decode(raw)
	if obj == nil {
		return p.blogPostFromText(raw)
	}

	result.Title = toString(obj["title"])
	result.Content = toString(obj["content"])
	result.Excerpt = toString(obj["excerpt"])
	if tags := toStringSlice(obj["tags"]); len(tags) > 0 {
		result.Tags = tags
	}
	if fi, ok := obj["featured_image"]; ok {
		result.FeaturedImage = toString(fi)
	} else {
		result.FeaturedImage = toString(obj["featuredImage"])
	}

	if result.Title == "" && result.Content == "" {
		return p.blogPostFromText(raw)
	}
	if result.Excerpt == "" {
		result.Excerpt = excerptOf(result.Content)
	}

	return result
}

func (p *ContentParser) blogPostFromText(raw string) BlogPostResult {
	text := strings.TrimSpace(raw)

	title := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if len(line) >= 10 {
			title = line
			break
		}
	}
	if title == "" {
		title = utils.Truncate(text, 60)
	}

	return BlogPostResult{
		Title:    title,
		Content:  text,
		Excerpt:  excerptOf(text),
		Tags:     []string{"proptech"},
		Fallback: true,
	}
}

// decode extracts and strictly parses the first JSON object in raw
func (p *ContentParser) decode(raw string) map[string]any {
	obj := ExtractJSONObject(raw)
	if obj == "" {
		return nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return nil
	}

	return out
}

func excerptOf(content string) string {
	return utils.Truncate(strings.TrimSpace(content), 160)
}

func toString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(n)), &f); err == nil {
			return f
		}
	}
	return 0
}

func toStringSlice(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s := toString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
