package businessflow

import (
	"fmt"
	"strings"

	"github.com/amirphl/Jorougumo/models"
)

// Prompt templates sent to the oracle. Every template demands a JSON reply;
// the content parser tolerates prose around the object, so the templates
// stay short rather than defensive.
const (
	sentimentAnalysisPrompt = `You are a market analyst for a commercial real estate (CRE) technology company.

Analyze the following %s post for sentiment and relevance to commercial real estate, PropTech, real estate investment, or tokenized property assets.

Post by @%s:
---
%s
---

Respond with a JSON object:
{
  "sentiment": "positive" | "negative" | "neutral",
  "confidence": <0.0-1.0>,
  "relevance_score": <0.0-1.0, how relevant the post is to CRE/PropTech>,
  "topics": ["<topic>", ...],
  "insights": ["<short actionable insight>", ...]
}`

	leadScoringPrompt = `You are a lead qualification analyst for a commercial real estate (CRE) technology company.

Score the following %s profile as a sales lead from 0 to 100. Do the arithmetic yourself using this rubric:
- Active in commercial real estate with a real follower base (0-30 points)
- Discusses PropTech, innovation, or real estate technology (0-25 points)
- Mentions crypto, tokenization, or digital assets (0-15 points)
- Uses investment language (deals, cap rates, portfolios, acquisitions) (0-20 points)
- Posts show genuine engagement, not spam or pure promotion (0-10 points)

Profile:
- Username: @%s
- Display name: %s
- Bio: %s
- Followers: %d

Recent posts:
%s

Respond with a JSON object:
{
  "lead_score": <0-100>,
  "sentiment": "positive" | "negative" | "neutral",
  "topics": ["<topic the profile talks about>", ...],
  "insights": ["<why this profile is or is not a good lead>", ...]
}`

	contentGenerationPrompt = `You are a social media manager for a commercial real estate (CRE) technology company.

Write a %s post about: %s

Constraints:
- Maximum %d characters of post content
- Tone: %s%s%s

Respond with a JSON object:
{
  "content": "<the post text, within the character limit>",
  "hashtags": ["<hashtag without #>", ...],
  "call_to_action": "<one short CTA sentence, or empty string>",
  "estimated_engagement": <0-100, your estimate of engagement potential>
}`
)

// BuildAnalysisPrompt renders the sentiment analysis prompt for one post
func BuildAnalysisPrompt(post models.SocialPost) string {
	return fmt.Sprintf(sentimentAnalysisPrompt, post.Platform, post.Author.Username, post.Content)
}

// BuildLeadScoringPrompt renders the lead scoring prompt for one profile
// and its relevant posts
func BuildLeadScoringPrompt(platform models.Platform, author models.PostAuthor, posts []string) string {
	postsBlock := "(none)"
	if len(posts) > 0 {
		var b strings.Builder
		for i, p := range posts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p)
		}
		postsBlock = strings.TrimRight(b.String(), "\n")
	}

	return fmt.Sprintf(leadScoringPrompt,
		platform, author.Username, author.DisplayName, author.Bio,
		author.FollowerCount, postsBlock)
}

// BuildGenerationPrompt renders the content generation prompt
func BuildGenerationPrompt(platform models.Platform, focus, tone string, inspiration []models.SocialPost, includeCTA bool) string {
	ctaBlock := ""
	if includeCTA {
		ctaBlock = "\n- Include a call to action"
	}

	inspirationBlock := ""
	if len(inspiration) > 0 {
		var b strings.Builder
		b.WriteString("\n\nFor inspiration, here are recent well-received posts on the topic:\n")
		for i, p := range inspiration {
			fmt.Fprintf(&b, "%d. %s\n", i+1, p.Content)
		}
		inspirationBlock = strings.TrimRight(b.String(), "\n")
	}

	return fmt.Sprintf(contentGenerationPrompt,
		platform, focus, platform.CharacterLimit(), tone, ctaBlock, inspirationBlock)
}

// FallbackContent is the deterministic template used when the oracle chain
// produces nothing usable. The pipeline must always yield a draft.
func FallbackContent(platform models.Platform, focus string) string {
	content := fmt.Sprintf(
		"The future of commercial real estate is being written right now. %s is one of the trends we are watching closely - and we would love to hear how it is changing the way you work. Share your take below.",
		focus,
	)
	if len([]rune(content)) > platform.CharacterLimit() {
		content = fmt.Sprintf("What does %s mean for the future of CRE? Share your take below.", focus)
	}
	return content
}
