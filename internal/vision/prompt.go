// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package vision

import (
	"fmt"
	"strings"

	"github.com/tomtom215/vigilnet/internal/eventbus"
	"github.com/tomtom215/vigilnet/internal/ipconfig"
)

// ResponseSchema is the fixed JSON schema the prompt mandates and the
// response validator checks against (§6's "the only wire format the
// core mandates").
const ResponseSchema = `{
  "ip_results": [ {
    "ip_id": string, "ip_name": string,
    "contains_infringement": bool,
    "characters_detected": [ {
      "name": string, "screen_time_seconds": number,
      "prominence": "primary"|"secondary"|"background",
      "timestamps": [string], "description": string } ],
    "is_ai_generated": bool,
    "ai_tools_detected": [string],
    "fair_use_applies": bool, "fair_use_reasoning": string,
    "content_type": string,
    "infringement_likelihood": number (0..100),
    "reasoning": string,
    "recommended_action":
      "immediate_takedown"|"tolerated"|"monitor"|"safe_harbor"|"ignore" } ],
  "overall_recommendation":
    "immediate_takedown"|"tolerated"|"monitor"|"safe_harbor"|"ignore",
  "overall_notes": string }`

// maxCharactersListed caps how many characters per IP get named in the
// prompt body; the model is still told the full count.
const maxCharactersListed = 10

// PromptBuilder constructs the multi-IP copyright analysis prompt sent
// alongside the video to the vision model.
type PromptBuilder struct{}

// NewPromptBuilder returns a ready PromptBuilder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build returns the full analysis prompt for video against every
// matched IP target. Every video goes through the multi-IP form even
// when only one IP matched — a single-IP analysis is simply a
// one-element case of it.
func (b *PromptBuilder) Build(video eventbus.VideoMetadata, targets []ipconfig.Target) string {
	var ipSections strings.Builder
	for _, t := range targets {
		ipSections.WriteString(b.ipSection(t))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# MULTI-IP COPYRIGHT INFRINGEMENT ANALYSIS\n\n")
	sb.WriteString("You are a copyright analysis expert evaluating this video for potential infringement of multiple intellectual properties.\n\n")
	sb.WriteString("## VIDEO INFORMATION\n\n")
	fmt.Fprintf(&sb, "- **Video ID**: %s\n", video.VideoID)
	fmt.Fprintf(&sb, "- **Title**: %s\n", video.Title)
	fmt.Fprintf(&sb, "- **Channel**: %s\n", video.ChannelTitle)
	fmt.Fprintf(&sb, "- **Duration**: %d seconds\n", video.DurationSeconds)
	fmt.Fprintf(&sb, "- **View Count**: %d\n\n", video.ViewCount)
	sb.WriteString("## INTELLECTUAL PROPERTIES TO CHECK\n\n")
	sb.WriteString("This video may contain characters from multiple IPs. Analyze EACH IP separately:\n")
	sb.WriteString(ipSections.String())
	sb.WriteString("\n## LEGAL FRAMEWORK\n\n")
	sb.WriteString(legalFrameworkSection)
	sb.WriteString("\n## ANALYSIS INSTRUCTIONS\n\n")
	sb.WriteString("For EACH IP that appears in the video: identify characters, detect AI generation (tools, artifacts, watermarks), assess infringement considering fair use, evaluate the fair use factors for that specific IP, and provide detailed reasoning with timestamps.\n\n")
	sb.WriteString("## REQUIRED OUTPUT FORMAT\n\n")
	sb.WriteString("Respond with ONLY valid JSON matching this schema:\n\n")
	sb.WriteString(ResponseSchema)
	sb.WriteString("\n\nNow analyze the provided video for ALL listed IPs and respond with ONLY the JSON output.\n")

	return sb.String()
}

func (b *PromptBuilder) ipSection(t ipconfig.Target) string {
	chars := t.Characters
	truncated := ""
	if len(chars) > maxCharactersListed {
		truncated = fmt.Sprintf(", ... (%d total)", len(chars))
		chars = chars[:maxCharactersListed]
	}

	return fmt.Sprintf("\n### %s (%s)\n**Characters**: %s%s\n**Visual markers**: %s\n**AI patterns**: %s\n",
		t.DisplayName, t.Owner, strings.Join(chars, ", "), truncated,
		strings.Join(firstN(t.VisualMarkers, 5), ", "),
		strings.Join(firstN(t.AIToolNamePatterns, 5), ", "))
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

const legalFrameworkSection = `### Fair Use Doctrine (17 U.S.C. § 107)

Many uses are legitimate and not infringement: personal use (cosplay, home videos), licensed-product reviews, commentary/criticism, educational content, and news/documentary coverage.

Fair use applies when the purpose is transformative (commentary, criticism, education, parody), the use is factual or adds new expression, the amount used is the minimum necessary, and the use doesn't substitute for or harm the market for the original.

### AI-Generated Content

AI tools do not grant copyright permissions: AI-generated character content is an unauthorized derivative work, full AI-generated episodes or movies carry high infringement risk, and length matters — a 30-minute AI movie is a far more serious case than a 10-second clip.

### Recommended-action guide

- **immediate_takedown**: clear infringement with high commercial impact or extensive unauthorized use (full episodes/movies, monetized AI-generated narratives, unauthorized merchandise, commercial deepfakes).
- **tolerated**: technically infringing but culturally accepted and rarely prosecuted (fan cosplay, fan animations, tribute videos, low-budget fan films) — still worth monitoring in case the channel escalates.
- **safe_harbor**: protected by fair use (reviews/commentary, educational breakdowns, parody/satire, news coverage, licensed-product unboxings).
- **monitor**: ambiguous or borderline cases requiring human review.
- **ignore**: no infringement detected (original content, licensed/official content, generic concepts, name-only mentions).
`
