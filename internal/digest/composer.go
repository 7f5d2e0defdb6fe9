package digest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
)

const (
	titleMaxLen   = 200
	introMaxLen   = 500
	closingMaxLen = 500

	curatedLimit  = 10
	trendingLimit = 5

	fallbackTitle = "Weekly Newsletter"
)

// ErrGenerationFailed means the generative backend errored or returned
// nothing usable. No partial draft is persisted.
var ErrGenerationFailed = errors.New("newsletter generation failed")

// Generator produces text from a system directive and a user prompt
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// DraftStore persists composed drafts
type DraftStore interface {
	Create(ctx context.Context, draft *models.Draft) (*models.Draft, error)
}

// ActivityStore records composition side effects
type ActivityStore interface {
	Append(ctx context.Context, event models.ActivityEvent) error
}

// Composer turns categorized tiers plus a voice profile into a persisted Draft
type Composer struct {
	generator Generator
	drafts    DraftStore
	activity  ActivityStore
	logger    *logging.Logger
	now       func() time.Time
}

// NewComposer creates a draft composer
func NewComposer(generator Generator, drafts DraftStore, activity ActivityStore, logger *logging.Logger) *Composer {
	return &Composer{
		generator: generator,
		drafts:    drafts,
		activity:  activity,
		logger:    logger,
		now:       time.Now,
	}
}

// Compose generates a newsletter from the tiers and persists it as a new
// draft. A failed or empty generation surfaces as ErrGenerationFailed with
// nothing persisted.
func (c *Composer) Compose(ctx context.Context, userID string, tiers Tiers, profile *models.VoiceProfile) (*models.Draft, error) {
	system := buildStyleDirective(profile)
	brief := buildContentBrief(tiers, c.now())

	start := c.now()
	text, err := c.generator.Generate(ctx, system, brief)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	generationSeconds := c.now().Sub(start).Seconds()

	title, intro, closing, ok := parseSections(text)
	if !ok {
		return nil, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	draft := &models.Draft{
		UserID:            userID,
		Status:            models.DraftStatusDraft,
		AITitle:           title,
		AIIntro:           intro,
		AIBody:            text,
		AIClosing:         closing,
		CuratedItems:      curatedItems(tiers.Primary),
		TrendingItems:     trendItems(tiers.Trending),
		GenerationSeconds: generationSeconds,
	}

	saved, err := c.drafts.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("persist draft: %w", err)
	}

	c.logger.Info("Draft composed", logging.WithFields(map[string]interface{}{
		"user_id":            userID,
		"draft_id":           saved.ID,
		"generation_seconds": generationSeconds,
	}))

	if err := c.activity.Append(ctx, models.ActivityEvent{
		UserID:      userID,
		Type:        models.ActivityDraftGenerated,
		Title:       "AI Newsletter Generated",
		Description: fmt.Sprintf("Generated: %q", title),
		Metadata: map[string]interface{}{
			"draftId":           saved.ID,
			"generationSeconds": generationSeconds,
			"contentStats": map[string]int{
				"primary":   len(tiers.Primary),
				"evergreen": len(tiers.Evergreen),
				"trending":  len(tiers.Trending),
			},
		},
	}); err != nil {
		c.logger.Warn("Failed to append activity event", logging.WithField("error", err.Error()))
	}

	return saved, nil
}

// parseSections splits the generated text into title, intro, and closing.
// The first non-empty line (minus heading markers) is the title, the next two
// lines the intro, the last two lines the closing.
func parseSections(text string) (title, intro, closing string, ok bool) {
	lines := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return "", "", "", false
	}

	title = truncateText(strings.TrimLeft(lines[0], "# "), titleMaxLen)
	if title == "" {
		title = fallbackTitle
	}

	if len(lines) > 1 {
		end := 3
		if end > len(lines) {
			end = len(lines)
		}
		intro = truncateText(strings.Join(lines[1:end], " "), introMaxLen)
	}

	tail := lines
	if len(tail) > 2 {
		tail = tail[len(tail)-2:]
	}
	closing = truncateText(strings.Join(tail, " "), closingMaxLen)

	return title, intro, closing, true
}

func curatedItems(primary []models.ContentItem) []models.CuratedItem {
	limit := curatedLimit
	if limit > len(primary) {
		limit = len(primary)
	}

	items := make([]models.CuratedItem, 0, limit)
	for _, item := range primary[:limit] {
		items = append(items, models.CuratedItem{
			ID:          item.ID,
			Title:       item.Title,
			URL:         item.URL,
			Author:      item.Author,
			SourceType:  item.SourceType,
			Summary:     truncateText(item.ContentText, 200),
			Engagement:  item.Engagement,
			PublishedAt: item.PublishedAt,
		})
	}
	return items
}

func trendItems(trending []models.ContentItem) []models.TrendItem {
	limit := trendingLimit
	if limit > len(trending) {
		limit = len(trending)
	}

	items := make([]models.TrendItem, 0, limit)
	for _, item := range trending[:limit] {
		items = append(items, models.TrendItem{
			Title:      item.Title,
			URL:        item.URL,
			SourceType: item.SourceType,
			Engagement: item.EngagementScore,
		})
	}
	return items
}

// buildStyleDirective renders the system prompt from the voice profile,
// falling back to the default style when untrained.
func buildStyleDirective(profile *models.VoiceProfile) string {
	params := models.DefaultStyleParameters()
	if profile != nil && profile.Trained {
		params = profile.StyleParameters.Normalize()
	}

	emojis := "No"
	if params.UseEmojis {
		emojis = "Yes"
	}
	format := "Use flowing paragraphs"
	if params.UseLists {
		format = "Use bullet points and lists for readability"
	}

	var b strings.Builder
	b.WriteString("You are an expert newsletter writer, specializing in engaging, timely, well-structured newsletters for content creators.\n\n")
	fmt.Fprintf(&b, "**Your Writing Style:**\n- Tone: %s\n- Use emojis: %s\n- Format: %s\n\n", params.Tone, emojis, format)
	b.WriteString(`**Newsletter Structure Guidelines:**

1. **Attention-Grabbing Subject Line** (first line of output, max 60 characters, no clickbait)
2. **Hook Opening** (2-3 sentences teasing the most exciting content)
3. **Primary Content Section** (70% of newsletter)
   - Title: "What's Hot Right Now"
   - Cover the most recent stories; each with headline, 2-3 sentence summary, key takeaway, link
4. **Evergreen Section** (20% of newsletter)
   - Title: "Worth Your Time"
   - 2-3 in-depth pieces from the last week; analytical, less time-sensitive
5. **Trending Section** (10% of newsletter)
   - Title: "On The Radar"
   - Emerging topics as brief bullet points
6. **Closing CTA** (encourage replies and shares, tease the next issue)

**Quality Standards:**
- Be concise but engaging; add context and insight, not just links
- Highlight WHY something matters
- Use active voice and vary sentence length
- Mention engagement metrics when relevant
- Attribute every claim to its source URL; do not fabricate content

**Format:** Markdown with headers, bold for emphasis, and inline links.

Generate a complete, ready-to-send newsletter from the provided content.`)

	return b.String()
}

// buildContentBrief serializes the tiers into the user prompt
func buildContentBrief(tiers Tiers, now time.Time) string {
	var b strings.Builder
	b.WriteString("Generate a newsletter using this content:\n\n")

	if len(tiers.Primary) > 0 {
		b.WriteString("## PRIMARY CONTENT (Last 48 Hours - 70% of newsletter)\n\n")
		for i, item := range tiers.Primary {
			fmt.Fprintf(&b, "### Item %d\n", i+1)
			fmt.Fprintf(&b, "- Title: %s\n", item.Title)
			fmt.Fprintf(&b, "- Source: %s\n", item.SourceType)
			fmt.Fprintf(&b, "- Author: %s\n", item.Author)
			fmt.Fprintf(&b, "- Published: %s\n", timeSincePublished(item.PublishedAt, now))
			fmt.Fprintf(&b, "- Content: %s...\n", truncateText(item.ContentText, 300))
			fmt.Fprintf(&b, "- URL: %s\n", item.URL)
			fmt.Fprintf(&b, "- Engagement: %s\n\n", formatEngagement(item.Engagement))
		}
	}

	if len(tiers.Evergreen) > 0 {
		b.WriteString("## EVERGREEN CONTENT (Last 7 Days - 20% of newsletter)\n\n")
		for i, item := range tiers.Evergreen {
			fmt.Fprintf(&b, "### Item %d\n", i+1)
			fmt.Fprintf(&b, "- Title: %s\n", item.Title)
			fmt.Fprintf(&b, "- Source: %s\n", item.SourceType)
			fmt.Fprintf(&b, "- Published: %s\n", timeSincePublished(item.PublishedAt, now))
			fmt.Fprintf(&b, "- Content: %s...\n", truncateText(item.ContentText, 200))
			fmt.Fprintf(&b, "- URL: %s\n\n", item.URL)
		}
	}

	if len(tiers.Trending) > 0 {
		b.WriteString("## TRENDING TOPICS (Last 72 Hours - 10% of newsletter)\n\n")
		for _, item := range tiers.Trending {
			fmt.Fprintf(&b, "- %s (%s) - %s\n", item.Title, item.SourceType, formatEngagement(item.Engagement))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n**IMPORTANT:** Structure the newsletter with proper sections, engaging copy, and a content distribution following the 70/20/10 rule.")

	return b.String()
}
