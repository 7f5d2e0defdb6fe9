package digest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/creatorpulse/server/internal/models"
	"github.com/creatorpulse/server/internal/testutil"
)

type stubGenerator struct {
	response  string
	err       error
	gotSystem string
	gotUser   string
	callCount int
}

func (g *stubGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	g.callCount++
	g.gotSystem = system
	g.gotUser = user
	return g.response, g.err
}

type mockDraftStore struct {
	created []*models.Draft
	err     error
}

func (m *mockDraftStore) Create(ctx context.Context, draft *models.Draft) (*models.Draft, error) {
	if m.err != nil {
		return nil, m.err
	}
	saved := *draft
	saved.ID = "draft-1"
	saved.GeneratedAt = time.Now()
	m.created = append(m.created, &saved)
	return &saved, nil
}

type mockActivity struct {
	events []models.ActivityEvent
}

func (m *mockActivity) Append(ctx context.Context, event models.ActivityEvent) error {
	m.events = append(m.events, event)
	return nil
}

const sampleNewsletter = `# Creator Roundup: Big Week for Video

This week the creator economy moved fast.
Here are the stories you need to know.

## What's Hot Right Now
The top story is the new platform launch.

## Worth Your Time
A deep dive on retention strategies.

## On The Radar
- Short-form audio is picking up.

Thanks for reading!
Reply and tell me what you think.`

func sampleTiers(now time.Time) Tiers {
	primary := make([]models.ContentItem, 0, 6)
	for i := 0; i < 6; i++ {
		primary = append(primary, models.ContentItem{
			ID:          string(rune('a' + i)),
			Title:       "Primary story",
			URL:         "https://example.com",
			SourceType:  models.SourceTypeVideo,
			ContentText: strings.Repeat("words ", 60),
			PublishedAt: now.Add(-time.Duration(i+1) * time.Hour),
			Engagement:  models.Engagement{Likes: 1500, Comments: 20},
		})
	}
	return Tiers{
		Primary: primary,
		Evergreen: []models.ContentItem{
			{ID: "e1", Title: "Evergreen piece", URL: "https://example.com/e", PublishedAt: now.Add(-3 * 24 * time.Hour)},
			{ID: "e2", Title: "Another evergreen", URL: "https://example.com/e2", PublishedAt: now.Add(-4 * 24 * time.Hour)},
		},
		Trending: []models.ContentItem{
			{ID: "t1", Title: "Trend", URL: "https://example.com/t", SourceType: models.SourceTypeSocialPost, EngagementScore: 0.8, PublishedAt: now.Add(-10 * time.Hour)},
		},
	}
}

func TestCompose_EndToEnd(t *testing.T) {
	gen := &stubGenerator{response: sampleNewsletter}
	store := &mockDraftStore{}
	activity := &mockActivity{}

	composer := NewComposer(gen, store, activity, testutil.NullLogger())
	now := time.Now()

	draft, err := composer.Compose(context.Background(), "user-1", sampleTiers(now), nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if draft.Status != models.DraftStatusDraft {
		t.Errorf("draft status = %q, want draft", draft.Status)
	}
	if draft.AITitle != "Creator Roundup: Big Week for Video" {
		t.Errorf("title = %q, heading markers should be stripped", draft.AITitle)
	}
	if draft.AIBody != sampleNewsletter {
		t.Error("body should hold the full generated text verbatim")
	}
	if !strings.Contains(draft.AIIntro, "creator economy moved fast") {
		t.Errorf("intro = %q, want the two lines after the title", draft.AIIntro)
	}
	if !strings.Contains(draft.AIClosing, "Reply and tell me") {
		t.Errorf("closing = %q, want the last two lines", draft.AIClosing)
	}

	if len(draft.CuratedItems) != 6 {
		t.Errorf("curated items = %d, want all 6 primary items (cap is 10)", len(draft.CuratedItems))
	}
	if len(draft.CuratedItems) > len(sampleTiers(now).Primary) {
		t.Error("curated items must not exceed the primary tier")
	}
	if len(draft.TrendingItems) != 1 {
		t.Errorf("trending items = %d, want 1", len(draft.TrendingItems))
	}
	if draft.TrendingItems[0].Engagement != 0.8 {
		t.Errorf("trend engagement = %v, want the engagement score snapshot", draft.TrendingItems[0].Engagement)
	}

	if len(activity.events) != 1 || activity.events[0].Type != models.ActivityDraftGenerated {
		t.Errorf("expected one draft_generated event, got %+v", activity.events)
	}
}

func TestCompose_UntrainedProfileUsesDefaults(t *testing.T) {
	gen := &stubGenerator{response: sampleNewsletter}
	composer := NewComposer(gen, &mockDraftStore{}, &mockActivity{}, testutil.NullLogger())

	if _, err := composer.Compose(context.Background(), "user-1", sampleTiers(time.Now()), nil); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if !strings.Contains(gen.gotSystem, "Tone: professional") {
		t.Errorf("untrained profile should fall back to the professional tone directive")
	}
	if !strings.Contains(gen.gotSystem, "Use emojis: No") {
		t.Error("untrained profile should default emojis off")
	}
}

func TestCompose_TrainedProfileStyle(t *testing.T) {
	gen := &stubGenerator{response: sampleNewsletter}
	composer := NewComposer(gen, &mockDraftStore{}, &mockActivity{}, testutil.NullLogger())

	profile := &models.VoiceProfile{
		Trained: true,
		StyleParameters: models.StyleParameters{
			Tone:      "casual",
			UseEmojis: true,
		},
	}

	if _, err := composer.Compose(context.Background(), "user-1", sampleTiers(time.Now()), profile); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if !strings.Contains(gen.gotSystem, "Tone: casual") {
		t.Error("trained tone should flow into the style directive")
	}
	if !strings.Contains(gen.gotSystem, "Use emojis: Yes") {
		t.Error("trained emoji preference should flow into the style directive")
	}
}

func TestCompose_BriefContents(t *testing.T) {
	gen := &stubGenerator{response: sampleNewsletter}
	composer := NewComposer(gen, &mockDraftStore{}, &mockActivity{}, testutil.NullLogger())

	if _, err := composer.Compose(context.Background(), "user-1", sampleTiers(time.Now()), nil); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	for _, want := range []string{
		"## PRIMARY CONTENT",
		"## EVERGREEN CONTENT",
		"## TRENDING TOPICS",
		"1.5K likes",
		"70/20/10",
	} {
		if !strings.Contains(gen.gotUser, want) {
			t.Errorf("content brief missing %q", want)
		}
	}
}

func TestCompose_GenerationErrorPersistsNothing(t *testing.T) {
	gen := &stubGenerator{err: errors.New("backend down")}
	store := &mockDraftStore{}
	activity := &mockActivity{}

	composer := NewComposer(gen, store, activity, testutil.NullLogger())

	_, err := composer.Compose(context.Background(), "user-1", sampleTiers(time.Now()), nil)
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Compose() err = %v, want ErrGenerationFailed", err)
	}

	if len(store.created) != 0 {
		t.Error("no draft may be persisted when generation fails")
	}
	if len(activity.events) != 0 {
		t.Error("no activity event may be emitted when generation fails")
	}
}

func TestCompose_EmptyResponseFails(t *testing.T) {
	gen := &stubGenerator{response: "   \n  \n"}
	composer := NewComposer(gen, &mockDraftStore{}, &mockActivity{}, testutil.NullLogger())

	if _, err := composer.Compose(context.Background(), "user-1", sampleTiers(time.Now()), nil); !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("Compose() err = %v, want ErrGenerationFailed for blank output", err)
	}
}

func TestParseSections(t *testing.T) {
	title, intro, closing, ok := parseSections("## Subject Here\nline one\nline two\nmiddle\nsecond-to-last\nlast line")
	if !ok {
		t.Fatal("parseSections() ok = false")
	}
	if title != "Subject Here" {
		t.Errorf("title = %q", title)
	}
	if intro != "line one line two" {
		t.Errorf("intro = %q", intro)
	}
	if closing != "second-to-last last line" {
		t.Errorf("closing = %q", closing)
	}
}

func TestParseSections_SingleLine(t *testing.T) {
	title, intro, closing, ok := parseSections("Only line")
	if !ok {
		t.Fatal("parseSections() ok = false")
	}
	if title != "Only line" {
		t.Errorf("title = %q", title)
	}
	if intro != "" {
		t.Errorf("intro = %q, want empty", intro)
	}
	if closing != "Only line" {
		t.Errorf("closing = %q, want the whole (single) line", closing)
	}
}

func TestParseSections_LongTitleTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	title, _, _, ok := parseSections(long + "\nbody")
	if !ok {
		t.Fatal("parseSections() ok = false")
	}
	if len(title) != 200 {
		t.Errorf("len(title) = %d, want 200", len(title))
	}
}
