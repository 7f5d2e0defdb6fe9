package digest

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/creatorpulse/server/internal/models"
)

func item(id string, age time.Duration, score float64, now time.Time) models.ContentItem {
	return models.ContentItem{
		ID:              id,
		Title:           "Item " + id,
		PublishedAt:     now.Add(-age),
		EngagementScore: score,
	}
}

func TestCategorize_Windows(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	pool := []models.ContentItem{
		item("fresh", 30*time.Hour, 1.0, now),
		item("older", 5*24*time.Hour, 2.0, now),
		item("ancient", 10*24*time.Hour, 9.0, now),
		item("recent-a", 1*time.Hour, 0.5, now),
		item("recent-b", 10*time.Hour, 0.2, now),
		item("evergreen-b", 3*24*time.Hour, 0.1, now),
	}

	tiers, err := Categorize(pool, now)
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}

	// 30h old: inside 48h primary window and inside 72h trending window,
	// never evergreen.
	if !containsID(tiers.Primary, "fresh") {
		t.Error("30h-old item should be in Primary")
	}
	if containsID(tiers.Evergreen, "fresh") {
		t.Error("30h-old item must never be in Evergreen")
	}
	if !containsID(tiers.Trending, "fresh") {
		t.Error("30h-old item qualifies for Trending")
	}

	// 5d old: evergreen only.
	if !containsID(tiers.Evergreen, "older") {
		t.Error("5d-old item should be in Evergreen")
	}
	if containsID(tiers.Primary, "older") || containsID(tiers.Trending, "older") {
		t.Error("5d-old item must not be in Primary or Trending")
	}

	// 10d old: outside every window.
	if containsID(tiers.Primary, "ancient") || containsID(tiers.Evergreen, "ancient") || containsID(tiers.Trending, "ancient") {
		t.Error("10d-old item must not be categorized despite its high score")
	}
}

func TestCategorize_PrimaryOrdering(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	sameTime := now.Add(-10 * time.Hour)
	pool := []models.ContentItem{
		{ID: "low", PublishedAt: sameTime, EngagementScore: 0.1},
		{ID: "newest", PublishedAt: now.Add(-1 * time.Hour), EngagementScore: 0.0},
		{ID: "high", PublishedAt: sameTime, EngagementScore: 0.9},
		{ID: "a", PublishedAt: now.Add(-20 * time.Hour)},
		{ID: "b", PublishedAt: now.Add(-21 * time.Hour)},
	}

	tiers, err := Categorize(pool, now)
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}

	if tiers.Primary[0].ID != "newest" {
		t.Errorf("Primary[0] = %s, want newest-first ordering", tiers.Primary[0].ID)
	}
	// Equal timestamps fall back to score.
	if tiers.Primary[1].ID != "high" || tiers.Primary[2].ID != "low" {
		t.Errorf("equal-timestamp items should order by score: got %s then %s",
			tiers.Primary[1].ID, tiers.Primary[2].ID)
	}
}

func TestCategorize_EvergreenOrdering(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	pool := []models.ContentItem{
		item("e-low", 3*24*time.Hour, 0.1, now),
		item("e-high", 6*24*time.Hour, 0.9, now),
		item("p1", time.Hour, 0, now),
		item("p2", 2*time.Hour, 0, now),
		item("p3", 3*time.Hour, 0, now),
	}

	tiers, err := Categorize(pool, now)
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}

	if len(tiers.Evergreen) != 2 || tiers.Evergreen[0].ID != "e-high" {
		t.Errorf("Evergreen should order by score descending, got %+v", ids(tiers.Evergreen))
	}
}

func TestCategorize_Caps(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	pool := make([]models.ContentItem, 0, 40)
	for i := 0; i < 20; i++ {
		pool = append(pool, item(fmt.Sprintf("p%d", i), time.Duration(i)*time.Hour, float64(i), now))
	}
	for i := 0; i < 10; i++ {
		pool = append(pool, item(fmt.Sprintf("e%d", i), time.Duration(72+i*24)*time.Hour, float64(i), now))
	}

	tiers, err := Categorize(pool, now)
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}

	if len(tiers.Primary) != 15 {
		t.Errorf("len(Primary) = %d, want cap 15", len(tiers.Primary))
	}
	if len(tiers.Evergreen) != 5 {
		t.Errorf("len(Evergreen) = %d, want cap 5", len(tiers.Evergreen))
	}
	if len(tiers.Trending) != 3 {
		t.Errorf("len(Trending) = %d, want cap 3", len(tiers.Trending))
	}
}

func TestCategorize_InsufficientContentGate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Four tiered items: below the floor. Trending overlap counts separately,
	// so use items outside the 72h window for two of them.
	pool := []models.ContentItem{
		item("e1", 4*24*time.Hour, 1, now),
		item("e2", 5*24*time.Hour, 1, now),
		item("e3", 6*24*time.Hour, 1, now),
		item("e4", 4*24*time.Hour, 1, now),
	}

	if _, err := Categorize(pool, now); !errors.Is(err, ErrInsufficientContent) {
		t.Errorf("Categorize() with 4 items: err = %v, want ErrInsufficientContent", err)
	}

	pool = append(pool, item("e5", 5*24*time.Hour, 1, now))
	if _, err := Categorize(pool, now); err != nil {
		t.Errorf("Categorize() with 5 items should proceed, got %v", err)
	}
}

func TestCategorize_EmptyPool(t *testing.T) {
	now := time.Now()
	if _, err := Categorize(nil, now); !errors.Is(err, ErrInsufficientContent) {
		t.Errorf("Categorize(nil) err = %v, want ErrInsufficientContent", err)
	}
}

func containsID(items []models.ContentItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func ids(items []models.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
