package models

import "time"

// Activity event types
const (
	ActivitySourceAdded    = "source_added"
	ActivitySourceScraped  = "source_scraped"
	ActivityDraftGenerated = "draft_generated"
	ActivityNewsletterSent = "newsletter_sent"
	ActivityVoiceTrained   = "voice_trained"
)

// ActivityEvent is an append-only audit entry. Events are written once and
// never mutated.
type ActivityEvent struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}
