package models

import "time"

// Draft lifecycle status
const (
	DraftStatusDraft     = "draft"
	DraftStatusScheduled = "scheduled"
	DraftStatusSent      = "sent"
	DraftStatusArchived  = "archived"
)

// Draft is an AI-generated newsletter awaiting review and send. Once sent, the
// body and curated lists are final.
type Draft struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	Status            string        `json:"status"`
	AITitle           string        `json:"aiTitle"`
	AIIntro           string        `json:"aiIntro,omitempty"`
	AIBody            string        `json:"aiBody"`
	AIClosing         string        `json:"aiClosing,omitempty"`
	CuratedItems      []CuratedItem `json:"curatedItems"`
	TrendingItems     []TrendItem   `json:"trendingItems"`
	UserEditedBody    string        `json:"userEditedBody,omitempty"`
	EditTimeSeconds   int           `json:"editTimeSeconds"`
	AcceptanceRate    float64       `json:"acceptanceRate"`
	GenerationSeconds float64       `json:"generationSeconds"`
	Delivered         int           `json:"delivered"`
	GeneratedAt       time.Time     `json:"generatedAt"`
	ScheduledAt       *time.Time    `json:"scheduledAt,omitempty"`
	SentAt            *time.Time    `json:"sentAt,omitempty"`
}

// CuratedItem is one entry of a draft's curated reading list
type CuratedItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Author      string     `json:"author,omitempty"`
	SourceType  string     `json:"sourceType"`
	Summary     string     `json:"summary,omitempty"`
	Engagement  Engagement `json:"engagement"`
	PublishedAt time.Time  `json:"publishedAt"`
}

// TrendItem is one entry of a draft's trending section
type TrendItem struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	SourceType string  `json:"sourceType"`
	Engagement float64 `json:"engagement"`
}

// Body returns the text that should be delivered: the user's edit when
// present, otherwise the AI body.
func (d *Draft) Body() string {
	if d.UserEditedBody != "" {
		return d.UserEditedBody
	}
	return d.AIBody
}

// UpdateDraftParams are the user-editable fields of a draft
type UpdateDraftParams struct {
	UserEditedBody  *string    `json:"userEditedBody,omitempty"`
	Status          *string    `json:"status,omitempty"`
	ScheduledAt     *time.Time `json:"scheduledAt,omitempty"`
	EditTimeSeconds *int       `json:"editTimeSeconds,omitempty"`
}
