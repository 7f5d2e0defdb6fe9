// Package voice trains writing-style profiles from user-provided samples.
package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creatorpulse/server/internal/logging"
	"github.com/creatorpulse/server/internal/models"
)

const (
	sampleDivider     = "\n\n---SAMPLE DIVIDER---\n\n"
	exampleTruncation = 500
)

// ErrAnalysisFailed means the style-analysis backend returned no parseable
// payload. The existing profile, if any, stays untouched.
var ErrAnalysisFailed = errors.New("voice analysis failed")

// Generator produces text from a system directive and a user prompt
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// ProfileStore persists trained profiles
type ProfileStore interface {
	UpdateVoiceProfile(ctx context.Context, userID string, profile *models.VoiceProfile) error
}

// ActivityStore records training side effects
type ActivityStore interface {
	Append(ctx context.Context, event models.ActivityEvent) error
}

// Trainer runs style analysis over writing samples and builds voice profiles
type Trainer struct {
	generator Generator
	store     ProfileStore
	activity  ActivityStore
	logger    *logging.Logger
	now       func() time.Time
}

// NewTrainer creates a voice trainer
func NewTrainer(generator Generator, store ProfileStore, activity ActivityStore, logger *logging.Logger) *Trainer {
	return &Trainer{
		generator: generator,
		store:     store,
		activity:  activity,
		logger:    logger,
		now:       time.Now,
	}
}

// analysisPayload mirrors the JSON shape requested from the analysis backend.
// Boolean fields are pointers so an absent field is distinguishable from an
// explicit false; useLists in particular defaults to true.
type analysisPayload struct {
	Tone                string   `json:"tone"`
	VocabularyLevel     string   `json:"vocabularyLevel"`
	UseEmojis           *bool    `json:"useEmojis"`
	EmojiFrequency      string   `json:"emojiFrequency"`
	UseLists            *bool    `json:"useLists"`
	ListFrequency       string   `json:"listFrequency"`
	ParagraphStyle      string   `json:"paragraphStyle"`
	OpeningStyle        string   `json:"openingStyle"`
	ClosingStyle        string   `json:"closingStyle"`
	StructurePreference string   `json:"structurePreference"`
	PunctuationStyle    string   `json:"punctuationStyle"`
	UseQuestions        *bool    `json:"useQuestions"`
	PersonalVoice       string   `json:"personalVoice"`
	EnergyLevel         string   `json:"energyLevel"`
	DetailLevel         string   `json:"detailLevel"`
	ExampleUsage        string   `json:"exampleUsage"`
	CommonPhrases       []string `json:"commonPhrases"`
	SignatureWords      []string `json:"signatureWords"`
	AvoidedWords        []string `json:"avoidedWords"`
}

// Train analyzes the samples and replaces the user's voice profile wholesale.
// Samples must be non-empty; per-sample length validation is the caller's
// concern.
func (t *Trainer) Train(ctx context.Context, userID string, samples []string) (*models.VoiceProfile, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("at least one writing sample is required")
	}

	combined := strings.Join(samples, sampleDivider)

	response, err := t.generator.Generate(ctx, analystDirective, buildAnalysisPrompt(combined))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	payloadJSON, ok := extractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrAnalysisFailed)
	}

	var payload analysisPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	now := t.now()
	profile := &models.VoiceProfile{
		Trained:         true,
		LastTrained:     &now,
		SampleCount:     len(samples),
		TotalCharacters: len(combined),
		StyleParameters: styleFromPayload(payload, avgWordsPerSentence(combined)),
		Vocabulary: models.Vocabulary{
			CommonPhrases:  orEmpty(payload.CommonPhrases),
			SignatureWords: orEmpty(payload.SignatureWords),
			AvoidedWords:   orEmpty(payload.AvoidedWords),
		},
		TrainingExamples: trainingExamples(samples, now),
	}

	if err := t.store.UpdateVoiceProfile(ctx, userID, profile); err != nil {
		return nil, fmt.Errorf("save voice profile: %w", err)
	}

	t.logger.Info("Voice profile trained", logging.WithFields(map[string]interface{}{
		"user_id": userID,
		"samples": len(samples),
		"tone":    profile.StyleParameters.Tone,
	}))

	if err := t.activity.Append(ctx, models.ActivityEvent{
		UserID:      userID,
		Type:        models.ActivityVoiceTrained,
		Title:       "Voice Profile Updated",
		Description: fmt.Sprintf("Trained with %d writing samples", len(samples)),
		Metadata: map[string]interface{}{
			"sampleCount": len(samples),
			"tone":        profile.StyleParameters.Tone,
		},
	}); err != nil {
		t.logger.Warn("Failed to append activity event", logging.WithField("error", err.Error()))
	}

	return profile, nil
}

// styleFromPayload merges the analysis payload with the computed sentence
// metric, applying per-field defaults for anything missing or out of range.
func styleFromPayload(payload analysisPayload, avgWords int) models.StyleParameters {
	def := models.DefaultStyleParameters()

	params := models.StyleParameters{
		Tone:                payload.Tone,
		AvgSentenceLength:   avgWords,
		VocabularyLevel:     payload.VocabularyLevel,
		UseEmojis:           boolOr(payload.UseEmojis, def.UseEmojis),
		EmojiFrequency:      payload.EmojiFrequency,
		UseLists:            boolOr(payload.UseLists, def.UseLists),
		ListFrequency:       payload.ListFrequency,
		ParagraphStyle:      payload.ParagraphStyle,
		OpeningStyle:        payload.OpeningStyle,
		ClosingStyle:        payload.ClosingStyle,
		StructurePreference: payload.StructurePreference,
		PunctuationStyle:    payload.PunctuationStyle,
		UseQuestions:        boolOr(payload.UseQuestions, def.UseQuestions),
		PersonalVoice:       payload.PersonalVoice,
		EnergyLevel:         payload.EnergyLevel,
		DetailLevel:         payload.DetailLevel,
		ExampleUsage:        payload.ExampleUsage,
	}

	return params.Normalize()
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func trainingExamples(samples []string, now time.Time) []models.TrainingExample {
	examples := make([]models.TrainingExample, 0, len(samples))
	for _, sample := range samples {
		text := sample
		if len(text) > exampleTruncation {
			text = text[:exampleTruncation]
		}
		examples = append(examples, models.TrainingExample{Text: text, AddedAt: now})
	}
	return examples
}

// avgWordsPerSentence splits on ./!/? and averages word counts. Text with no
// sentence terminators gets the default of 15.
func avgWordsPerSentence(text string) int {
	sentences := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			sentences++
		}
	}
	if sentences == 0 {
		return 15
	}

	words := len(strings.Fields(text))
	avg := words / sentences
	if avg <= 0 {
		return 15
	}
	return avg
}

// extractJSONObject returns the first balanced {...} block in s. Responses
// often wrap the JSON in markdown fences or prose.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

const analystDirective = "You are a writing style analyst. You respond with exactly one JSON object and no additional text."

func buildAnalysisPrompt(combined string) string {
	var b strings.Builder
	b.WriteString("Analyze the following writing samples and extract the author's unique voice characteristics.\n\nWRITING SAMPLES:\n")
	b.WriteString(combined)
	b.WriteString(`

Analyze and provide a JSON response with the following structure:
{
  "tone": "<casual|professional|friendly|technical|humorous|authoritative|conversational>",
  "avgSentenceLength": <number>,
  "vocabularyLevel": "<simple|intermediate|advanced|technical>",
  "useEmojis": <boolean>,
  "emojiFrequency": "<never|rare|moderate|frequent>",
  "useLists": <boolean>,
  "listFrequency": "<never|rare|moderate|frequent>",
  "paragraphStyle": "<short|medium|long>",
  "openingStyle": "<question|statement|hook|anecdote|direct>",
  "closingStyle": "<cta|summary|question|thought>",
  "commonPhrases": ["<phrase1>", "<phrase2>", "<phrase3>"],
  "avoidedWords": ["<word1>", "<word2>"],
  "signatureWords": ["<word1>", "<word2>", "<word3>"],
  "structurePreference": "<narrative|informational|conversational|analytical>",
  "punctuationStyle": "<minimal|moderate|expressive>",
  "useQuestions": <boolean>,
  "personalVoice": "<first-person|second-person|third-person|mix>",
  "energyLevel": "<calm|moderate|energetic|intense>",
  "detailLevel": "<minimal|balanced|detailed|exhaustive>",
  "exampleUsage": "<never|rare|moderate|frequent>"
}

Be precise and base your analysis ONLY on the provided samples. Return ONLY the JSON, no additional text.`)

	return b.String()
}
