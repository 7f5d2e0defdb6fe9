package models

import "time"

// VoiceProfile is a learned description of a user's writing style. It is
// absent until the first training run and replaced wholesale on retraining.
type VoiceProfile struct {
	Trained          bool              `json:"trained"`
	LastTrained      *time.Time        `json:"lastTrained,omitempty"`
	SampleCount      int               `json:"sampleCount"`
	TotalCharacters  int               `json:"totalCharacters"`
	StyleParameters  StyleParameters   `json:"styleParameters"`
	Vocabulary       Vocabulary        `json:"vocabulary"`
	TrainingExamples []TrainingExample `json:"trainingExamples,omitempty"`
}

// StyleParameters are the fixed-shape style knobs fed to the newsletter
// generator. Every string field is drawn from a small closed set; values
// outside the set fall back to the field's default.
type StyleParameters struct {
	Tone                string `json:"tone"`
	AvgSentenceLength   int    `json:"avgSentenceLength"`
	VocabularyLevel     string `json:"vocabularyLevel"`
	UseEmojis           bool   `json:"useEmojis"`
	EmojiFrequency      string `json:"emojiFrequency"`
	UseLists            bool   `json:"useLists"`
	ListFrequency       string `json:"listFrequency"`
	ParagraphStyle      string `json:"paragraphStyle"`
	OpeningStyle        string `json:"openingStyle"`
	ClosingStyle        string `json:"closingStyle"`
	StructurePreference string `json:"structurePreference"`
	PunctuationStyle    string `json:"punctuationStyle"`
	UseQuestions        bool   `json:"useQuestions"`
	PersonalVoice       string `json:"personalVoice"`
	EnergyLevel         string `json:"energyLevel"`
	DetailLevel         string `json:"detailLevel"`
	ExampleUsage        string `json:"exampleUsage"`
}

// Vocabulary is the word bag extracted from training samples
type Vocabulary struct {
	CommonPhrases  []string `json:"commonPhrases"`
	SignatureWords []string `json:"signatureWords"`
	AvoidedWords   []string `json:"avoidedWords"`
}

// TrainingExample records a (truncated) sample used during training
type TrainingExample struct {
	Text    string    `json:"text"`
	AddedAt time.Time `json:"addedAt"`
}

// Allowed values per enum-typed style field.
var styleEnums = map[string][]string{
	"tone":                {"casual", "professional", "friendly", "technical", "humorous", "authoritative", "conversational"},
	"vocabularyLevel":     {"simple", "intermediate", "advanced", "technical"},
	"emojiFrequency":      {"never", "rare", "moderate", "frequent"},
	"listFrequency":       {"never", "rare", "moderate", "frequent"},
	"paragraphStyle":      {"short", "medium", "long"},
	"openingStyle":        {"question", "statement", "hook", "anecdote", "direct"},
	"closingStyle":        {"cta", "summary", "question", "thought"},
	"structurePreference": {"narrative", "informational", "conversational", "analytical"},
	"punctuationStyle":    {"minimal", "moderate", "expressive"},
	"personalVoice":       {"first-person", "second-person", "third-person", "mix"},
	"energyLevel":         {"calm", "moderate", "energetic", "intense"},
	"detailLevel":         {"minimal", "balanced", "detailed", "exhaustive"},
	"exampleUsage":        {"never", "rare", "moderate", "frequent"},
}

// DefaultStyleParameters is the style used when a profile is untrained, and
// the per-field fallback when an analysis value is missing or out of range.
func DefaultStyleParameters() StyleParameters {
	return StyleParameters{
		Tone:                "professional",
		AvgSentenceLength:   15,
		VocabularyLevel:     "intermediate",
		UseEmojis:           false,
		EmojiFrequency:      "never",
		UseLists:            true,
		ListFrequency:       "moderate",
		ParagraphStyle:      "medium",
		OpeningStyle:        "statement",
		ClosingStyle:        "summary",
		StructurePreference: "informational",
		PunctuationStyle:    "moderate",
		UseQuestions:        false,
		PersonalVoice:       "third-person",
		EnergyLevel:         "moderate",
		DetailLevel:         "balanced",
		ExampleUsage:        "moderate",
	}
}

// normalizeEnum returns value if it is in the declared set for field,
// otherwise the default.
func normalizeEnum(field, value, fallback string) string {
	for _, allowed := range styleEnums[field] {
		if value == allowed {
			return value
		}
	}
	return fallback
}

// Normalize replaces every out-of-range or missing enum value with its
// default, field by field, so a partially valid analysis is still usable.
func (p StyleParameters) Normalize() StyleParameters {
	def := DefaultStyleParameters()
	p.Tone = normalizeEnum("tone", p.Tone, def.Tone)
	p.VocabularyLevel = normalizeEnum("vocabularyLevel", p.VocabularyLevel, def.VocabularyLevel)
	p.EmojiFrequency = normalizeEnum("emojiFrequency", p.EmojiFrequency, def.EmojiFrequency)
	p.ListFrequency = normalizeEnum("listFrequency", p.ListFrequency, def.ListFrequency)
	p.ParagraphStyle = normalizeEnum("paragraphStyle", p.ParagraphStyle, def.ParagraphStyle)
	p.OpeningStyle = normalizeEnum("openingStyle", p.OpeningStyle, def.OpeningStyle)
	p.ClosingStyle = normalizeEnum("closingStyle", p.ClosingStyle, def.ClosingStyle)
	p.StructurePreference = normalizeEnum("structurePreference", p.StructurePreference, def.StructurePreference)
	p.PunctuationStyle = normalizeEnum("punctuationStyle", p.PunctuationStyle, def.PunctuationStyle)
	p.PersonalVoice = normalizeEnum("personalVoice", p.PersonalVoice, def.PersonalVoice)
	p.EnergyLevel = normalizeEnum("energyLevel", p.EnergyLevel, def.EnergyLevel)
	p.DetailLevel = normalizeEnum("detailLevel", p.DetailLevel, def.DetailLevel)
	p.ExampleUsage = normalizeEnum("exampleUsage", p.ExampleUsage, def.ExampleUsage)
	if p.AvgSentenceLength <= 0 {
		p.AvgSentenceLength = def.AvgSentenceLength
	}
	return p
}
