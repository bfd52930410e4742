package domain

import (
	"encoding/json"
	"time"
)

// CreativityLevel steers the prompt toward creative or conservative output
type CreativityLevel string

const (
	CreativityConservative CreativityLevel = "conservative"
	CreativityBalanced     CreativityLevel = "balanced"
	CreativityCreative     CreativityLevel = "creative"
)

// AIPreferences customize prompt construction per user. PreferredTags and
// MarkdownStyle are appended as hints; Extra carries forward-compatible
// preference keys that templates may ignore.
type AIPreferences struct {
	CreativityLevel CreativityLevel `json:"creativity_level"`
	PreferredTags   []string        `json:"preferred_tags,omitempty"`
	MarkdownStyle   string          `json:"markdown_style,omitempty"`
	LanguageTone    string          `json:"language_tone,omitempty"`
	MaxTags         int             `json:"max_tags,omitempty"`
	Extra           map[string]any  `json:"extra,omitempty"`
}

// CategoryConfig describes one vault category for a user
type CategoryConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Folder      string `json:"folder"`
	Enabled     bool   `json:"enabled"`
}

// UserConfiguration holds per-user preferences. It is read-only input to
// the orchestrator; only the configuration API mutates it.
type UserConfiguration struct {
	ID     int64  `db:"id"`
	UserID string `db:"user_id"`

	VaultPath       string `db:"vault_path"`
	AutoSyncEnabled bool   `db:"auto_sync_enabled"`
	DefaultCategory string `db:"default_category"`

	CategoriesConfig string `db:"categories_config"` // JSON object
	AIPreferencesRaw string `db:"ai_preferences"`    // JSON object
	DefaultTags      string `db:"default_tags"`      // JSON array

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewUserConfiguration materializes the built-in defaults for a user
func NewUserConfiguration(userID string) *UserConfiguration {
	now := time.Now().UTC()
	cfg := &UserConfiguration{
		UserID:          userID,
		AutoSyncEnabled: true,
		DefaultCategory: CategoryInbox.String(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	cfg.SetCategoriesConfig(DefaultCategoriesConfig())
	cfg.SetAIPreferences(DefaultAIPreferences())
	return cfg
}

// DefaultCategoriesConfig returns the built-in six-category table
func DefaultCategoriesConfig() map[string]CategoryConfig {
	return map[string]CategoryConfig{
		"inbox":      {Name: "📥 Inbox", Description: "General notes and quick capture", Folder: "📥 Inbox", Enabled: true},
		"ideas":      {Name: "💡 Ideas", Description: "Brainstorms and creative insights", Folder: "💡 Ideas", Enabled: true},
		"tasks":      {Name: "✅ Tasks", Description: "TODOs and task management", Folder: "✅ Tasks", Enabled: true},
		"articles":   {Name: "📚 Articles", Description: "Long-form content and reading notes", Folder: "📚 Articles", Enabled: true},
		"meetings":   {Name: "🤝 Meetings", Description: "Meeting notes", Folder: "🤝 Meetings", Enabled: true},
		"references": {Name: "📖 References", Description: "Quotes and reference material", Folder: "📖 References", Enabled: true},
	}
}

// DefaultAIPreferences returns the built-in processing preferences
func DefaultAIPreferences() *AIPreferences {
	return &AIPreferences{
		CreativityLevel: CreativityBalanced,
		LanguageTone:    "professional",
		MaxTags:         5,
	}
}

// GetAIPreferences decodes the stored preferences, falling back to defaults
func (c *UserConfiguration) GetAIPreferences() *AIPreferences {
	if c.AIPreferencesRaw == "" {
		return DefaultAIPreferences()
	}
	var prefs AIPreferences
	if err := json.Unmarshal([]byte(c.AIPreferencesRaw), &prefs); err != nil {
		return DefaultAIPreferences()
	}
	if prefs.CreativityLevel == "" {
		prefs.CreativityLevel = CreativityBalanced
	}
	return &prefs
}

// SetAIPreferences stores preferences as JSON
func (c *UserConfiguration) SetAIPreferences(prefs *AIPreferences) {
	data, _ := json.Marshal(prefs)
	c.AIPreferencesRaw = string(data)
}

// GetCategoriesConfig decodes the stored category table, falling back to defaults
func (c *UserConfiguration) GetCategoriesConfig() map[string]CategoryConfig {
	if c.CategoriesConfig == "" {
		return DefaultCategoriesConfig()
	}
	var cfg map[string]CategoryConfig
	if err := json.Unmarshal([]byte(c.CategoriesConfig), &cfg); err != nil {
		return DefaultCategoriesConfig()
	}
	return cfg
}

// SetCategoriesConfig stores the category table as JSON
func (c *UserConfiguration) SetCategoriesConfig(cfg map[string]CategoryConfig) {
	data, _ := json.Marshal(cfg)
	c.CategoriesConfig = string(data)
}

// GetDefaultTags decodes the stored default tag list
func (c *UserConfiguration) GetDefaultTags() []string {
	if c.DefaultTags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(c.DefaultTags), &tags); err != nil {
		return nil
	}
	return tags
}

// SetDefaultTags stores the default tag list as JSON
func (c *UserConfiguration) SetDefaultTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	data, _ := json.Marshal(tags)
	c.DefaultTags = string(data)
}
