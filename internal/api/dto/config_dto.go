package dto

import "github.com/lmartins/obsidian-sync/internal/domain"

// ConfigResponse is the public view of a user configuration
type ConfigResponse struct {
	UserID           string                           `json:"user_id"`
	VaultPath        string                           `json:"vault_path"`
	AutoSyncEnabled  bool                             `json:"auto_sync_enabled"`
	DefaultCategory  string                           `json:"default_category"`
	DefaultTags      []string                         `json:"default_tags"`
	CategoriesConfig map[string]domain.CategoryConfig `json:"categories_config"`
	AIPreferences    *domain.AIPreferences            `json:"ai_preferences"`
	UpdatedAt        string                           `json:"updated_at"`
}

// UpdateConfigRequest carries a partial configuration update. Nil fields
// are left unchanged.
type UpdateConfigRequest struct {
	VaultPath       *string               `json:"vault_path"`
	AutoSyncEnabled *bool                 `json:"auto_sync_enabled"`
	DefaultCategory *string               `json:"default_category"`
	DefaultTags     []string              `json:"default_tags"`
	AIPreferences   *domain.AIPreferences `json:"ai_preferences"`
}

// ValidateVaultRequest is the body for POST /api/vault/validate
type ValidateVaultRequest struct {
	Path string `json:"path"`
}
