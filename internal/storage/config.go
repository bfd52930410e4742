package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lmartins/obsidian-sync/internal/domain"
	"github.com/lmartins/obsidian-sync/shared/postgresql"
)

// PostgresConfigStore implements ConfigStore on top of PostgreSQL
type PostgresConfigStore struct {
	db *sqlx.DB
}

// NewPostgresConfigStore creates a configuration store backed by the given client
func NewPostgresConfigStore(pg *postgresql.Client) *PostgresConfigStore {
	return &PostgresConfigStore{db: pg.GetDB()}
}

func (s *PostgresConfigStore) Get(ctx context.Context, userID string) (*domain.UserConfiguration, error) {
	query := `
		SELECT id, user_id, vault_path, auto_sync_enabled, default_category,
			categories_config, ai_preferences, default_tags,
			created_at, updated_at
		FROM user_configurations
		WHERE user_id = $1
	`

	var cfg domain.UserConfiguration
	err := s.db.GetContext(ctx, &cfg, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user configuration: %w", err)
	}

	return &cfg, nil
}

func (s *PostgresConfigStore) Upsert(ctx context.Context, cfg *domain.UserConfiguration) error {
	query := `
		INSERT INTO user_configurations (
			user_id, vault_path, auto_sync_enabled, default_category,
			categories_config, ai_preferences, default_tags,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			vault_path = EXCLUDED.vault_path,
			auto_sync_enabled = EXCLUDED.auto_sync_enabled,
			default_category = EXCLUDED.default_category,
			categories_config = EXCLUDED.categories_config,
			ai_preferences = EXCLUDED.ai_preferences,
			default_tags = EXCLUDED.default_tags,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		cfg.UserID,
		cfg.VaultPath,
		cfg.AutoSyncEnabled,
		cfg.DefaultCategory,
		cfg.CategoriesConfig,
		cfg.AIPreferencesRaw,
		cfg.DefaultTags,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	).Scan(&cfg.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert user configuration: %w", err)
	}

	return nil
}
