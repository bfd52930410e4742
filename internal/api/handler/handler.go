package handler

import (
	"log/slog"

	"github.com/lmartins/obsidian-sync/internal/api/ws"
	"github.com/lmartins/obsidian-sync/internal/config"
	"github.com/lmartins/obsidian-sync/internal/orchestrator"
	"github.com/lmartins/obsidian-sync/internal/storage"
	"github.com/lmartins/obsidian-sync/internal/vault"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Orchestrator *orchestrator.Orchestrator
	Jobs         storage.JobStore
	Configs      storage.ConfigStore
	Writer       *vault.Writer
	Hub          *ws.Hub
	Limits       config.ProcessingConfig
	AuthSecret   string
}

// ProcessingHandler handles job submission and lifecycle requests
type ProcessingHandler struct {
	logger       *slog.Logger
	orchestrator *orchestrator.Orchestrator
	jobs         storage.JobStore
	configs      storage.ConfigStore
	hub          *ws.Hub
	limits       config.ProcessingConfig
}

// NewProcessingHandler creates a ProcessingHandler instance
func NewProcessingHandler(deps *Dependencies) *ProcessingHandler {
	return &ProcessingHandler{
		logger:       deps.Logger,
		orchestrator: deps.Orchestrator,
		jobs:         deps.Jobs,
		configs:      deps.Configs,
		hub:          deps.Hub,
		limits:       deps.Limits,
	}
}

// ConfigHandler handles user configuration requests
type ConfigHandler struct {
	logger  *slog.Logger
	configs storage.ConfigStore
}

// NewConfigHandler creates a ConfigHandler instance
func NewConfigHandler(deps *Dependencies) *ConfigHandler {
	return &ConfigHandler{
		logger:  deps.Logger,
		configs: deps.Configs,
	}
}

// VaultHandler handles vault inspection requests
type VaultHandler struct {
	logger  *slog.Logger
	configs storage.ConfigStore
	writer  *vault.Writer
}

// NewVaultHandler creates a VaultHandler instance
func NewVaultHandler(deps *Dependencies) *VaultHandler {
	return &VaultHandler{
		logger:  deps.Logger,
		configs: deps.Configs,
		writer:  deps.Writer,
	}
}
