package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmartins/obsidian-sync/internal/api/dto"
	"github.com/lmartins/obsidian-sync/internal/domain"
)

// GetConfig handles GET /api/config
// Returns the caller's configuration, materializing the defaults on
// first read so the client always sees a complete document.
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	userID := currentUserID(c)

	cfg, err := h.configs.Get(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load configuration"})
		return
	}

	if cfg == nil {
		cfg = domain.NewUserConfiguration(userID)
		if err := h.configs.Upsert(c.Request.Context(), cfg); err != nil {
			h.logger.Error("Failed to store default configuration", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store configuration"})
			return
		}
	}

	c.JSON(http.StatusOK, configToDTO(cfg))
}

// UpdateConfig handles PUT /api/config
// Applies a partial update; omitted fields keep their current value.
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	userID := currentUserID(c)

	var req dto.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	cfg, err := h.configs.Get(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load configuration"})
		return
	}
	if cfg == nil {
		cfg = domain.NewUserConfiguration(userID)
	}

	if req.VaultPath != nil {
		cfg.VaultPath = *req.VaultPath
	}
	if req.AutoSyncEnabled != nil {
		cfg.AutoSyncEnabled = *req.AutoSyncEnabled
	}
	if req.DefaultCategory != nil {
		category, err := domain.ParseCategory(*req.DefaultCategory)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "unknown category: " + *req.DefaultCategory})
			return
		}
		cfg.DefaultCategory = category.String()
	}
	if req.DefaultTags != nil {
		cfg.SetDefaultTags(req.DefaultTags)
	}
	if req.AIPreferences != nil {
		cfg.SetAIPreferences(req.AIPreferences)
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := h.configs.Upsert(c.Request.Context(), cfg); err != nil {
		h.logger.Error("Failed to store configuration", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store configuration"})
		return
	}

	h.logger.Info("Configuration updated", slog.String("user_id", userID))

	c.JSON(http.StatusOK, configToDTO(cfg))
}

func configToDTO(cfg *domain.UserConfiguration) dto.ConfigResponse {
	return dto.ConfigResponse{
		UserID:           cfg.UserID,
		VaultPath:        cfg.VaultPath,
		AutoSyncEnabled:  cfg.AutoSyncEnabled,
		DefaultCategory:  cfg.DefaultCategory,
		DefaultTags:      cfg.GetDefaultTags(),
		CategoriesConfig: cfg.GetCategoriesConfig(),
		AIPreferences:    cfg.GetAIPreferences(),
		UpdatedAt:        cfg.UpdatedAt.Format(timeFormat),
	}
}
