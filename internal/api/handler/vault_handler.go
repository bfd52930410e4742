package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lmartins/obsidian-sync/internal/api/dto"
)

const defaultRecentLimit = 10

// vaultPath resolves the caller's configured vault path, empty when unset
func (h *VaultHandler) vaultPath(c *gin.Context) (string, bool) {
	userID := currentUserID(c)

	cfg, err := h.configs.Get(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load configuration", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load configuration"})
		return "", false
	}

	if cfg == nil || cfg.VaultPath == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "vault path is not configured"})
		return "", false
	}

	return cfg.VaultPath, true
}

// GetInfo handles GET /api/vault/info
// Reports per-category note counts for the caller's vault.
func (h *VaultHandler) GetInfo(c *gin.Context) {
	path, ok := h.vaultPath(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.writer.GetStats(path))
}

// Validate handles POST /api/vault/validate
// Checks an arbitrary path for vault-ness without touching the stored
// configuration; the body path defaults to the configured one.
func (h *VaultHandler) Validate(c *gin.Context) {
	var req dto.ValidateVaultRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	path := req.Path
	if path == "" {
		configured, ok := h.vaultPath(c)
		if !ok {
			return
		}
		path = configured
	}

	c.JSON(http.StatusOK, h.writer.Validate(path))
}

// GetRecent handles GET /api/vault/recent
// Lists the most recently written notes across category folders.
func (h *VaultHandler) GetRecent(c *gin.Context) {
	path, ok := h.vaultPath(c)
	if !ok {
		return
	}

	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	notes := h.writer.RecentNotes(path, limit)
	c.JSON(http.StatusOK, gin.H{
		"notes": notes,
		"count": len(notes),
	})
}
