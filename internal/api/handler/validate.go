package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lmartins/obsidian-sync/internal/domain"
)

// currentUserID returns the authenticated user id set by the auth
// middleware, or the anonymous owner when unauthenticated
func currentUserID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return domain.AnonymousUserID
}

// validatedSubmission is the cleaned input ready for the orchestrator
type validatedSubmission struct {
	Text     string
	Category domain.Category
	Priority domain.Priority
	Tags     []string
}

// validateSubmission enforces the submission limits. It returns a
// human-readable message for the 422 response on the first violation.
func (h *ProcessingHandler) validateSubmission(text, category, priority string, tags []string, defaultCategory string) (*validatedSubmission, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, "text must not be empty"
	}

	if len(text) > h.limits.MaxTextLength {
		return nil, fmt.Sprintf("text exceeds maximum length of %d characters", h.limits.MaxTextLength)
	}

	if category == "" {
		category = defaultCategory
	}
	if category == "" {
		category = domain.CategoryInbox.String()
	}
	parsedCategory, err := domain.ParseCategory(category)
	if err != nil {
		return nil, fmt.Sprintf("unknown category: %s", category)
	}

	if priority == "" {
		priority = domain.PriorityNormal.String()
	}
	parsedPriority, err := domain.ParsePriority(priority)
	if err != nil {
		return nil, fmt.Sprintf("unknown priority: %s", priority)
	}

	if len(tags) > h.limits.MaxTags {
		return nil, fmt.Sprintf("too many tags (max %d)", h.limits.MaxTags)
	}

	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		sanitized := sanitizeTag(tag, h.limits.MaxTagLength)
		if sanitized != "" {
			cleaned = append(cleaned, sanitized)
		}
	}

	return &validatedSubmission{
		Text:     text,
		Category: parsedCategory,
		Priority: parsedPriority,
		Tags:     cleaned,
	}, ""
}

// sanitizeTag lowercases a tag, maps whitespace to hyphens, strips
// anything outside [a-z0-9_-], and truncates to the length limit
func sanitizeTag(tag string, maxLength int) string {
	tag = strings.ToLower(strings.TrimSpace(tag))

	var sb strings.Builder
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('-')
		}
	}

	out := sb.String()
	if len(out) > maxLength {
		out = out[:maxLength]
	}
	return out
}
