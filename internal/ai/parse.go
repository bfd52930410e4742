package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lmartins/obsidian-sync/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// draftSchema validates the shape the prompt templates demand. Tags are
// required to be present but left untyped here; a non-array value is
// coerced to an empty list rather than rejected.
const draftSchema = `{
	"type": "object",
	"required": ["title", "content", "tags"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"content": {"type": "string", "minLength": 1},
		"category": {"type": "string"},
		"metadata": {"type": "object"}
	}
}`

var compiledDraftSchema = jsonschema.MustCompileString("note_draft.json", draftSchema)

// parseResponse turns a raw model completion into a NoteDraft.
// It strips Markdown code fences, validates against the response schema,
// and normalizes tags and metadata.
func parseResponse(raw string) (*domain.NoteDraft, error) {
	cleaned := stripCodeFence(raw)

	var value any
	if err := json.Unmarshal([]byte(cleaned), &value); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrResponseParse, err)
	}

	if err := compiledDraftSchema.Validate(value); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrResponseParse, err)
	}

	obj := value.(map[string]any)

	draft := &domain.NoteDraft{
		Title:       obj["title"].(string),
		Content:     obj["content"].(string),
		Tags:        coerceTags(obj["tags"]),
		Metadata:    coerceMetadata(obj["metadata"]),
		RawResponse: raw,
	}

	if cat, ok := obj["category"].(string); ok {
		if parsed, err := domain.ParseCategory(cat); err == nil {
			draft.Category = parsed
		}
	}

	return draft, nil
}

// stripCodeFence removes a ```json ... ``` wrapper if the model added one
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	return strings.TrimSpace(s)
}

// coerceTags turns the decoded tags value into a string slice,
// dropping non-string entries. Anything that is not a list becomes empty.
func coerceTags(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}

	tags := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			tags = append(tags, s)
		}
	}
	return tags
}

// coerceMetadata defaults a missing or malformed metadata field to an empty map
func coerceMetadata(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
