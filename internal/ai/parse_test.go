package ai

import (
	"testing"

	"github.com/lmartins/obsidian-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErr   bool
		wantTitle string
		wantTags  []string
	}{
		{
			name:      "plain json",
			raw:       `{"title": "My Note", "content": "# My Note\n\nBody", "tags": ["one", "two"]}`,
			wantTitle: "My Note",
			wantTags:  []string{"one", "two"},
		},
		{
			name: "json wrapped in code fence",
			raw: "```json\n" +
				`{"title": "Fenced", "content": "# Fenced", "tags": ["x"]}` +
				"\n```",
			wantTitle: "Fenced",
			wantTags:  []string{"x"},
		},
		{
			name: "bare code fence",
			raw: "```\n" +
				`{"title": "Bare", "content": "# Bare", "tags": []}` +
				"\n```",
			wantTitle: "Bare",
			wantTags:  []string{},
		},
		{
			name:    "not json",
			raw:     "Here is your note:\n# Title",
			wantErr: true,
		},
		{
			name:    "missing title",
			raw:     `{"content": "# X", "tags": []}`,
			wantErr: true,
		},
		{
			name:    "empty content",
			raw:     `{"title": "X", "content": "", "tags": []}`,
			wantErr: true,
		},
		{
			name:    "missing tags",
			raw:     `{"title": "X", "content": "# X"}`,
			wantErr: true,
		},
		{
			name:      "non-list tags coerced to empty",
			raw:       `{"title": "X", "content": "# X", "tags": "single"}`,
			wantTitle: "X",
			wantTags:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := parseResponse(tt.raw)

			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrResponseParse)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, draft.Title)
			assert.Equal(t, tt.wantTags, draft.Tags)
			assert.Equal(t, tt.raw, draft.RawResponse)
			assert.NotNil(t, draft.Metadata)
		})
	}
}

func TestParseResponse_Category(t *testing.T) {
	draft, err := parseResponse(`{"title": "T", "content": "# T", "tags": [], "category": "tasks"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryTasks, draft.Category)

	// Unknown categories are ignored rather than rejected
	draft, err = parseResponse(`{"title": "T", "content": "# T", "tags": [], "category": "journal"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.Category(""), draft.Category)
}

func TestParseResponse_DropsNonStringTags(t *testing.T) {
	draft, err := parseResponse(`{"title": "T", "content": "# T", "tags": ["ok", 7, null, "also"]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "also"}, draft.Tags)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no fence", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", input: "  \n```json\n{}\n```  ", want: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.input))
		})
	}
}
