package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "queued", input: "queued", want: StatusQueued},
		{name: "processing", input: "processing", want: StatusProcessing},
		{name: "processed", input: "processed", want: StatusProcessed},
		{name: "syncing", input: "syncing", want: StatusSyncing},
		{name: "synced", input: "synced", want: StatusSynced},
		{name: "failed", input: "failed", want: StatusFailed},
		{name: "cancelled", input: "cancelled", want: StatusCancelled},
		{name: "unknown", input: "pending", wantErr: true},
		{name: "uppercase rejected", input: "QUEUED", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.input)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{name: "queued to processing", from: StatusQueued, to: StatusProcessing, want: true},
		{name: "queued to cancelled", from: StatusQueued, to: StatusCancelled, want: true},
		{name: "queued to processed skips processing", from: StatusQueued, to: StatusProcessed, want: false},
		{name: "processing to processed", from: StatusProcessing, to: StatusProcessed, want: true},
		{name: "processing to failed", from: StatusProcessing, to: StatusFailed, want: true},
		{name: "processing to cancelled", from: StatusProcessing, to: StatusCancelled, want: true},
		{name: "processed to syncing", from: StatusProcessed, to: StatusSyncing, want: true},
		{name: "processed to cancelled", from: StatusProcessed, to: StatusCancelled, want: false},
		{name: "syncing to synced", from: StatusSyncing, to: StatusSynced, want: true},
		{name: "syncing to failed", from: StatusSyncing, to: StatusFailed, want: true},
		{name: "failed to queued is retry", from: StatusFailed, to: StatusQueued, want: true},
		{name: "synced is terminal", from: StatusSynced, to: StatusQueued, want: false},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusQueued, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusSynced.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())

	// failed is retryable and therefore not terminal
	assert.False(t, StatusFailed.IsTerminal())
	assert.False(t, StatusQueued.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.False(t, StatusProcessed.IsTerminal())
	assert.False(t, StatusSyncing.IsTerminal())
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCategory("journal")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestParsePriority(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent} {
		got, err := ParsePriority(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParsePriority("critical")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}
