package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoshare/internal/domain"
)

func TestNewShareMessage(t *testing.T) {
	caption := "hello"
	rec := &domain.ShareRecord{
		ID:               "id-1",
		OwnerID:          "owner-1",
		Snapshot:         domain.Snapshot{Title: "T", Link: "https://example.com/t"},
		Status:           domain.StatusFailed,
		GeneratedCaption: &caption,
		Error:            "x: boom",
	}

	msg := NewShareMessage(EventFinalized, rec)

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.Equal(t, "share.finalized", fields["event"])
	assert.Equal(t, "FAILED", fields["status"])
	assert.Equal(t, "x: boom", fields["error"])
	assert.NotContains(t, fields, "outcomes")
	assert.NotContains(t, fields, "caption")
}

func TestNop(t *testing.T) {
	var n Nop
	assert.NoError(t, n.Notify(context.Background(), EventQueued, &domain.ShareRecord{}))
	assert.NoError(t, n.Close())
}
