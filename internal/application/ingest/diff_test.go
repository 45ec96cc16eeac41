package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagewatch/internal/domain/event"
	"stagewatch/internal/domain/play"
	vo "stagewatch/internal/domain/play/valueobjects"
)

func newTestLink(t *testing.T, fingerprint string) *play.SourceLink {
	t.Helper()
	link, err := play.NewSourceLink(1, vo.SourceHulaquan, "hlq-1", "测试剧目", "上海", 1.0)
	require.NoError(t, err)
	require.NoError(t, link.SetID(1))
	if fingerprint != "" {
		require.NoError(t, link.AdvanceFingerprint(fingerprint, link.CreatedAt()))
	}
	return link
}

func TestFingerprintIgnoresKeyOrder(t *testing.T) {
	a, err := Fingerprint(json.RawMessage(`{"status":"on_sale","left":10}`))
	require.NoError(t, err)
	b, err := Fingerprint(json.RawMessage(`{"left":10,"status":"on_sale"}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Fingerprint(json.RawMessage(`{"left":9,"status":"on_sale"}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDiffFirstPayloadIsCreated(t *testing.T) {
	d := NewDiffEngine()
	link := newTestLink(t, "")

	change, err := d.Diff(link, nil, json.RawMessage(`{"status":"on_sale","left":10}`))
	require.NoError(t, err)
	assert.False(t, change.Unchanged)
	assert.Equal(t, event.KindCreated, change.Kind)
	assert.Nil(t, change.Delta)
	assert.NotEmpty(t, change.Fingerprint)
}

func TestDiffIdenticalPayloadIsUnchanged(t *testing.T) {
	d := NewDiffEngine()
	payload := json.RawMessage(`{"status":"on_sale","left":10}`)
	fp, err := Fingerprint(payload)
	require.NoError(t, err)
	link := newTestLink(t, fp)

	// Same content, different key order.
	change, err := d.Diff(link, payload, json.RawMessage(`{"left":10,"status":"on_sale"}`))
	require.NoError(t, err)
	assert.True(t, change.Unchanged)
}

func TestDiffCancellationWins(t *testing.T) {
	d := NewDiffEngine()
	prev := json.RawMessage(`{"status":"on_sale","left":10,"price":280}`)
	fp, err := Fingerprint(prev)
	require.NoError(t, err)
	link := newTestLink(t, fp)

	// Cancellation and an inventory drop at once: cancelled takes priority.
	change, err := d.Diff(link, prev, json.RawMessage(`{"status":"cancelled","left":0,"price":280}`))
	require.NoError(t, err)
	assert.Equal(t, event.KindCancelled, change.Kind)
	assert.Contains(t, change.Delta, "status")
	assert.Contains(t, change.Delta, "left")
	assert.NotContains(t, change.Delta, "price")
}

func TestDiffInventoryTransitions(t *testing.T) {
	d := NewDiffEngine()

	tests := []struct {
		name string
		prev string
		next string
		kind event.Kind
	}{
		{"sold out when remaining hits zero", `{"status":"on_sale","left":3}`, `{"status":"on_sale","left":0}`, event.KindSoldOut},
		{"resumed when remaining recovers", `{"status":"on_sale","left":0}`, `{"status":"on_sale","left":2}`, event.KindResumed},
		{"plain update otherwise", `{"status":"on_sale","left":5,"price":280}`, `{"status":"on_sale","left":5,"price":320}`, event.KindUpdated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := json.RawMessage(tt.prev)
			fp, err := Fingerprint(prev)
			require.NoError(t, err)
			link := newTestLink(t, fp)

			change, err := d.Diff(link, prev, json.RawMessage(tt.next))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, change.Kind)
			assert.NotEmpty(t, change.Delta)
		})
	}
}

func TestDiffDeltaOnlyCarriesChangedFields(t *testing.T) {
	d := NewDiffEngine()
	prev := json.RawMessage(`{"status":"on_sale","left":5,"total":100,"title":"A"}`)
	fp, err := Fingerprint(prev)
	require.NoError(t, err)
	link := newTestLink(t, fp)

	change, err := d.Diff(link, prev, json.RawMessage(`{"status":"on_sale","left":4,"total":100,"title":"A"}`))
	require.NoError(t, err)
	require.Len(t, change.Delta, 1)
	fc := change.Delta["left"]
	assert.EqualValues(t, 5, *fc.Old.(*int))
	assert.EqualValues(t, 4, *fc.New.(*int))
}

func TestDiffRejectsMalformedPayload(t *testing.T) {
	d := NewDiffEngine()
	link := newTestLink(t, "")
	_, err := d.Diff(link, nil, json.RawMessage(`{not json`))
	assert.Error(t, err)
}
