package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (r *recorder) Publish(subj string, data []byte) error {
	if r.err != nil {
		return r.err
	}
	r.subjects = append(r.subjects, subj)
	r.payloads = append(r.payloads, data)
	return nil
}

func TestNatsNotifierPublish(t *testing.T) {
	rec := &recorder{}
	n := newNatsNotifier(rec)
	n.Publish(context.Background(), Event{
		Kind: KindSaved, DiagramID: "d1", OwnerID: "u1", Version: 2, Public: true,
	})
	require.Len(t, rec.subjects, 1)
	assert.Equal(t, "coachboard.diagram.saved", rec.subjects[0])

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.payloads[0], &got))
	assert.Equal(t, "d1", got["diagramId"])
	assert.Equal(t, "u1", got["ownerId"])
	assert.InDelta(t, 2, got["version"], 0)
	assert.Equal(t, true, got["public"])
}

func TestNatsNotifierSwallowsErrors(t *testing.T) {
	n := newNatsNotifier(&recorder{err: errors.New("no responders")})
	assert.NotPanics(t, func() {
		n.Publish(context.Background(), Event{Kind: KindDeleted, DiagramID: "d1"})
	})
}

func TestNopNotifier(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNopNotifier().Publish(context.Background(), Event{Kind: KindUpdated})
	})
}
