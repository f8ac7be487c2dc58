package payload

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachboard/coachboard-service/pkg/model"
)

func TestToProjectDurations(t *testing.T) {
	v2 := EncodeV2(sampleProject())
	p := ToProject(v2)
	require.Len(t, p.Frames, 2)
	assert.Equal(t, int64(1000), p.Frames[0].Duration)
	assert.Equal(t, int64(DefaultFrameDuration), p.Frames[1].Duration)
	assert.Equal(t, "lineout move", p.Name)
	assert.Equal(t, 150.3, p.Frames[1].Entities[0].X)
}

func TestToProjectReencodes(t *testing.T) {
	src := sampleProject()
	src.Frames[0].Annotations = []model.Annotation{
		{ID: "a1", Type: model.AnnotationLine, Points: []float64{1, 2, 3, 4}, Color: "#abc", StartFrameID: "f1", EndFrameID: "f2"},
	}
	v2 := EncodeV2(src)
	again := EncodeV2(ToProject(v2))
	if diff := cmp.Diff(v2, again); diff != "" {
		t.Errorf("v2 re-encode mismatch (-want +got):\n%s", diff)
	}

	v1, err := EncodeV1(src)
	require.NoError(t, err)
	v1again, err := EncodeV1(ToProject(v1))
	require.NoError(t, err)
	if diff := cmp.Diff(v1, v1again); diff != "" {
		t.Errorf("v1 re-encode mismatch (-want +got):\n%s", diff)
	}
}

func TestToProjectUnknownEntity(t *testing.T) {
	v1 := &V1{
		Version: Version1,
		Canvas:  fixedCanvas(),
		Frames:  []V1Frame{{T: 0, Updates: []Update{{ID: "ghost", X: 5, Y: 6}}}},
	}
	p := ToProject(v1)
	require.Len(t, p.Frames[0].Entities, 1)
	e := p.Frames[0].Entities[0]
	assert.Equal(t, model.EntityPlayer, e.Type)
	assert.Equal(t, model.TeamNeutral, e.Team)
	assert.Equal(t, 5.0, e.X)
}

func TestToProjectLateEntity(t *testing.T) {
	src := sampleProject()
	src.Frames[1].Put(model.Entity{ID: "late", Type: model.EntityCone, Team: model.TeamNeutral, X: 7, Y: 8})

	p := ToProject(EncodeV2(src))
	require.Len(t, p.Frames, 2)
	e, ok := p.Frames[1].Entity("late")
	require.True(t, ok)
	assert.Equal(t, model.EntityPlayer, e.Type)
	assert.Equal(t, model.TeamNeutral, e.Team)
	assert.Equal(t, 7.0, e.X)
}

func TestToProjectFrameIDs(t *testing.T) {
	src := sampleProject()
	src.Frames[1].Annotations = []model.Annotation{
		{ID: "a1", Type: model.AnnotationArrow, Points: []float64{0, 0, 1, 1}, StartFrameID: "f1", EndFrameID: "gone"},
	}
	p := ToProject(EncodeV2(src))
	assert.Equal(t, "f1", p.Frames[0].ID)
	assert.Equal(t, "f2", p.Frames[1].ID)
	require.Len(t, p.Frames[1].Annotations, 1)
	a := p.Frames[1].Annotations[0]
	assert.Equal(t, "f1", a.StartFrameID)
	assert.Equal(t, "f2", a.EndFrameID)
}
