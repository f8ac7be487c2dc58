package model

import (
	"testing"

	"gopkg.in/yaml.v3"
	"gotest.tools/v3/assert"
)

func TestParseTeam(t *testing.T) {
	tests := []struct {
		in      string
		want    Team
		wantErr bool
	}{
		{in: "attack", want: TeamAttack},
		{in: "defence", want: TeamDefence},
		{in: "defense", want: TeamDefence},
		{in: " Defense ", want: TeamDefence},
		{in: "neutral", want: TeamNeutral},
		{in: "home", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTeam(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTeam() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			assert.Equal(t, got, tt.want)
		})
	}
}

func TestProjectYAMLNormalizesTeam(t *testing.T) {
	src := `
name: lineout
frames:
  - id: f1
    duration: 1000
    entities:
      - {id: p1, type: player, team: defense, x: 1, y: 2}
`
	var p Project
	assert.NilError(t, yaml.Unmarshal([]byte(src), &p))
	assert.Equal(t, p.Frames[0].Entities[0].Team, TeamDefence)
}

func TestProjectYAMLRejectsUnknownType(t *testing.T) {
	src := `
frames:
  - entities:
      - {id: x, type: goalpost, team: attack}
`
	var p Project
	assert.ErrorContains(t, yaml.Unmarshal([]byte(src), &p), "unknown entity type")
}

func TestFramePut(t *testing.T) {
	f := Frame{}
	f.Put(Entity{ID: "a", X: 1})
	f.Put(Entity{ID: "b", X: 2})
	f.Put(Entity{ID: "a", X: 3})
	assert.Equal(t, len(f.Entities), 2)
	e, ok := f.Entity("a")
	assert.Assert(t, ok)
	assert.Equal(t, e.X, 3.0)
	assert.Equal(t, f.Entities[0].ID, "a")
}
