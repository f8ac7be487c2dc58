package model

// Project is the in-memory animation document edited by a coach.
//
//nolint:tagliatelle // json names follow the editor
type (
	Project struct {
		Name     string   `json:"name" yaml:"name"`
		Sport    string   `json:"sport" yaml:"sport"`
		Settings Settings `json:"settings" yaml:"settings"`
		Canvas   Canvas   `json:"canvas" yaml:"canvas"`
		Frames   []Frame  `json:"frames" yaml:"frames"`
	}
	Settings struct {
		PitchLayout string `json:"pitchLayout" yaml:"pitchLayout"`
	}
	Canvas struct {
		Width  float64 `json:"width" yaml:"width"`
		Height float64 `json:"height" yaml:"height"`
	}
	// Frame holds the complete entity state at one step of the animation.
	// Entities keep their insertion order and ids are unique within a frame.
	Frame struct {
		ID          string       `json:"id" yaml:"id"`
		Duration    int64        `json:"duration" yaml:"duration"` // milliseconds
		Entities    []Entity     `json:"entities" yaml:"entities"`
		Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	}
	Entity struct {
		ID          string     `json:"id" yaml:"id"`
		Type        EntityType `json:"type" yaml:"type"`
		Team        Team       `json:"team" yaml:"team"`
		X           float64    `json:"x" yaml:"x"`
		Y           float64    `json:"y" yaml:"y"`
		Label       string     `json:"label,omitempty" yaml:"label,omitempty"`
		Color       string     `json:"color,omitempty" yaml:"color,omitempty"`
		Orientation float64    `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	}
	Annotation struct {
		ID           string         `json:"id" yaml:"id"`
		Type         AnnotationType `json:"type" yaml:"type"`
		Points       []float64      `json:"points" yaml:"points"`
		Color        string         `json:"color" yaml:"color"`
		StartFrameID string         `json:"startFrameId" yaml:"startFrameId"`
		EndFrameID   string         `json:"endFrameId" yaml:"endFrameId"`
	}
)

// Entity returns the entity with the given id.
func (f *Frame) Entity(id string) (Entity, bool) {
	for i := range f.Entities {
		if f.Entities[i].ID == id {
			return f.Entities[i], true
		}
	}
	return Entity{}, false
}

// Put replaces the entity with the same id or appends it.
func (f *Frame) Put(e Entity) {
	for i := range f.Entities {
		if f.Entities[i].ID == e.ID {
			f.Entities[i] = e
			return
		}
	}
	f.Entities = append(f.Entities, e)
}
