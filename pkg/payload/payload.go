// Package payload implements the versioned share payload: the compact JSON
// document a diagram is persisted and shared as.
//
// Two shapes exist, discriminated by the literal "version" field. Version 1
// only knows players and balls of the attacking or defending side, version 2
// carries every entity type together with labels, colors, orientation and
// per frame annotations.
package payload

import (
	"encoding/json"

	"github.com/coachboard/coachboard-service/pkg/model"
)

const (
	Version1 = 1
	Version2 = 2

	// CanvasSize is the edge length of the normalized coordinate space used
	// on the wire, independent of the editor canvas.
	CanvasSize = 2000

	// MaxBytes is the default ceiling for a serialized payload.
	MaxBytes = 100_000
)

// Payload is either *V1 or *V2.
type Payload interface {
	SchemaVersion() int
	sealed()
}

//nolint:tagliatelle // wire format
type (
	Canvas struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	Update struct {
		ID string  `json:"id"`
		X  float64 `json:"x"`
		Y  float64 `json:"y"`
	}

	V1 struct {
		Version  int        `json:"version"`
		Canvas   Canvas     `json:"canvas"`
		Entities []V1Entity `json:"entities"`
		Frames   []V1Frame  `json:"frames"`
	}
	V1Entity struct {
		ID   string           `json:"id"`
		Type model.EntityType `json:"type"`
		Team model.Team       `json:"team"`
		X    float64          `json:"x"`
		Y    float64          `json:"y"`
	}
	V1Frame struct {
		T       float64  `json:"t"`
		Updates []Update `json:"updates"`
	}

	V2 struct {
		Version  int        `json:"version"`
		Sport    string     `json:"sport"`
		Name     string     `json:"name"`
		Settings Settings   `json:"settings"`
		Canvas   Canvas     `json:"canvas"`
		Entities []V2Entity `json:"entities"`
		Frames   []V2Frame  `json:"frames"`
	}
	Settings struct {
		PitchLayout string `json:"pitchLayout"`
	}
	V2Entity struct {
		ID          string           `json:"id"`
		Type        model.EntityType `json:"type"`
		Team        model.Team       `json:"team"`
		X           float64          `json:"x"`
		Y           float64          `json:"y"`
		Label       string           `json:"label,omitempty"`
		Color       string           `json:"color"`
		Orientation float64          `json:"orientation"`
	}
	// V2Frame omits the annotations key entirely when there are none.
	V2Frame struct {
		T           float64        `json:"t"`
		Updates     []Update       `json:"updates"`
		Annotations []V2Annotation `json:"annotations,omitempty"`
	}
	V2Annotation struct {
		ID           string               `json:"id"`
		Type         model.AnnotationType `json:"type"`
		Points       []float64            `json:"points"`
		Color        string               `json:"color"`
		StartFrameID string               `json:"startFrameId"`
		EndFrameID   string               `json:"endFrameId"`
	}
)

var (
	_ Payload = (*V1)(nil)
	_ Payload = (*V2)(nil)
)

func (p *V1) SchemaVersion() int { return Version1 }
func (p *V1) sealed()            {}

func (p *V2) SchemaVersion() int { return Version2 }
func (p *V2) sealed()            {}

// Marshal serializes p into its wire form.
func Marshal(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// Size returns the number of bytes of the serialized payload.
func Size(p Payload) (int, error) {
	b, err := Marshal(p)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

func fixedCanvas() Canvas {
	return Canvas{Width: CanvasSize, Height: CanvasSize}
}
