package payload

import (
	"fmt"
	"math"

	"github.com/coachboard/coachboard-service/pkg/model"
)

// DefaultFrameDuration is assigned to the last frame when a payload is turned
// back into a project, the wire format does not carry it.
const DefaultFrameDuration = 1000

// ToProject rebuilds an editable project from a payload. Durations are
// recovered from the timestamps. Frames get the ids f1, f2, ... since the
// wire format does not carry them; annotation frame references that do not
// match one of these ids are pointed at the frame holding the annotation.
// Entities missing from the first frame take type and team from the
// previous frame, or become neutral players when they appear for the
// first time.
func ToProject(p Payload) *model.Project {
	switch v := p.(type) {
	case *V1:
		return v1Project(v)
	case *V2:
		return v2Project(v)
	default:
		return &model.Project{}
	}
}

func v1Project(p *V1) *model.Project {
	meta := make(map[string]model.Entity, len(p.Entities))
	for _, e := range p.Entities {
		meta[e.ID] = model.Entity{ID: e.ID, Type: e.Type, Team: e.Team}
	}
	ret := &model.Project{
		Canvas: model.Canvas{Width: p.Canvas.Width, Height: p.Canvas.Height},
		Frames: make([]model.Frame, len(p.Frames)),
	}
	times := make([]float64, len(p.Frames))
	for i, f := range p.Frames {
		times[i] = f.T
		applyUpdates(ret.Frames, i, meta, f.Updates)
	}
	applyDurations(ret.Frames, times)
	return ret
}

func v2Project(p *V2) *model.Project {
	meta := make(map[string]model.Entity, len(p.Entities))
	for _, e := range p.Entities {
		meta[e.ID] = model.Entity{
			ID:          e.ID,
			Type:        e.Type,
			Team:        e.Team,
			Label:       e.Label,
			Color:       e.Color,
			Orientation: e.Orientation,
		}
	}
	ret := &model.Project{
		Name:     p.Name,
		Sport:    p.Sport,
		Settings: model.Settings{PitchLayout: p.Settings.PitchLayout},
		Canvas:   model.Canvas{Width: p.Canvas.Width, Height: p.Canvas.Height},
		Frames:   make([]model.Frame, len(p.Frames)),
	}
	times := make([]float64, len(p.Frames))
	for i, f := range p.Frames {
		times[i] = f.T
		applyUpdates(ret.Frames, i, meta, f.Updates)
	}
	for i, f := range p.Frames {
		frame := &ret.Frames[i]
		for _, a := range f.Annotations {
			frame.Annotations = append(frame.Annotations, model.Annotation{
				ID:           a.ID,
				Type:         a.Type,
				Points:       append([]float64(nil), a.Points...),
				Color:        a.Color,
				StartFrameID: frameRef(ret.Frames, a.StartFrameID, frame.ID),
				EndFrameID:   frameRef(ret.Frames, a.EndFrameID, frame.ID),
			})
		}
	}
	applyDurations(ret.Frames, times)
	return ret
}

func frameID(i int) string {
	return fmt.Sprintf("f%d", i+1)
}

// applyUpdates fills frames[i] from the wire updates. Type and team are taken
// from the entity list, then from the previous frame.
func applyUpdates(frames []model.Frame, i int, meta map[string]model.Entity, updates []Update) {
	frame := &frames[i]
	frame.ID = frameID(i)
	frame.Entities = make([]model.Entity, 0, len(updates))
	for _, u := range updates {
		e, ok := meta[u.ID]
		if !ok && i > 0 {
			e, ok = frames[i-1].Entity(u.ID)
		}
		if !ok {
			e = model.Entity{ID: u.ID, Type: model.EntityPlayer, Team: model.TeamNeutral}
		}
		e.X, e.Y = u.X, u.Y
		frame.Put(e)
	}
}

func frameRef(frames []model.Frame, ref, fallback string) string {
	for i := range frames {
		if frames[i].ID == ref {
			return ref
		}
	}
	return fallback
}

func applyDurations(frames []model.Frame, times []float64) {
	for i := range frames {
		if i+1 < len(times) {
			frames[i].Duration = max(int64(math.Round((times[i+1]-times[i])*1000)), 0)
		} else {
			frames[i].Duration = DefaultFrameDuration
		}
	}
}
