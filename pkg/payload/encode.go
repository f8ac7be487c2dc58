package payload

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/coachboard/coachboard-service/pkg/model"
)

var (
	ErrTeamNotRepresentable = errors.New("team not representable in version 1")
	ErrUnknownFormat        = errors.New("unknown payload format")
)

// Encode produces the payload of the requested version.
func Encode(p *model.Project, version int) (Payload, error) {
	switch version {
	case Version1:
		return EncodeV1(p)
	case Version2:
		return EncodeV2(p), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, version)
	}
}

// EncodeV2 converts a project into a version 2 payload.
// Entities are taken from the first frame only.
func EncodeV2(p *model.Project) *V2 {
	ret := &V2{
		Version:  Version2,
		Sport:    p.Sport,
		Name:     p.Name,
		Settings: Settings{PitchLayout: p.Settings.PitchLayout},
		Canvas:   fixedCanvas(),
		Entities: []V2Entity{},
		Frames:   make([]V2Frame, 0, len(p.Frames)),
	}
	if len(p.Frames) > 0 {
		ret.Entities = lo.Map(p.Frames[0].Entities, func(e model.Entity, _ int) V2Entity {
			return V2Entity{
				ID:          e.ID,
				Type:        e.Type,
				Team:        e.Team,
				X:           Round(e.X),
				Y:           Round(e.Y),
				Label:       e.Label,
				Color:       e.Color,
				Orientation: e.Orientation,
			}
		})
	}
	timeline(p.Frames, func(f *model.Frame, t float64) {
		wf := V2Frame{T: t, Updates: updates(f.Entities)}
		if len(f.Annotations) > 0 {
			wf.Annotations = lo.Map(f.Annotations, func(a model.Annotation, _ int) V2Annotation {
				return V2Annotation{
					ID:           a.ID,
					Type:         a.Type,
					Points:       roundAll(a.Points),
					Color:        a.Color,
					StartFrameID: a.StartFrameID,
					EndFrameID:   a.EndFrameID,
				}
			})
		}
		ret.Frames = append(ret.Frames, wf)
	})
	return ret
}

// EncodeV1 converts a project into a version 1 payload. Only players and
// balls are kept. Version 1 has no neutral side, such an entity in the
// first frame yields ErrTeamNotRepresentable.
func EncodeV1(p *model.Project) (*V1, error) {
	ret := &V1{
		Version:  Version1,
		Canvas:   fixedCanvas(),
		Entities: []V1Entity{},
		Frames:   make([]V1Frame, 0, len(p.Frames)),
	}
	if len(p.Frames) > 0 {
		for _, e := range lo.Filter(p.Frames[0].Entities, v1Eligible) {
			if e.Team != model.TeamAttack && e.Team != model.TeamDefence {
				return nil, fmt.Errorf("%w: entity %s has team %q",
					ErrTeamNotRepresentable, e.ID, e.Team)
			}
			ret.Entities = append(ret.Entities, V1Entity{
				ID:   e.ID,
				Type: e.Type,
				Team: e.Team,
				X:    Round(e.X),
				Y:    Round(e.Y),
			})
		}
	}
	timeline(p.Frames, func(f *model.Frame, t float64) {
		ret.Frames = append(ret.Frames, V1Frame{
			T:       t,
			Updates: updates(lo.Filter(f.Entities, v1Eligible)),
		})
	})
	return ret, nil
}

func v1Eligible(e model.Entity, _ int) bool {
	return e.Type == model.EntityPlayer || e.Type == model.EntityBall
}

// timeline calls fn for every frame with the time in seconds elapsed before
// that frame. Negative durations count as zero.
func timeline(frames []model.Frame, fn func(f *model.Frame, t float64)) {
	var elapsed int64
	for i := range frames {
		fn(&frames[i], float64(elapsed)/1000)
		elapsed += max(frames[i].Duration, 0)
	}
}

func updates(entities []model.Entity) []Update {
	return lo.Map(entities, func(e model.Entity, _ int) Update {
		return Update{ID: e.ID, X: Round(e.X), Y: Round(e.Y)}
	})
}
