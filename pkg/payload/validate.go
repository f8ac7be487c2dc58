package payload

import (
	"github.com/ohler55/ojg/jp"

	"github.com/coachboard/coachboard-service/pkg/model"
)

var (
	v1EntityTypes = []model.EntityType{model.EntityPlayer, model.EntityBall}
	v1Teams       = []model.Team{model.TeamAttack, model.TeamDefence}
)

// ValidateV1 checks v against the closed version 1 schema and returns the
// typed payload. A payload declaring any other version is rejected without
// looking at the remaining fields.
func ValidateV1(v any) (*V1, error) {
	c := &checker{}
	m, ok := c.object(root(), v)
	if !ok {
		return nil, c.result(Version1, nil)
	}
	if !c.version(m, Version1) {
		return nil, c.result(Version1, ErrUnsupportedVersion)
	}
	ret := &V1{Version: Version1}
	ret.Canvas = c.canvas(m)
	if items, p, ok := c.list(root(), m, "entities"); ok {
		ret.Entities = make([]V1Entity, 0, len(items))
		for i, item := range items {
			ep := nth(p, i)
			e, ok := c.object(ep, item)
			if !ok {
				continue
			}
			ret.Entities = append(ret.Entities, V1Entity{
				ID:   c.strField(ep, e, "id"),
				Type: enumField(c, ep, e, "type", v1EntityTypes),
				Team: enumField(c, ep, e, "team", v1Teams),
				X:    c.numField(ep, e, "x"),
				Y:    c.numField(ep, e, "y"),
			})
		}
	}
	if items, p, ok := c.list(root(), m, "frames"); ok {
		ret.Frames = make([]V1Frame, 0, len(items))
		for i, item := range items {
			fp := nth(p, i)
			f, ok := c.object(fp, item)
			if !ok {
				continue
			}
			ret.Frames = append(ret.Frames, V1Frame{
				T:       c.numField(fp, f, "t"),
				Updates: c.updates(fp, f),
			})
		}
	}
	if err := c.result(Version1, nil); err != nil {
		return nil, err
	}
	return ret, nil
}

// ValidateV2 checks v against the closed version 2 schema.
func ValidateV2(v any) (*V2, error) {
	c := &checker{}
	m, ok := c.object(root(), v)
	if !ok {
		return nil, c.result(Version2, nil)
	}
	if !c.version(m, Version2) {
		return nil, c.result(Version2, ErrUnsupportedVersion)
	}
	ret := &V2{
		Version: Version2,
		Sport:   c.strField(root(), m, "sport"),
		Name:    c.strField(root(), m, "name"),
	}
	if sv, sp, ok := c.field(root(), m, "settings"); ok {
		if s, ok := c.object(sp, sv); ok {
			ret.Settings.PitchLayout = c.strField(sp, s, "pitchLayout")
		}
	}
	ret.Canvas = c.canvas(m)
	if items, p, ok := c.list(root(), m, "entities"); ok {
		ret.Entities = make([]V2Entity, 0, len(items))
		for i, item := range items {
			ep := nth(p, i)
			e, ok := c.object(ep, item)
			if !ok {
				continue
			}
			entity := V2Entity{
				ID:          c.strField(ep, e, "id"),
				Type:        enumField(c, ep, e, "type", model.EntityTypes),
				Team:        enumField(c, ep, e, "team", model.Teams),
				X:           c.numField(ep, e, "x"),
				Y:           c.numField(ep, e, "y"),
				Color:       c.strField(ep, e, "color"),
				Orientation: c.numField(ep, e, "orientation"),
			}
			if lv, ok := e["label"]; ok {
				entity.Label, _ = c.str(child(ep, "label"), lv)
			}
			ret.Entities = append(ret.Entities, entity)
		}
	}
	if items, p, ok := c.list(root(), m, "frames"); ok {
		ret.Frames = make([]V2Frame, 0, len(items))
		for i, item := range items {
			fp := nth(p, i)
			f, ok := c.object(fp, item)
			if !ok {
				continue
			}
			ret.Frames = append(ret.Frames, V2Frame{
				T:           c.numField(fp, f, "t"),
				Updates:     c.updates(fp, f),
				Annotations: c.annotations(fp, f),
			})
		}
	}
	if err := c.result(Version2, nil); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *checker) version(m map[string]any, want int) bool {
	v, p, ok := c.field(root(), m, "version")
	return ok && c.literal(p, v, want)
}

func (c *checker) canvas(m map[string]any) Canvas {
	var ret Canvas
	if v, p, ok := c.field(root(), m, "canvas"); ok {
		if cm, ok := c.object(p, v); ok {
			ret.Width = c.numField(p, cm, "width")
			ret.Height = c.numField(p, cm, "height")
		}
	}
	return ret
}

func (c *checker) list(p jp.Expr, m map[string]any, key string) ([]any, jp.Expr, bool) {
	v, lp, ok := c.field(p, m, key)
	if !ok {
		return nil, lp, false
	}
	a, ok := c.array(lp, v)
	return a, lp, ok
}

func (c *checker) strField(p jp.Expr, m map[string]any, key string) string {
	if v, fp, ok := c.field(p, m, key); ok {
		s, _ := c.str(fp, v)
		return s
	}
	return ""
}

func (c *checker) numField(p jp.Expr, m map[string]any, key string) float64 {
	if v, fp, ok := c.field(p, m, key); ok {
		n, _ := c.number(fp, v)
		return n
	}
	return 0
}

//nolint:whitespace // editor/linter issue
func enumField[T ~string](
	c *checker, p jp.Expr, m map[string]any, key string, allowed []T,
) T {
	if v, fp, ok := c.field(p, m, key); ok {
		ret, _ := oneOf(c, fp, v, allowed)
		return ret
	}
	return ""
}

func (c *checker) updates(p jp.Expr, m map[string]any) []Update {
	items, up, ok := c.list(p, m, "updates")
	if !ok {
		return nil
	}
	ret := make([]Update, 0, len(items))
	for i, item := range items {
		ip := nth(up, i)
		u, ok := c.object(ip, item)
		if !ok {
			continue
		}
		ret = append(ret, Update{
			ID: c.strField(ip, u, "id"),
			X:  c.numField(ip, u, "x"),
			Y:  c.numField(ip, u, "y"),
		})
	}
	return ret
}

// annotations is optional. An absent key means no annotations.
func (c *checker) annotations(p jp.Expr, m map[string]any) []V2Annotation {
	if _, ok := m["annotations"]; !ok {
		return nil
	}
	items, ap, ok := c.list(p, m, "annotations")
	if !ok || len(items) == 0 {
		return nil
	}
	ret := make([]V2Annotation, 0, len(items))
	for i, item := range items {
		ip := nth(ap, i)
		a, ok := c.object(ip, item)
		if !ok {
			continue
		}
		ret = append(ret, V2Annotation{
			ID:           c.strField(ip, a, "id"),
			Type:         enumField(c, ip, a, "type", model.AnnotationTypes),
			Points:       c.points(ip, a),
			Color:        c.strField(ip, a, "color"),
			StartFrameID: c.strField(ip, a, "startFrameId"),
			EndFrameID:   c.strField(ip, a, "endFrameId"),
		})
	}
	return ret
}

func (c *checker) points(p jp.Expr, m map[string]any) []float64 {
	items, pp, ok := c.list(p, m, "points")
	if !ok {
		return nil
	}
	if len(items)%2 != 0 {
		c.fail(pp, "expected x,y pairs, received %d values", len(items))
	}
	ret := make([]float64, 0, len(items))
	for i, item := range items {
		n, _ := c.number(nth(pp, i), item)
		ret = append(ret, n)
	}
	return ret
}
