package model

import (
	"fmt"
	"strings"
)

type (
	EntityType     string
	Team           string
	AnnotationType string
)

const (
	EntityPlayer       EntityType = "player"
	EntityBall         EntityType = "ball"
	EntityCone         EntityType = "cone"
	EntityTackleShield EntityType = "tackle-shield"
	EntityTackleBag    EntityType = "tackle-bag"
)

// Defence is the canonical spelling. "defense" is only accepted as input
// and normalized by ParseTeam.
const (
	TeamAttack  Team = "attack"
	TeamDefence Team = "defence"
	TeamNeutral Team = "neutral"
)

const (
	AnnotationArrow    AnnotationType = "arrow"
	AnnotationLine     AnnotationType = "line"
	AnnotationFreehand AnnotationType = "freehand"
)

var (
	EntityTypes     = []EntityType{EntityPlayer, EntityBall, EntityCone, EntityTackleShield, EntityTackleBag}
	Teams           = []Team{TeamAttack, TeamDefence, TeamNeutral}
	AnnotationTypes = []AnnotationType{AnnotationArrow, AnnotationLine, AnnotationFreehand}
)

var teamAliases = map[string]Team{
	"defense": TeamDefence,
}

func ParseEntityType(s string) (EntityType, error) {
	for _, t := range EntityTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

func ParseTeam(s string) (Team, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range Teams {
		if string(t) == s {
			return t, nil
		}
	}
	if t, ok := teamAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown team %q", s)
}

func ParseAnnotationType(s string) (AnnotationType, error) {
	for _, t := range AnnotationTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown annotation type %q", s)
}

func (t *EntityType) UnmarshalText(b []byte) error {
	v, err := ParseEntityType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t *Team) UnmarshalText(b []byte) error {
	v, err := ParseTeam(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t *AnnotationType) UnmarshalText(b []byte) error {
	v, err := ParseAnnotationType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
