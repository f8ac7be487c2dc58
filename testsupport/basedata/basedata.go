package basedata

import (
	"context"
	"log"

	"github.com/gofrs/uuid/v5"

	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/payload"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	"github.com/coachboard/coachboard-service/pkg/utils"
)

const SampleAPIKey = "coach-secret"

func SampleProject() *model.Project {
	return &model.Project{
		Name:     "lineout",
		Sport:    "rugby-union",
		Settings: model.Settings{PitchLayout: "full"},
		Frames: []model.Frame{
			{
				ID:       "f1",
				Duration: 1000,
				Entities: []model.Entity{
					{ID: "p1", Type: model.EntityPlayer, Team: model.TeamAttack, X: 100, Y: 100},
					{ID: "b1", Type: model.EntityBall, Team: model.TeamDefence, X: 110, Y: 110},
				},
			},
			{
				ID:       "f2",
				Duration: 500,
				Entities: []model.Entity{
					{ID: "p1", Type: model.EntityPlayer, Team: model.TeamAttack, X: 150, Y: 150},
					{ID: "b1", Type: model.EntityBall, Team: model.TeamDefence, X: 110, Y: 110},
				},
			},
		},
	}
}

// SamplePayload returns the version 2 encoding of SampleProject.
func SamplePayload() []byte {
	b, err := payload.Marshal(payload.EncodeV2(SampleProject()))
	if err != nil {
		log.Fatalf("SamplePayload: %v", err)
	}
	return b
}

func CreateSampleUser(ctx context.Context, repos api.Repositories, name string) *model.User {
	u, err := repos.User().Create(ctx, &model.User{
		Name:   name,
		APIKey: utils.HashAPIKey(name + "-" + SampleAPIKey),
		Active: true,
	})
	if err != nil {
		log.Fatalf("CreateSampleUser: %v", err)
	}
	return u
}

//nolint:whitespace // editor/linter issue
func CreateSampleDiagram(
	ctx context.Context, repos api.Repositories, owner uuid.UUID, public bool,
) *model.Diagram {
	d, err := repos.Diagram().Create(ctx, &model.Diagram{
		OwnerID: owner,
		Name:    "lineout",
		Sport:   "rugby-union",
		Version: payload.Version2,
		Payload: SamplePayload(),
		Public:  public,
	})
	if err != nil {
		log.Fatalf("CreateSampleDiagram: %v", err)
	}
	return d
}
