package diagram

import (
	"encoding/json"
	"time"

	"github.com/coachboard/coachboard-service/pkg/model"
)

const (
	ScopePublic = "public"
	ScopeMine   = "mine"
)

//nolint:tagliatelle // wire format
type (
	Diagram struct {
		ID               string          `json:"id"`
		OwnerID          string          `json:"ownerId"`
		Name             string          `json:"name"`
		Sport            string          `json:"sport"`
		Version          int             `json:"version"`
		IsPublic         bool            `json:"isPublic"`
		ClientMutationID string          `json:"clientMutationId,omitempty"`
		Payload          json.RawMessage `json:"payload,omitempty"`
		CreatedAt        time.Time       `json:"createdAt"`
		UpdatedAt        time.Time       `json:"updatedAt"`
	}

	SaveDiagramRequest struct {
		Name             string          `json:"name"`
		IsPublic         bool            `json:"isPublic"`
		ClientMutationID string          `json:"clientMutationId,omitempty"`
		Payload          json.RawMessage `json:"payload"`
	}
	SaveDiagramResponse struct {
		Diagram *Diagram `json:"diagram"`
		// Replayed is set when the clientMutationId was already known and the
		// stored diagram is returned instead of a new one.
		Replayed bool `json:"replayed,omitempty"`
	}

	UpdateDiagramRequest struct {
		ID       string          `json:"id"`
		Name     *string         `json:"name,omitempty"`
		IsPublic *bool           `json:"isPublic,omitempty"`
		Payload  json.RawMessage `json:"payload,omitempty"`
	}
	UpdateDiagramResponse struct {
		Diagram *Diagram `json:"diagram"`
	}

	GetDiagramRequest struct {
		ID string `json:"id"`
	}
	GetDiagramResponse struct {
		Diagram *Diagram `json:"diagram"`
	}

	ListDiagramsRequest struct {
		Scope  string `json:"scope,omitempty"`
		Limit  int    `json:"limit,omitempty"`
		Offset int    `json:"offset,omitempty"`
	}
	ListDiagramsResponse struct {
		Diagrams []*Diagram `json:"diagrams"`
	}

	DeleteDiagramRequest struct {
		ID string `json:"id"`
	}
	DeleteDiagramResponse struct {
		Deleted bool `json:"deleted"`
	}

	ValidatePayloadRequest struct {
		Payload json.RawMessage `json:"payload"`
	}
	Violation struct {
		Path    string `json:"path"`
		Message string `json:"message"`
	}
	ValidatePayloadResponse struct {
		Valid      bool        `json:"valid"`
		Version    int         `json:"version,omitempty"`
		Size       int         `json:"size"`
		Limit      int         `json:"limit"`
		TooLarge   bool        `json:"tooLarge,omitempty"`
		Violations []Violation `json:"violations,omitempty"`
	}
)

// toDiagram converts the model. The payload is only included when withPayload
// is set, list results carry metadata only.
func toDiagram(d *model.Diagram, withPayload bool) *Diagram {
	ret := &Diagram{
		ID:               d.ID.String(),
		OwnerID:          d.OwnerID.String(),
		Name:             d.Name,
		Sport:            d.Sport,
		Version:          d.Version,
		IsPublic:         d.Public,
		ClientMutationID: d.ClientMutationID,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if withPayload {
		ret.Payload = json.RawMessage(d.Payload)
	}
	return ret
}
