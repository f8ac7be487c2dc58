package permission

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/storage/inmem"

	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/auth"
)

type OpaPermissionEvaluator struct {
	query rego.PreparedEvalQuery
	l     *log.Logger
}

//nolint:tagliatelle // rego input
type EvalRequest struct {
	Principal    string      `json:"principal"`
	Roles        []auth.Role `json:"roles"`
	Action       Permission  `json:"action"`
	ObjectOwner  string      `json:"objectOwner,omitempty"`
	ObjectPublic bool        `json:"objectPublic"`
}

var _ PermissionEvaluator = (*OpaPermissionEvaluator)(nil)

//go:embed policy.rego
var policy []byte

//go:embed data.json
var data []byte

func NewOpaPermissionEvaluator() (*OpaPermissionEvaluator, error) {
	l := log.Default().Named("permission").Named("opa")
	store := inmem.NewFromReader(bytes.NewReader(data))
	r := rego.New(
		rego.Query("data.coachboard.authz.allow"),
		rego.Module("coachboard.authz", string(policy)),
		rego.Store(store),
	)
	query, err := r.PrepareForEval(context.Background())
	if err != nil {
		l.Error("failed to prepare query", log.ErrorField(err))
		return nil, err
	}
	return &OpaPermissionEvaluator{query: query, l: l}, nil
}

//nolint:whitespace // editor/linter issue
func (ope *OpaPermissionEvaluator) HasPermission(
	a auth.Authentication,
	perm Permission,
) bool {
	return ope.eval(EvalRequest{
		Principal: a.Principal().ID(),
		Roles:     a.Roles(),
		Action:    perm,
	})
}

//nolint:whitespace // editor/linter issue
func (ope *OpaPermissionEvaluator) HasObjectPermission(
	a auth.Authentication,
	perm Permission,
	obj Object,
) bool {
	return ope.eval(EvalRequest{
		Principal:    a.Principal().ID(),
		Roles:        a.Roles(),
		Action:       perm,
		ObjectOwner:  obj.Owner,
		ObjectPublic: obj.Public,
	})
}

func (ope *OpaPermissionEvaluator) eval(req EvalRequest) bool {
	rs, err := ope.query.Eval(context.Background(), rego.EvalInput(req))
	if err != nil {
		ope.l.Error("eval", log.ErrorField(err))
		return false
	}
	ope.l.Debug("eval",
		log.Any("req", req),
		log.Bool("allowed", rs.Allowed()))
	return rs.Allowed()
}
