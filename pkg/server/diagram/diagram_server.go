// Package diagram implements the DiagramService: persisting, sharing and
// browsing share payloads.
package diagram

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/auth"
	"github.com/coachboard/coachboard-service/pkg/config"
	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/notify"
	"github.com/coachboard/coachboard-service/pkg/payload"
	"github.com/coachboard/coachboard-service/pkg/permission"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
)

// DefaultSport is recorded for V1 payloads, which carry no sport.
const DefaultSport = "rugby"

const defaultName = "Untitled"

func NewServer(opts ...Option) *diagramServer {
	ret := &diagramServer{
		log:      log.Default().Named("grpc.diagram"),
		notifier: notify.NewNopNotifier(),
		txMgr:    directTx{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("cbs")
	}
	if ret.meter == nil {
		ret.meter = otel.Meter("cbs")
	}
	counter, err := ret.meter.Int64Counter("coachboard.payload.rejected",
		metric.WithDescription("share payloads refused by the codec"),
		metric.WithUnit("{payload}"))
	if err != nil {
		ret.log.Warn("could not create metric", log.ErrorField(err))
		counter = noop.Int64Counter{}
	}
	ret.rejected = counter
	return ret
}

type Option func(*diagramServer)

func WithRepositories(repos api.Repositories) Option {
	return func(srv *diagramServer) {
		srv.repos = repos
	}
}

func WithTransactionManager(txMgr api.TransactionManager) Option {
	return func(srv *diagramServer) {
		srv.txMgr = txMgr
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *diagramServer) {
		srv.pe = pe
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(srv *diagramServer) {
		srv.notifier = n
	}
}

// WithMaxPayloadBytes fixes the size ceiling. Without it the value is taken
// from the config.Config found in the request context.
func WithMaxPayloadBytes(n int) Option {
	return func(srv *diagramServer) {
		srv.maxBytes = n
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(srv *diagramServer) {
		srv.tracer = tracer
	}
}

func WithMeter(meter metric.Meter) Option {
	return func(srv *diagramServer) {
		srv.meter = meter
	}
}

type diagramServer struct {
	log      *log.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	rejected metric.Int64Counter

	repos    api.Repositories
	txMgr    api.TransactionManager
	pe       permission.PermissionEvaluator
	notifier notify.Notifier
	maxBytes int
}

var _ DiagramServiceHandler = (*diagramServer)(nil)

// directTx runs fn without a transaction
type directTx struct{}

func (directTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

//nolint:whitespace // can't make both editor and linter happy
func (s *diagramServer) SaveDiagram(
	ctx context.Context,
	req *connect.Request[SaveDiagramRequest],
) (*connect.Response[SaveDiagramResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionCreateDiagram) {
		return nil, errPermissionDenied()
	}
	ownerID, err := principalID(a)
	if err != nil {
		return nil, toConnectError(err)
	}
	p, err := s.decodePayload(ctx, req.Msg.Payload)
	if err != nil {
		s.recordRejection(ctx, err)
		return nil, payloadError(connect.CodeInvalidArgument, err)
	}
	d := &model.Diagram{
		OwnerID:          ownerID,
		Name:             nameOf(req.Msg.Name, p),
		Sport:            sportOf(p),
		Version:          p.SchemaVersion(),
		Payload:          req.Msg.Payload,
		Public:           req.Msg.IsPublic,
		ClientMutationID: req.Msg.ClientMutationID,
	}

	var stored *model.Diagram
	replayed := false
	err = s.txMgr.RunInTx(ctx, func(ctx context.Context) (err error) {
		if d.ClientMutationID != "" {
			stored, err = s.repos.Diagram().LoadByMutationID(
				ctx, ownerID, d.ClientMutationID)
			switch {
			case err == nil:
				replayed = true
				return nil
			case !errors.Is(err, api.ErrNoRows):
				return err
			}
		}
		stored, err = s.repos.Diagram().Create(ctx, d)
		return err
	})
	if errors.Is(err, api.ErrDuplicate) && d.ClientMutationID != "" {
		// a concurrent replay of the same mutation committed first
		stored, err = s.repos.Diagram().LoadByMutationID(ctx, ownerID, d.ClientMutationID)
		replayed = true
	}
	if err != nil {
		s.log.Error("could not save diagram", log.ErrorField(err))
		return nil, toConnectError(err)
	}
	if replayed {
		s.log.Debug("replayed mutation",
			log.String("mutation", d.ClientMutationID),
			log.String("diagram", stored.ID.String()))
	} else {
		s.notifier.Publish(ctx, eventOf(notify.KindSaved, stored))
	}
	return connect.NewResponse(&SaveDiagramResponse{
		Diagram:  toDiagram(stored, true),
		Replayed: replayed,
	}), nil
}

//nolint:whitespace,funlen // can't make both editor and linter happy
func (s *diagramServer) UpdateDiagram(
	ctx context.Context,
	req *connect.Request[UpdateDiagramRequest],
) (*connect.Response[UpdateDiagramResponse], error) {
	a := auth.FromContext(ctx)
	id, err := parseID(req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	upd := &api.DiagramUpdate{}
	if req.Msg.Name != nil {
		upd.Name = omit.From(*req.Msg.Name)
	}
	if req.Msg.IsPublic != nil {
		upd.Public = omit.From(*req.Msg.IsPublic)
	}

	var ret *model.Diagram
	err = s.txMgr.RunInTx(ctx, func(ctx context.Context) error {
		cur, err := s.repos.Diagram().LoadByID(ctx, id)
		if err != nil {
			return err
		}
		if !s.pe.HasObjectPermission(a, permission.PermissionUpdateDiagram,
			objectOf(cur)) {
			return errPermissionDenied()
		}
		if len(req.Msg.Payload) > 0 {
			p, err := s.decodePayload(ctx, req.Msg.Payload)
			if err != nil {
				s.recordRejection(ctx, err)
				return payloadError(connect.CodeInvalidArgument, err)
			}
			upd.Payload = omit.From([]byte(req.Msg.Payload))
			upd.Version = omit.From(p.SchemaVersion())
			upd.Sport = omit.From(sportOf(p))
		}
		if _, err := s.repos.Diagram().Update(ctx, id, upd); err != nil {
			return err
		}
		ret, err = s.repos.Diagram().LoadByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	s.notifier.Publish(ctx, eventOf(notify.KindUpdated, ret))
	return connect.NewResponse(&UpdateDiagramResponse{
		Diagram: toDiagram(ret, true),
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *diagramServer) GetDiagram(
	ctx context.Context,
	req *connect.Request[GetDiagramRequest],
) (*connect.Response[GetDiagramResponse], error) {
	a := auth.FromContext(ctx)
	id, err := parseID(req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	d, err := s.repos.Diagram().LoadByID(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !s.pe.HasObjectPermission(a, permission.PermissionReadDiagram, objectOf(d)) {
		return nil, errPermissionDenied()
	}
	// stored documents are checked again, the ceiling may have changed since
	if _, err := payload.Decode(d.Payload,
		payload.WithMaxBytes(len(d.Payload))); err != nil {
		s.log.Error("stored payload does not validate",
			log.String("diagram", d.ID.String()),
			log.ErrorField(err))
		return nil, payloadError(connect.CodeDataLoss, err)
	}
	return connect.NewResponse(&GetDiagramResponse{
		Diagram: toDiagram(d, true),
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *diagramServer) ListDiagrams(
	ctx context.Context,
	req *connect.Request[ListDiagramsRequest],
) (*connect.Response[ListDiagramsResponse], error) {
	a := auth.FromContext(ctx)
	page := api.Page{Limit: req.Msg.Limit, Offset: req.Msg.Offset}.Normalize()

	var data []*model.Diagram
	var err error
	switch req.Msg.Scope {
	case "", ScopePublic:
		data, err = s.repos.Diagram().LoadPublic(ctx, page)
	case ScopeMine:
		if !s.pe.HasPermission(a, permission.PermissionListOwnDiagrams) {
			return nil, errPermissionDenied()
		}
		var ownerID uuid.UUID
		if ownerID, err = principalID(a); err == nil {
			data, err = s.repos.Diagram().LoadByOwner(ctx, ownerID, page)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrInvalidScope, req.Msg.Scope)
	}
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListDiagramsResponse{
		Diagrams: lo.Map(data, func(d *model.Diagram, _ int) *Diagram {
			return toDiagram(d, false)
		}),
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *diagramServer) DeleteDiagram(
	ctx context.Context,
	req *connect.Request[DeleteDiagramRequest],
) (*connect.Response[DeleteDiagramResponse], error) {
	a := auth.FromContext(ctx)
	id, err := parseID(req.Msg.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	var deleted *model.Diagram
	err = s.txMgr.RunInTx(ctx, func(ctx context.Context) error {
		cur, err := s.repos.Diagram().LoadByID(ctx, id)
		if err != nil {
			return err
		}
		if !s.pe.HasObjectPermission(a, permission.PermissionDeleteDiagram,
			objectOf(cur)) {
			return errPermissionDenied()
		}
		n, err := s.repos.Diagram().DeleteByID(ctx, id)
		if n > 0 {
			deleted = cur
		}
		return err
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	if deleted != nil {
		s.log.Info("diagram deleted",
			log.String("diagram", id.String()),
			log.String("by", a.Principal().Name()))
		s.notifier.Publish(ctx, eventOf(notify.KindDeleted, deleted))
	}
	return connect.NewResponse(&DeleteDiagramResponse{Deleted: deleted != nil}), nil
}

// ValidatePayload reports what SaveDiagram would say about a payload without
// storing anything. Invalid payloads are a regular response here.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *diagramServer) ValidatePayload(
	ctx context.Context,
	req *connect.Request[ValidatePayloadRequest],
) (*connect.Response[ValidatePayloadResponse], error) {
	limit := s.limit(ctx)
	ret := &ValidatePayloadResponse{Size: len(req.Msg.Payload), Limit: limit}

	p, err := s.decodePayload(ctx, req.Msg.Payload)
	var sizeErr *payload.SizeError
	var valErr *payload.ValidationError
	switch {
	case err == nil:
		ret.Valid = true
		ret.Version = p.SchemaVersion()
	case errors.As(err, &sizeErr):
		ret.TooLarge = true
		ret.Violations = []Violation{{Path: "$", Message: err.Error()}}
	case errors.As(err, &valErr):
		ret.Version = valErr.Version
		ret.Violations = lo.Map(valErr.Violations,
			func(v payload.Violation, _ int) Violation {
				return Violation{Path: v.Path.String(), Message: v.Message}
			})
	default:
		return nil, toConnectError(err)
	}
	return connect.NewResponse(ret), nil
}

func (s *diagramServer) limit(ctx context.Context) int {
	if s.maxBytes > 0 {
		return s.maxBytes
	}
	if n := config.FromContext(ctx).MaxPayloadBytes; n > 0 {
		return n
	}
	return payload.MaxBytes
}

//nolint:whitespace // can't make both editor and linter happy
func (s *diagramServer) decodePayload(ctx context.Context, raw []byte) (
	payload.Payload, error,
) {
	_, span := s.tracer.Start(ctx, "payload.decode",
		trace.WithAttributes(attribute.Int("payload.size", len(raw))))
	defer span.End()

	if config.FromContext(ctx).PrintPayload {
		s.log.Debug("decoding payload", log.ByteString("payload", raw))
	}
	p, err := payload.Decode(raw, payload.WithMaxBytes(s.limit(ctx)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, rejectionClass(err))
		s.log.Debug("payload rejected", log.ErrorField(err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("payload.version", p.SchemaVersion()))
	return p, nil
}

func principalID(a auth.Authentication) (uuid.UUID, error) {
	if a.Anonymous() || a.Principal().ID() == "" {
		return uuid.Nil, ErrNotAUser
	}
	id, err := uuid.FromString(a.Principal().ID())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrNotAUser, err)
	}
	return id, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}

func objectOf(d *model.Diagram) permission.Object {
	return permission.Object{Owner: d.OwnerID.String(), Public: d.Public}
}

func sportOf(p payload.Payload) string {
	if v2, ok := p.(*payload.V2); ok && v2.Sport != "" {
		return v2.Sport
	}
	return DefaultSport
}

func nameOf(requested string, p payload.Payload) string {
	if requested != "" {
		return requested
	}
	if v2, ok := p.(*payload.V2); ok && v2.Name != "" {
		return v2.Name
	}
	return defaultName
}

func eventOf(k notify.Kind, d *model.Diagram) notify.Event {
	return notify.Event{
		Kind:      k,
		DiagramID: d.ID.String(),
		OwnerID:   d.OwnerID.String(),
		Version:   d.Version,
		Public:    d.Public,
	}
}
