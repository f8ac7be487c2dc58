// Package user implements the admin facing UserService.
package user

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/auth"
	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/permission"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	"github.com/coachboard/coachboard-service/pkg/server/codec"
	"github.com/coachboard/coachboard-service/pkg/utils"
)

const ServiceName = "coachboard.user.v1.UserService"

const (
	CreateUserProcedure = "/" + ServiceName + "/CreateUser"
	ListUsersProcedure  = "/" + ServiceName + "/ListUsers"
)

var ErrNameRequired = errors.New("name is required")

//nolint:tagliatelle // wire format
type (
	User struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		IsAdmin   bool      `json:"isAdmin"`
		IsActive  bool      `json:"isActive"`
		CreatedAt time.Time `json:"createdAt"`
	}
	CreateUserRequest struct {
		Name    string `json:"name"`
		APIKey  string `json:"apiKey,omitempty"`
		IsAdmin bool   `json:"isAdmin"`
	}
	// CreateUserResponse carries the plain api key. It is not retrievable
	// later on.
	CreateUserResponse struct {
		User   *User  `json:"user"`
		APIKey string `json:"apiKey"`
	}
	ListUsersRequest  struct{}
	ListUsersResponse struct {
		Users []*User `json:"users"`
	}
)

func NewServer(opts ...Option) *userServer {
	ret := &userServer{
		log: log.Default().Named("grpc.user"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("cbs")
	}
	return ret
}

type Option func(*userServer)

func WithRepository(repo api.UserRepository) Option {
	return func(srv *userServer) {
		srv.repo = repo
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *userServer) {
		srv.pe = pe
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(srv *userServer) {
		srv.tracer = tracer
	}
}

type userServer struct {
	log    *log.Logger
	tracer trace.Tracer
	repo   api.UserRepository
	pe     permission.PermissionEvaluator
}

//nolint:whitespace // can't make both editor and linter happy
func (s *userServer) CreateUser(
	ctx context.Context,
	req *connect.Request[CreateUserRequest],
) (*connect.Response[CreateUserResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionCreateUser) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrNameRequired)
	}
	key := req.Msg.APIKey
	if key == "" {
		key = utils.GenerateAPIKey()
	}
	u, err := s.repo.Create(ctx, &model.User{
		Name:   name,
		APIKey: utils.HashAPIKey(key),
		Admin:  req.Msg.IsAdmin,
		Active: true,
	})
	if err != nil {
		if errors.Is(err, api.ErrDuplicate) {
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		}
		s.log.Error("could not create user", log.ErrorField(err))
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	s.log.Info("user created",
		log.String("name", u.Name),
		log.Bool("admin", u.Admin),
		log.String("by", a.Principal().Name()))
	return connect.NewResponse(&CreateUserResponse{User: toUser(u), APIKey: key}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *userServer) ListUsers(
	ctx context.Context,
	req *connect.Request[ListUsersRequest],
) (*connect.Response[ListUsersResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionReadUser) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	data, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&ListUsersResponse{
		Users: lo.Map(data, func(u *model.User, _ int) *User { return toUser(u) }),
	}), nil
}

func toUser(u *model.User) *User {
	return &User{
		ID:        u.ID.String(),
		Name:      u.Name,
		IsAdmin:   u.Admin,
		IsActive:  u.Active,
		CreatedAt: u.CreatedAt,
	}
}

//nolint:whitespace // can't make both editor and linter happy
func NewUserServiceHandler(
	svc *userServer,
	opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = append([]connect.HandlerOption{codec.WithJSON()}, opts...)
	create := connect.NewUnaryHandler(CreateUserProcedure, svc.CreateUser, opts...)
	list := connect.NewUnaryHandler(ListUsersProcedure, svc.ListUsers, opts...)
	return "/" + ServiceName + "/", http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case CreateUserProcedure:
				create.ServeHTTP(w, r)
			case ListUsersProcedure:
				list.ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
		})
}
