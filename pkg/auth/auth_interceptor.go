package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	"github.com/coachboard/coachboard-service/pkg/utils"
	"github.com/coachboard/coachboard-service/pkg/utils/cache"
)

const (
	TokenHeader = "api-token"
)

type (
	authInterceptor struct {
		adminToken string
		userCache  cache.Cache[string, model.User]
		l          *log.Logger
	}
	Option func(*authInterceptor)
)

// NewAuthInterceptor resolves the api-token header into an Authentication.
// Requests without the header continue as anonymous, an unknown token is
// rejected with CodeUnauthenticated.
func NewAuthInterceptor(opts ...Option) connect.Interceptor {
	ret := &authInterceptor{
		l: log.Default().Named("grpc.auth"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func WithAdminToken(token string) Option {
	return func(i *authInterceptor) {
		i.adminToken = token
	}
}

// WithUserCache sets the cache used to look up users by hashed api key.
func WithUserCache(arg cache.Cache[string, model.User]) Option {
	return func(i *authInterceptor) {
		i.userCache = arg
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (i *authInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		a, err := i.authenticate(ctx, req.Header())
		if err != nil {
			return nil, err
		}
		return next(NewContext(ctx, a), req)
	})
}

//nolint:lll // better readability
func (i *authInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

//nolint:lll,whitespace // better readability
func (i *authInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return connect.StreamingHandlerFunc(func(
		ctx context.Context,
		conn connect.StreamingHandlerConn,
	) error {
		a, err := i.authenticate(ctx, conn.RequestHeader())
		if err != nil {
			return err
		}
		return next(NewContext(ctx, a), conn)
	})
}

//nolint:whitespace // editor/linter issue
func (i *authInterceptor) authenticate(
	ctx context.Context,
	h http.Header,
) (Authentication, error) {
	token := h.Get(TokenHeader)
	if token == "" {
		return anon, nil
	}
	if i.isAdminToken(token) {
		return NewAuth("admin", "", RoleAdmin), nil
	}
	if i.userCache == nil {
		return nil, connect.NewError(connect.CodeUnauthenticated, ErrUnauthenticated)
	}
	u, err := i.userCache.Get(ctx, utils.HashAPIKey(token))
	switch {
	case err == nil && u.Active:
	case err == nil, errors.Is(err, api.ErrNoRows), errors.Is(err, cache.ErrCacheMiss):
		return nil, connect.NewError(connect.CodeUnauthenticated, ErrUnauthenticated)
	default:
		i.l.Error("api key lookup failed", log.ErrorField(err))
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	roles := []Role{RoleCoach}
	if u.Admin {
		roles = append(roles, RoleAdmin)
	}
	return NewAuth(u.Name, u.ID.String(), roles...), nil
}

func (i *authInterceptor) isAdminToken(token string) bool {
	return i.adminToken != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(i.adminToken)) == 1
}
