package server

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"connectrpc.com/otelconnect"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/stephenafamo/bob"

	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/auth"
	"github.com/coachboard/coachboard-service/pkg/config"
	"github.com/coachboard/coachboard-service/pkg/model"
	"github.com/coachboard/coachboard-service/pkg/notify"
	"github.com/coachboard/coachboard-service/pkg/permission"
	"github.com/coachboard/coachboard-service/pkg/repository/api"
	bobRepos "github.com/coachboard/coachboard-service/pkg/repository/bob"
	"github.com/coachboard/coachboard-service/pkg/server/diagram"
	"github.com/coachboard/coachboard-service/pkg/server/user"
	"github.com/coachboard/coachboard-service/pkg/server/util"
	"github.com/coachboard/coachboard-service/pkg/utils/cache"
	"github.com/coachboard/coachboard-service/pkg/utils/cache/loadercache"
)

// envelope allowance on top of the payload ceiling: the payload is embedded
// in the request message and may carry whitespace
const requestOverhead = 64 << 10

func registerServices(pool *pgxpool.Pool, notifier notify.Notifier) (*http.ServeMux, error) {
	db := bob.NewDB(stdlib.OpenDBFromPool(pool))
	repos := bobRepos.NewRepositories(db)
	txMgr := bobRepos.NewTransactionManager(db)

	pe, err := permission.NewOpaPermissionEvaluator()
	if err != nil {
		return nil, err
	}
	otelInterceptor, err := otelconnect.NewInterceptor()
	if err != nil {
		return nil, err
	}
	authInterceptor := auth.NewAuthInterceptor(
		auth.WithAdminToken(config.AdminToken),
		auth.WithUserCache(newUserCache(repos)),
	)
	handlerOpts := []connect.HandlerOption{
		connect.WithInterceptors(
			otelInterceptor,
			util.NewTraceIDInterceptor(),
			util.NewAppContextInterceptor(&appConfig),
			authInterceptor,
		),
		connect.WithReadMaxBytes(4*appConfig.MaxPayloadBytes + requestOverhead),
	}

	mux := http.NewServeMux()
	mux.Handle(diagram.NewDiagramServiceHandler(
		diagram.NewServer(
			diagram.WithRepositories(repos),
			diagram.WithTransactionManager(txMgr),
			diagram.WithPermissionEvaluator(pe),
			diagram.WithNotifier(notifier),
		),
		handlerOpts...))
	mux.Handle(user.NewUserServiceHandler(
		user.NewServer(
			user.WithRepository(repos.User()),
			user.WithPermissionEvaluator(pe),
		),
		handlerOpts...))
	mux.Handle(grpchealth.NewHandler(
		grpchealth.NewStaticChecker(diagram.ServiceName, user.ServiceName)))
	return mux, nil
}

func newUserCache(repos api.Repositories) cache.Cache[string, model.User] {
	ttl, err := time.ParseDuration(config.UserCacheTTL)
	if err != nil {
		log.Warn("Invalid user cache ttl. Setting default 5m", log.ErrorField(err))
		ttl = 5 * time.Minute
	}
	return loadercache.New(
		loadercache.WithExpiration[string, model.User](ttl),
		loadercache.WithLogger[string, model.User](log.Default().Named("cache.user")),
		loadercache.WithLoader[string, model.User](
			func(ctx context.Context, key string) (*model.User, error) {
				return repos.User().LoadByAPIKey(ctx, key)
			}),
	)
}

func newCORS() *cors.Cors {
	// browsers of any origin may call the API, access is controlled by tokens
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Connect-Accept-Encoding",
			"Connect-Content-Encoding",
			"Content-Encoding",
			"Grpc-Accept-Encoding",
			"Grpc-Encoding",
			"Grpc-Message",
			"Grpc-Status",
			"Grpc-Status-Details-Bin",
			"X-Trace-ID",
		},
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
