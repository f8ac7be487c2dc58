package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxtrace"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/coachboard/coachboard-service/log"
	"github.com/coachboard/coachboard-service/pkg/config"
	"github.com/coachboard/coachboard-service/pkg/db/postgres"
	"github.com/coachboard/coachboard-service/pkg/notify"
	"github.com/coachboard/coachboard-service/pkg/payload"
	"github.com/coachboard/coachboard-service/pkg/utils"
)

var appConfig config.Config // holds processed config values

//nolint:funlen // flag definitions
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the API server",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if config.MaxPayloadBytes <= 0 {
				return fmt.Errorf("max-payload-bytes must be positive, got %d",
					config.MaxPayloadBytes)
			}
			appConfig.MaxPayloadBytes = config.MaxPayloadBytes
			config.TelemetryStdout = config.TelemetryEndpoint == "stdout"
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.ServerAddr,
		"addr",
		"a",
		"localhost:8080",
		"server listen address (h2c)")
	cmd.Flags().StringVar(&config.TLSServerAddr,
		"tls-addr",
		"",
		"server listen address for TLS, requires tls-cert and tls-key")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"file containing the TLS certificate")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"file containing the TLS key")
	cmd.Flags().StringVar(&config.TLSCAFile,
		"tls-ca",
		"",
		"file containing the CA for optional client certificates")
	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format (json, text)")
	cmd.Flags().StringVar(&config.LogFilter,
		"log-filter",
		"",
		"zapfilter rules, e.g. '*:grpc.* info:*'")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"endpoint that receives open telemetry data, 'stdout' prints it")
	cmd.Flags().StringVar(&config.AdminToken,
		"admin-token",
		"",
		"admin token value")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"NATS server for diagram events, empty disables them")
	cmd.Flags().IntVar(&config.MaxPayloadBytes,
		"max-payload-bytes",
		payload.MaxBytes,
		"size ceiling for share payloads")
	cmd.Flags().StringVar(&config.UserCacheTTL,
		"user-cache-ttl",
		"5m",
		"how long resolved api tokens are cached")
	cmd.Flags().BoolVar(&appConfig.PrintPayload,
		"print-payload",
		false,
		"if true and log level is debug, incoming payloads will be printed")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func setupLoggers() (logger, sqlLogger *log.Logger) {
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.New(
			os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if config.LogFilter != "" {
		if filtered, err := logger.WithFilter(config.LogFilter); err == nil {
			logger = filtered
		} else {
			logger.Warn("ignoring invalid log filter", log.ErrorField(err))
		}
	}
	return logger, sqlLogger
}

//nolint:funlen,cyclop // many tasks to do here
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, sqlLogger := setupLoggers()
	log.ResetDefault(logger)
	ctx = log.AddToContext(ctx, logger)

	log.Debug("Config:",
		log.String("addr", config.ServerAddr),
		log.String("tlsAddr", config.TLSServerAddr),
		log.String("nats", config.NatsURL),
		log.Int("maxPayloadBytes", appConfig.MaxPayloadBytes),
	)

	waitForRequiredServices()

	pgTracer := pgxtrace.CompositeQueryTracer{
		postgres.NewMyTracer(sqlLogger, log.DebugLevel),
	}
	var telemetry *config.Telemetry
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err == nil {
			pgTracer = append(pgTracer, postgres.NewOtlpTracer())
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	pool, err := postgres.NewPool(ctx, config.DB, postgres.WithTracer(pgTracer))
	if err != nil {
		log.Error("database not available", log.ErrorField(err))
		return err
	}
	defer func() {
		log.Debug("pool stats", poolStats(pool)...)
		pool.Close()
	}()

	notifier, closeNotifier := setupNotifier()
	defer closeNotifier()

	mux, err := registerServices(pool, notifier)
	if err != nil {
		log.Error("server could not be started", log.ErrorField(err))
		return err
	}
	handler := h2c.NewHandler(newCORS().Handler(mux), &http2.Server{})

	servers := []*http.Server{}
	errChan := make(chan error, 2)
	//nolint:gosec // timeouts are set by the reverse proxy
	plain := &http.Server{Addr: config.ServerAddr, Handler: handler}
	servers = append(servers, plain)
	go func() {
		log.Info("Starting server", log.String("addr", config.ServerAddr))
		errChan <- plain.ListenAndServe()
	}()

	if config.TLSServerAddr != "" {
		if tlsConfig := NewTLSConfigProvider(ctx); tlsConfig != nil {
			//nolint:gosec // timeouts are set by the reverse proxy
			secure := &http.Server{
				Addr:      config.TLSServerAddr,
				Handler:   handler,
				TLSConfig: tlsConfig,
			}
			servers = append(servers, secure)
			go func() {
				log.Info("Starting TLS server", log.String("addr", config.TLSServerAddr))
				errChan <- secure.ListenAndServeTLS("", "")
			}()
		} else {
			log.Warn("no certificate available, TLS server not started")
		}
	}
	setupGoRoutinesDump()

	var runErr error
	select {
	case <-ctx.Done():
		log.Debug("Got signal", log.ErrorField(context.Cause(ctx)))
	case runErr = <-errChan:
		if !errors.Is(runErr, http.ErrServerClosed) {
			log.Error("server stopped", log.ErrorField(runErr))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown", log.String("addr", s.Addr), log.ErrorField(err))
		}
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	if errors.Is(runErr, http.ErrServerClosed) {
		return nil
	}
	return runErr
}

func setupNotifier() (n notify.Notifier, closer func()) {
	if config.NatsURL == "" {
		return notify.NewNopNotifier(), func() {}
	}
	l := log.Default().Named("nats")
	conn, err := notify.Connect(config.NatsURL, l)
	if err != nil {
		log.Warn("NATS not available, events are dropped", log.ErrorField(err))
		return notify.NewNopNotifier(), func() {}
	}
	return notify.NewNatsNotifier(conn, notify.WithLogger(l)), func() {
		if err := conn.Drain(); err != nil {
			l.Warn("drain", log.ErrorField(err))
		}
	}
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func waitForRequiredServices() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	check := func(addr string, required bool) {
		defer wg.Done()
		if err := utils.WaitForTCP(addr, timeout); err != nil {
			if required {
				log.Fatal("required services not ready", log.ErrorField(err))
			}
			log.Warn("optional service not ready", log.ErrorField(err))
		}
	}
	if addr := utils.ExtractFromDBURL(config.DB); addr != "" {
		wg.Add(1)
		go check(addr, true)
	}
	if addr := utils.ExtractFromNatsURL(config.NatsURL); addr != "" {
		wg.Add(1)
		go check(addr, false)
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

func poolStats(pool *pgxpool.Pool) []log.Field {
	s := pool.Stat()
	return []log.Field{
		log.Int32("total", s.TotalConns()),
		log.Int64("acquired", s.AcquireCount()),
		log.Duration("acquireDuration", s.AcquireDuration()),
	}
}
