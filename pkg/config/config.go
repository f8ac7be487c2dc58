package config

import "context"

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogFilter          string // zapfilter rules, empty means no filtering
	MigrationSourceURL string // location of migration files, empty uses the embedded ones
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry
	TelemetryStdout    bool   // write telemetry to stdout instead of OTLP
	ServerAddr         string // listen addr for the API server (insecure, h2c)
	TLSServerAddr      string // listen addr for the API server (tls)
	TLSCertFile        string // path to TLS certificate
	TLSKeyFile         string // path to TLS key
	TLSCAFile          string // path to TLS CA
	AdminToken         string // token for admin access
	NatsURL            string // url of the NATS server, empty disables notifications
	MaxPayloadBytes    int    // size ceiling for share payloads
	UserCacheTTL       string // how long resolved api keys are kept
)

// Config holds the configuration values which are used by the application
type Config struct {
	MaxPayloadBytes int // size ceiling for share payloads
	PrintPayload    bool
}

// DefaultConfig is used when no Config was placed into a context.
var DefaultConfig = &Config{MaxPayloadBytes: 100_000}

type configCtxKey struct{}

func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configCtxKey{}, cfg)
}

func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configCtxKey{}).(*Config); ok && cfg != nil {
		return cfg
	}
	return DefaultConfig
}
