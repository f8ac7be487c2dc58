package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const defaultImage = "postgres:17-alpine"

// PostgresContainer is a running (possibly reused) postgres test container
// together with the credentials it was started with.
type PostgresContainer struct {
	testcontainers.Container
	settings containerSettings
}

type (
	containerSettings struct {
		image    string
		name     string
		user     string
		password string
		database string
		startup  time.Duration
	}
	Option func(s *containerSettings)
)

func WithName(name string) Option {
	return func(s *containerSettings) { s.name = name }
}

func WithStartupTimeout(d time.Duration) Option {
	return func(s *containerSettings) { s.startup = d }
}

var pgPort = nat.Port("5432/tcp")

// StartPostgres starts a postgres container with fsync disabled. Containers
// with the same name are reused between test packages.
func StartPostgres(ctx context.Context, opts ...Option) (*PostgresContainer, error) {
	s := containerSettings{
		image:    defaultImage,
		name:     "coachboard-service-test",
		user:     "postgres",
		password: "password",
		database: "postgres",
		startup:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(&s)
	}

	req := testcontainers.ContainerRequest{
		Image: s.image,
		Name:  s.name,
		Env: map[string]string{
			"POSTGRES_USER":     s.user,
			"POSTGRES_PASSWORD": s.password,
			"POSTGRES_DB":       s.database,
		},
		ExposedPorts: []string{string(pgPort)},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
		// the server logs readiness twice: once for the init run, once for real
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(s.startup),
			wait.ForListeningPort(pgPort),
		).WithDeadline(time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            true,
		})
	if err != nil {
		return nil, err
	}
	return &PostgresContainer{Container: container, settings: s}, nil
}

// DSN returns the connection url for the mapped port of the container.
func (c *PostgresContainer) DSN(ctx context.Context) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.MappedPort(ctx, pgPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		c.settings.user, c.settings.password, host, port.Port(), c.settings.database), nil
}
