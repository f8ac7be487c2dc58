//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coachboard/coachboard-service/pkg/db/migrate"
	database "github.com/coachboard/coachboard-service/pkg/db/postgres"
)

// SetupTestDb starts (or reuses) a postgres container, applies all
// migrations and returns a pool connected to it.
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	container, err := StartPostgres(ctx,
		WithName("coachboard-service-test"),
		WithStartupTimeout(10*time.Second))
	if err != nil {
		log.Fatal(err)
	}
	dbURL, err := container.DSN(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return setupWithURL(ctx, dbURL)
}

// SetupExternalTestDb uses the database referenced by TESTDB_URL.
func SetupExternalTestDb() *pgxpool.Pool {
	return setupWithURL(context.Background(), os.Getenv("TESTDB_URL"))
}

func setupWithURL(ctx context.Context, dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearDiagramTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from diagram")
}

func ClearUserTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from app_user")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearDiagramTable(pool)
	ClearUserTable(pool)
}
