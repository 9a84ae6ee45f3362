package postgreswrapper

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"testing"

	_ "github.com/lib/pq" // postgres driver
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
)

const (
	postgresImage    = "postgres:17-alpine"
	postgresDatabase = "library"
	postgresUser     = "test"
	postgresPassword = "test"
)

// ErrSkipped is returned by StartContainer when integration tests must not run.
var ErrSkipped = errors.New("postgres integration tests skipped")

// Container is a running PostgreSQL container with the lending schema migrated.
type Container struct {
	container *tcpostgres.PostgresContainer
	DSN       string
}

// StartContainer starts PostgreSQL and applies the migrations.
// Under `go test -short` it returns ErrSkipped without touching Docker.
// Call it from TestMain after flag parsing; see RunPackage.
func StartContainer(ctx context.Context) (_ *Container, err error) {
	if testing.Short() {
		return nil, ErrSkipped
	}

	// testcontainers panics when it cannot find any container runtime
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrSkipped, fmt.Errorf("%v", r))
		}
	}()

	pgContainer, err := tcpostgres.Run(ctx,
		postgresImage,
		tcpostgres.WithDatabase(postgresDatabase),
		tcpostgres.WithUsername(postgresUser),
		tcpostgres.WithPassword(postgresPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, errors.Join(ErrSkipped, err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(pgContainer)
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = testcontainers.TerminateContainer(pgContainer)
		return nil, err
	}
	defer func() { _ = db.Close() }()

	if err = postgresengine.MigrateUp(ctx, db); err != nil {
		_ = testcontainers.TerminateContainer(pgContainer)
		return nil, err
	}

	return &Container{container: pgContainer, DSN: dsn}, nil
}

// Terminate stops and removes the container.
func (c *Container) Terminate() error {
	return testcontainers.TerminateContainer(c.container)
}

var (
	shared     *Container
	skipReason error
)

// RunPackage is the body of a TestMain: it starts one container for the whole test package,
// runs the tests and removes the container. Tests call CreateWrapper, which skips them when
// no container could be started.
func RunPackage(m *testing.M) int {
	flag.Parse()
	ctx := context.Background()

	container, err := StartContainer(ctx)
	if err != nil {
		skipReason = err
		return m.Run()
	}

	shared = container
	defer func() { _ = container.Terminate() }()

	return m.Run()
}

// SharedDSN returns the DSN of the package container or skips the test.
func SharedDSN(t testing.TB) string {
	t.Helper()

	if shared == nil {
		if skipReason == nil {
			skipReason = ErrSkipped
		}
		t.Skipf("no postgres container: %v", skipReason)
	}

	return shared.DSN
}

func adapterTypeFromEnv() string {
	return os.Getenv("ADAPTER_TYPE")
}
