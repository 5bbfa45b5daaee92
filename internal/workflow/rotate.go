package workflow

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/PedroGalveias/farms-rotator/internal/dotenv"
	"github.com/PedroGalveias/farms-rotator/internal/migrate"
	"github.com/PedroGalveias/farms-rotator/internal/wait"
	"github.com/PedroGalveias/farms-rotator/model"
)

// Environment variable keys pushed to the hosted service after rotation.
const (
	EnvKeyDatabaseName = "APP_DATABASE__DATABASE_NAME"
	EnvKeyDatabaseHost = "APP_DATABASE__HOST"
	EnvKeyDatabasePass = "APP_DATABASE__PASSWORD"
	EnvKeyDatabaseURL  = "DATABASE_URL"
)

// DefaultHealthPaths are the endpoints asserted healthy after a restart.
var DefaultHealthPaths = []string{"/health_check", "/farms"}

// Migrator runs the external schema migration tool against a database.
type Migrator interface {
	Run(databaseURL string) error
}

// MigrationVerifier counts the migrations recorded in the database.
type MigrationVerifier interface {
	AppliedMigrations(databaseURL string) (int64, error)
}

// NewRotateFlow creates a RotateFlow over the given client and dotenv store.
func NewRotateFlow(params RotateFlowParams, client *model.Client, env *dotenv.Store, migrator Migrator, verifier MigrationVerifier, logger logrus.FieldLogger) *RotateFlow {
	if len(params.HealthPaths) == 0 {
		params.HealthPaths = DefaultHealthPaths
	}
	return &RotateFlow{
		client:   client,
		env:      env,
		migrator: migrator,
		verifier: verifier,
		logger:   logger.WithField("flow", "rotate"),
		Params:   params,
	}
}

// RotateFlow replaces the service's database: the old instance is deleted,
// a new one provisioned, migrated, and the service repointed at it.
type RotateFlow struct {
	client   *model.Client
	env      *dotenv.Store
	migrator Migrator
	verifier MigrationVerifier
	logger   logrus.FieldLogger

	Params RotateFlowParams
	Meta   RotateFlowMeta
}

type RotateFlowParams struct {
	ServiceID      string
	ServiceBaseURL string
	CreateRequest  *model.CreatePostgresRequest

	ReadyTimeout   time.Duration
	ReadyInterval  time.Duration
	HealthTimeout  time.Duration
	HealthInterval time.Duration
	HealthPaths    []string

	UpdateDatabaseURL      bool
	SkipMigration          bool
	IgnoreMigrationFailure bool
}

type RotateFlowMeta struct {
	OldPostgresID string
	NewPostgres   *model.Postgres

	ConnectionInfo    *model.ConnectionInfo
	AppliedMigrations int64
}

// LookupDatabase finds the single existing database instance to rotate out.
func (w *RotateFlow) LookupDatabase(ctx context.Context) error {
	postgres, err := w.client.GetSinglePostgres()
	if err != nil {
		return errors.Wrap(err, "while looking up current database")
	}
	w.Meta.OldPostgresID = postgres.ID
	w.logger.Infof("Found database %s", postgres.ID)

	return nil
}

// DeleteDatabase destroys the current database instance.
func (w *RotateFlow) DeleteDatabase(ctx context.Context) error {
	w.logger.Infof("Deleting database %s", w.Meta.OldPostgresID)

	err := w.client.DeletePostgres(w.Meta.OldPostgresID)
	if err != nil {
		return errors.Wrap(err, "while deleting old database")
	}

	return nil
}

// CreateDatabase provisions the replacement instance.
func (w *RotateFlow) CreateDatabase(ctx context.Context) error {
	w.logger.Info("Creating new database")

	postgres, err := w.client.CreatePostgres(w.Params.CreateRequest)
	if err != nil {
		return errors.Wrap(err, "while creating new database")
	}
	w.Meta.NewPostgres = postgres
	w.logger.Infof("Created database %s", postgres.ID)

	return nil
}

// WaitForDatabaseReady polls the new instance until it is available.
func (w *RotateFlow) WaitForDatabaseReady(ctx context.Context) error {
	err := wait.ForPostgresReady(w.client, w.Meta.NewPostgres.ID, w.Params.ReadyTimeout, w.Params.ReadyInterval, w.logger)
	if err != nil {
		return errors.Wrap(err, "while waiting for new database")
	}

	return nil
}

// FetchConnectionInfo retrieves the new instance's credentials.
func (w *RotateFlow) FetchConnectionInfo(ctx context.Context) error {
	w.logger.Info("Fetching database connection info")

	connectionInfo, err := w.client.GetPostgresConnectionInfo(w.Meta.NewPostgres.ID)
	if err != nil {
		return errors.Wrap(err, "while fetching connection info")
	}
	w.Meta.ConnectionInfo = connectionInfo

	return nil
}

// PersistConnectionString writes the external connection string to the
// local dotenv store.
func (w *RotateFlow) PersistConnectionString(ctx context.Context) error {
	w.logger.Infof("Storing connection string in %s", w.env.Path())

	err := w.env.SetDatabaseURL(w.Meta.ConnectionInfo.ExternalConnectionString)
	if err != nil {
		return errors.Wrap(err, "while persisting connection string")
	}

	return nil
}

// RunMigration runs the schema migration tool against the new database.
// Failure aborts the rotation unless IgnoreMigrationFailure is set.
func (w *RotateFlow) RunMigration(ctx context.Context) error {
	return runMigration(w.migrator, w.Meta.ConnectionInfo.ExternalConnectionString, w.Params.IgnoreMigrationFailure, w.logger)
}

// VerifyMigration counts the recorded migrations. Verification problems are
// logged but do not fail the rotation; the migration tool already reported
// its own result.
func (w *RotateFlow) VerifyMigration(ctx context.Context) error {
	count, err := w.verifier.AppliedMigrations(w.Meta.ConnectionInfo.ExternalConnectionString)
	if err != nil {
		w.logger.WithError(err).Warn("Unable to verify applied migrations")
		return nil
	}
	w.Meta.AppliedMigrations = count
	w.logger.Infof("Database has %d applied migrations", count)

	return nil
}

// UpdateServiceEnvVars pushes the new database coordinates to the hosted
// service, one key per call. A mid-sequence failure leaves earlier keys
// applied.
func (w *RotateFlow) UpdateServiceEnvVars(ctx context.Context) error {
	updates := []model.EnvVar{
		{Key: EnvKeyDatabaseName, Value: w.Meta.NewPostgres.DatabaseName},
		{Key: EnvKeyDatabaseHost, Value: w.Meta.NewPostgres.ID},
		{Key: EnvKeyDatabasePass, Value: w.Meta.ConnectionInfo.Password},
	}
	if w.Params.UpdateDatabaseURL {
		updates = append(updates, model.EnvVar{Key: EnvKeyDatabaseURL, Value: w.Meta.ConnectionInfo.InternalConnectionString})
	}

	for _, update := range updates {
		w.logger.Infof("Updating %q environment variable", update.Key)
		err := w.client.UpdateServiceEnvVar(w.Params.ServiceID, update.Key, update.Value)
		if err != nil {
			return errors.Wrapf(err, "while updating env var %s", update.Key)
		}
	}

	return nil
}

// RestartService triggers a restart of the hosted service.
func (w *RotateFlow) RestartService(ctx context.Context) error {
	w.logger.Info("Triggering service restart")

	err := w.client.RestartService(w.Params.ServiceID)
	if err != nil {
		return errors.Wrap(err, "while restarting service")
	}

	return nil
}

// WaitForServiceHealthy polls the first health endpoint until it responds
// with HTTP 200.
func (w *RotateFlow) WaitForServiceHealthy(ctx context.Context) error {
	url := w.Params.ServiceBaseURL + w.Params.HealthPaths[0]

	err := wait.ForServiceHealthy(url, w.Params.HealthTimeout, w.Params.HealthInterval, w.logger)
	if err != nil {
		return errors.Wrap(err, "while waiting for service to become healthy")
	}

	return nil
}

// CheckEndpoints asserts every health endpoint returns HTTP 200.
func (w *RotateFlow) CheckEndpoints(ctx context.Context) error {
	for _, path := range w.Params.HealthPaths {
		url := w.Params.ServiceBaseURL + path

		resp, err := http.Get(url)
		if err != nil {
			return errors.Wrapf(err, "while checking %s", url)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("endpoint %s returned status %d", url, resp.StatusCode)
		}
		w.logger.Infof("Endpoint %s healthy", url)
	}

	return nil
}

func runMigration(migrator Migrator, databaseURL string, ignoreFailure bool, logger logrus.FieldLogger) error {
	logger.Info("Migrating database")

	err := migrator.Run(databaseURL)
	if err == nil {
		return nil
	}

	runErr := &migrate.RunError{}
	if errors.As(err, &runErr) {
		logger.Errorf("Migration failed with exit code %d", runErr.ExitCode)
		logger.Errorf("Output: %s", runErr.Stdout)
		logger.Errorf("Error: %s", runErr.Stderr)
	}

	if ignoreFailure {
		logger.Warn("Continuing despite migration failure")
		return nil
	}

	return errors.Wrap(err, "while running migration")
}
