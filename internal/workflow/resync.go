package workflow

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/PedroGalveias/farms-rotator/internal/dotenv"
	"github.com/PedroGalveias/farms-rotator/model"
)

// NewResyncFlow creates a ResyncFlow over the given client and dotenv store.
func NewResyncFlow(params ResyncFlowParams, client *model.Client, env *dotenv.Store, migrator Migrator, logger logrus.FieldLogger) *ResyncFlow {
	return &ResyncFlow{
		client:   client,
		env:      env,
		migrator: migrator,
		logger:   logger.WithField("flow", "resync"),
		Params:   params,
	}
}

// ResyncFlow refreshes the local environment from the existing database and
// re-runs the migration tool. It never mutates remote resources.
type ResyncFlow struct {
	client   *model.Client
	env      *dotenv.Store
	migrator Migrator
	logger   logrus.FieldLogger

	Params ResyncFlowParams
	Meta   ResyncFlowMeta
}

type ResyncFlowParams struct {
	SkipMigration          bool
	IgnoreMigrationFailure bool
}

type ResyncFlowMeta struct {
	PostgresID     string
	ConnectionInfo *model.ConnectionInfo
}

// LookupDatabase finds the single existing database instance.
func (w *ResyncFlow) LookupDatabase(ctx context.Context) error {
	postgres, err := w.client.GetSinglePostgres()
	if err != nil {
		return errors.Wrap(err, "while looking up database")
	}
	w.Meta.PostgresID = postgres.ID
	w.logger.Infof("Found database %s", postgres.ID)

	return nil
}

// FetchConnectionInfo retrieves the instance's credentials.
func (w *ResyncFlow) FetchConnectionInfo(ctx context.Context) error {
	w.logger.Info("Fetching database connection info")

	connectionInfo, err := w.client.GetPostgresConnectionInfo(w.Meta.PostgresID)
	if err != nil {
		return errors.Wrap(err, "while fetching connection info")
	}
	w.Meta.ConnectionInfo = connectionInfo

	return nil
}

// PersistConnectionString writes the external connection string to the
// local dotenv store.
func (w *ResyncFlow) PersistConnectionString(ctx context.Context) error {
	w.logger.Infof("Storing connection string in %s", w.env.Path())

	err := w.env.SetDatabaseURL(w.Meta.ConnectionInfo.ExternalConnectionString)
	if err != nil {
		return errors.Wrap(err, "while persisting connection string")
	}

	return nil
}

// RunMigration runs the schema migration tool against the database.
func (w *ResyncFlow) RunMigration(ctx context.Context) error {
	return runMigration(w.migrator, w.Meta.ConnectionInfo.ExternalConnectionString, w.Params.IgnoreMigrationFailure, w.logger)
}
