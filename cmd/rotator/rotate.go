package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/PedroGalveias/farms-rotator/internal/config"
	"github.com/PedroGalveias/farms-rotator/internal/dotenv"
	"github.com/PedroGalveias/farms-rotator/internal/migrate"
	"github.com/PedroGalveias/farms-rotator/internal/workflow"
	"github.com/PedroGalveias/farms-rotator/model"
)

func init() {
	rotateCmd.Flags().String("name", "farms-db", "The name of the new database instance.")
	rotateCmd.Flags().String("database-name", "farms", "The name of the database inside the instance.")
	rotateCmd.Flags().String("database-user", "farmer", "The database user.")
	rotateCmd.Flags().String("plan", "free", "The provisioning plan of the new instance.")
	rotateCmd.Flags().String("region", "frankfurt", "The region of the new instance.")
	rotateCmd.Flags().String("postgres-version", "18", "The Postgres major version of the new instance.")
	rotateCmd.Flags().Duration("ready-timeout", 5*time.Minute, "How long to wait for the new database to become available.")
	rotateCmd.Flags().Duration("ready-interval", 10*time.Second, "How often to poll the new database's status.")
	rotateCmd.Flags().Duration("health-timeout", 1*time.Minute, "How long to wait for the restarted service to become healthy.")
	rotateCmd.Flags().Duration("health-interval", 5*time.Second, "How often to poll the restarted service's health endpoint.")
	rotateCmd.Flags().Bool("update-database-url", false, "Whether to also push DATABASE_URL (internal connection string) to the service.")
	rotateCmd.Flags().Bool("ignore-migration-failure", false, "Whether to continue the rotation when the migration command fails.")
	rotateCmd.Flags().Bool("skip-migration", false, "Whether to skip running the migration command.")
	rotateCmd.Flags().Bool("dry-run", false, "When set, print the create request and exit without calling the provider.")
}

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Delete the current database, provision a replacement and repoint the service at it.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		conf, err := config.FromEnvironment()
		if err != nil {
			return err
		}
		err = conf.ValidateForRotation()
		if err != nil {
			return err
		}

		name, _ := command.Flags().GetString("name")
		databaseName, _ := command.Flags().GetString("database-name")
		databaseUser, _ := command.Flags().GetString("database-user")
		plan, _ := command.Flags().GetString("plan")
		region, _ := command.Flags().GetString("region")
		version, _ := command.Flags().GetString("postgres-version")

		createRequest := &model.CreatePostgresRequest{
			Name:          name,
			DatabaseName:  databaseName,
			DatabaseUser:  databaseUser,
			Plan:          plan,
			Region:        region,
			Version:       version,
			EnvironmentID: conf.EnvironmentID,
			OwnerID:       conf.OwnerID,
			IPAllowList: []model.CIDRBlockAndDescription{
				{CIDRBlock: "0.0.0.0/0", Description: "everywhere"},
			},
		}

		dryRun, _ := command.Flags().GetBool("dry-run")
		if dryRun {
			err = printJSON(createRequest)
			if err != nil {
				return errors.Wrap(err, "failed to print create request")
			}

			return nil
		}

		dotenvFile, _ := command.Flags().GetString("dotenv-file")
		env, err := dotenv.Load(dotenvFile)
		if err != nil {
			return errors.Wrap(err, "failed to load dotenv file")
		}

		migrateCommand, _ := command.Flags().GetStringSlice("migrate-command")
		readyTimeout, _ := command.Flags().GetDuration("ready-timeout")
		readyInterval, _ := command.Flags().GetDuration("ready-interval")
		healthTimeout, _ := command.Flags().GetDuration("health-timeout")
		healthInterval, _ := command.Flags().GetDuration("health-interval")
		updateDatabaseURL, _ := command.Flags().GetBool("update-database-url")
		ignoreMigrationFailure, _ := command.Flags().GetBool("ignore-migration-failure")
		skipMigration, _ := command.Flags().GetBool("skip-migration")

		params := workflow.RotateFlowParams{
			ServiceID:              conf.ServiceID,
			ServiceBaseURL:         conf.ServiceBaseURL,
			CreateRequest:          createRequest,
			ReadyTimeout:           readyTimeout,
			ReadyInterval:          readyInterval,
			HealthTimeout:          healthTimeout,
			HealthInterval:         healthInterval,
			UpdateDatabaseURL:      updateDatabaseURL,
			SkipMigration:          skipMigration,
			IgnoreMigrationFailure: ignoreMigrationFailure,
		}

		client := model.NewClient(conf.APIBaseURL, conf.APIKey)
		runner := migrate.NewRunner(migrateCommand, logger)

		flow := workflow.NewRotateFlow(params, client, env, runner, migrate.NewVerifier(), logger)

		err = workflow.RunWorkflow(workflow.NewRotateWorkflow(flow), logger)
		if err != nil {
			return errors.Wrap(err, "rotation failed")
		}

		logger.Infof("Rotation complete; new database is %s", flow.Meta.NewPostgres.ID)

		return nil
	},
}
