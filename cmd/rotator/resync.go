package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/PedroGalveias/farms-rotator/internal/config"
	"github.com/PedroGalveias/farms-rotator/internal/dotenv"
	"github.com/PedroGalveias/farms-rotator/internal/migrate"
	"github.com/PedroGalveias/farms-rotator/internal/workflow"
	"github.com/PedroGalveias/farms-rotator/model"
)

func init() {
	resyncCmd.Flags().Bool("ignore-migration-failure", false, "Whether to finish the re-sync when the migration command fails.")
	resyncCmd.Flags().Bool("skip-migration", false, "Whether to skip running the migration command.")
}

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Refresh the local environment from the existing database and re-run migrations.",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		conf, err := config.FromEnvironment()
		if err != nil {
			return err
		}

		dotenvFile, _ := command.Flags().GetString("dotenv-file")
		env, err := dotenv.Load(dotenvFile)
		if err != nil {
			return errors.Wrap(err, "failed to load dotenv file")
		}

		migrateCommand, _ := command.Flags().GetStringSlice("migrate-command")
		ignoreMigrationFailure, _ := command.Flags().GetBool("ignore-migration-failure")
		skipMigration, _ := command.Flags().GetBool("skip-migration")

		params := workflow.ResyncFlowParams{
			SkipMigration:          skipMigration,
			IgnoreMigrationFailure: ignoreMigrationFailure,
		}

		client := model.NewClient(conf.APIBaseURL, conf.APIKey)
		runner := migrate.NewRunner(migrateCommand, logger)

		flow := workflow.NewResyncFlow(params, client, env, runner, logger)

		err = workflow.RunWorkflow(workflow.NewResyncWorkflow(flow), logger)
		if err != nil {
			return errors.Wrap(err, "re-sync failed")
		}

		return nil
	},
}
