package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/PedroGalveias/farms-rotator/internal/config"
	"github.com/PedroGalveias/farms-rotator/model"
)

func init() {
	databaseListCmd.Flags().Bool("include-replicas", true, "Whether to include read replicas in the listing.")
	databaseListCmd.Flags().Int("limit", 20, "The maximum number of instances to list.")
	databaseListCmd.Flags().Bool("table", false, "Whether to display the returned instances in a table or not.")

	databaseCmd.AddCommand(databaseListCmd)
}

var databaseCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the database instances managed by the provider.",
}

var databaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List database instances",
	RunE: func(command *cobra.Command, args []string) error {
		command.SilenceUsage = true

		conf, err := config.FromEnvironment()
		if err != nil {
			return err
		}

		client := model.NewClient(conf.APIBaseURL, conf.APIKey)

		includeReplicas, _ := command.Flags().GetBool("include-replicas")
		limit, _ := command.Flags().GetInt("limit")

		entries, err := client.ListPostgres(&model.ListPostgresRequest{
			IncludeReplicas: includeReplicas,
			Limit:           limit,
		})
		if err != nil {
			return errors.Wrap(err, "failed to list database instances")
		}

		outputToTable, _ := command.Flags().GetBool("table")
		if outputToTable {
			table := tablewriter.NewWriter(os.Stdout)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetHeader([]string{"ID", "NAME", "DATABASE", "PLAN", "REGION", "VERSION", "STATUS"})

			for _, entry := range entries {
				table.Append([]string{
					entry.Postgres.ID,
					entry.Postgres.Name,
					entry.Postgres.DatabaseName,
					entry.Postgres.Plan,
					entry.Postgres.Region,
					entry.Postgres.Version,
					string(entry.Postgres.Status),
				})
			}
			table.Render()

			return nil
		}

		err = printJSON(entries)
		if err != nil {
			return err
		}

		return nil
	},
}
