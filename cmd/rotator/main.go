package main

import (
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PedroGalveias/farms-rotator/internal/migrate"
)

var logger = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "rotator",
	Short: "Operate the managed database behind the farms service.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		if debug {
			logger.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("dotenv-file", ".env", "The dotenv file holding the database connection string.")
	rootCmd.PersistentFlags().StringSlice("migrate-command", migrate.DefaultCommand, "The schema migration command to run.")
	rootCmd.PersistentFlags().Bool("debug", false, "Whether to output debug logs.")

	rootCmd.AddCommand(rotateCmd)
	rootCmd.AddCommand(resyncCmd)
	rootCmd.AddCommand(databaseCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "    ")
	return encoder.Encode(data)
}
