package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpupo63/portfolio-backend/database"
	"github.com/rpupo63/portfolio-backend/models"
)

//nolint:gochecknoglobals // Cobra boilerplate
var queryOutPath string

//nolint:gochecknoglobals // Cobra boilerplate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
}

//nolint:gochecknoglobals // Cobra boilerplate
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		return database.RunMigrations(database.ConfigFromMap(c).URL())
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back the given number of migrations (default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}
		c, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		return database.MigrateSteps(database.ConfigFromMap(c).URL(), -steps)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var generateModelsCmd = &cobra.Command{
	Use:   "generate-models",
	Short: "Generate gorm/gen query helpers for every model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		db, err := openDatabase(cmd.Context(), c)
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Generating models and query helpers...")
		return models.GenerateModels(db.GORM(), queryOutPath)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var columnReportCmd = &cobra.Command{
	Use:   "column-report",
	Short: "Report database columns that no model field maps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		db, err := openDatabase(cmd.Context(), c)
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Generating column mismatch report...")
		return models.GenerateColumnMismatchReport(db.GORM(), os.Stdout)
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	generateModelsCmd.Flags().StringVar(&queryOutPath, "out", "./query", "directory the generated query code is written to")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd, generateModelsCmd, columnReportCmd)
}
