package models

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

/*
Column Mismatch Report Usage:

The column-report command compares every table backing a model in this package
against the live database and lists columns the Go structs do not map.

	portfolio-backend column-report

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: skills ---
Found 1 columns not accounted for in model:
  - updated_at

--- Table: categories ---
All columns are accounted for in the model.

=== SUMMARY ===
Total mismatched columns across all tables: 1
*/

// All returns one zero value per persisted model, parents before children.
func All() []any {
	return []any{
		&Profile{},
		&Category{},
		&Subcategory{},
		&Skill{},
		&Experience{},
		&Education{},
		&Certification{},
		&Project{},
		&ProjectTag{},
		&ProjectMetric{},
	}
}

// GenerateModels writes gorm/gen query code for every model into outPath.
func GenerateModels(db *gorm.DB, outPath string) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	verbose := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)
	db = db.Session(&gorm.Session{
		Logger:                 verbose,
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(All()...)

	if err := GenerateColumnMismatchReport(db, os.Stdout); err != nil {
		return err
	}

	g.Execute()
	fmt.Println("Model generation complete!")
	return nil
}

// GenerateColumnMismatchReport writes a report of database columns that aren't accounted for in Go models
func GenerateColumnMismatchReport(db *gorm.DB, w io.Writer) error {
	fmt.Fprintln(w, "=== COLUMN MISMATCH REPORT ===")

	cache := &sync.Map{}
	totalMismatches := 0

	for _, model := range All() {
		s, err := schema.Parse(model, cache, db.NamingStrategy)
		if err != nil {
			return fmt.Errorf("error parsing model %T: %w", model, err)
		}
		fmt.Fprintf(w, "\n--- Table: %s ---\n", s.Table)

		dbColumns, err := getTableColumns(db, s.Table)
		if err != nil {
			if strings.Contains(err.Error(), "does not exist") {
				fmt.Fprintln(w, "Table does not exist yet (run the migrate command first)")
			} else {
				fmt.Fprintf(w, "Error getting columns for table %s: %v\n", s.Table, err)
			}
			continue
		}

		mismatches := findColumnMismatches(dbColumns, s.DBNames)
		if len(mismatches) > 0 {
			fmt.Fprintf(w, "Found %d columns not accounted for in model:\n", len(mismatches))
			for _, col := range mismatches {
				fmt.Fprintf(w, "  - %s\n", col)
			}
			totalMismatches += len(mismatches)
		} else {
			fmt.Fprintln(w, "All columns are accounted for in the model.")
		}
	}

	fmt.Fprintf(w, "\n=== SUMMARY ===\n")
	fmt.Fprintf(w, "Total mismatched columns across all tables: %d\n", totalMismatches)
	return nil
}

// getTableColumns retrieves column names from a database table
func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	var columns []string
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position
	`
	if err := db.Raw(query, tableName).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", tableName)
	}
	return columns, nil
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}
	sort.Strings(mismatches)
	return mismatches
}
