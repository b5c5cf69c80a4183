package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateConfigOnly bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and load every declared table",
	Long: `Validate checks the configuration file and loads every declared table
from the source to ensure relationships can be resolved.

Checks performed:
  - Configuration syntax and required fields
  - Relationship declarations (known tables, unique names and key fields)
  - Database connectivity
  - Table existence and global ID column
  - Duplicate global IDs

Example:
  relcheck validate --config relcheck.yaml`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateConfigOnly, "config-only", false,
		"Only validate the configuration file, without connecting")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := newReportWriter()
	fmt.Fprintf(outputWriter, "Config file:   %s\n", GetConfigFile())
	fmt.Fprintf(outputWriter, "Tables:        %d\n", len(cfg.Tables))
	fmt.Fprintf(outputWriter, "Relationships: %d\n", len(cfg.Relationships))
	fmt.Fprintf(outputWriter, "Probes:        %d\n\n", len(cfg.Probes))

	if validateConfigOnly {
		w.Summary(true, "configuration is valid")
		return nil
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	warnings := 0
	for _, name := range s.snapshot.Names() {
		tbl, err := s.snapshot.Table(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(outputWriter, "--- Table: %s ---\n", name)
		fmt.Fprintf(outputWriter, "Records:   %d\n", tbl.Len())
		fmt.Fprintf(outputWriter, "Global ID: %s\n", tbl.IDField)
		if dups := tbl.DuplicateIDs(); len(dups) > 0 {
			fmt.Fprintf(outputWriter, "Duplicate global IDs: %d\n", len(dups))
			warnings++
		}
		fmt.Fprintln(outputWriter)
	}

	if warnings > 0 {
		w.Summary(false, "%d table(s) contain duplicate global IDs", warnings)
		return fmt.Errorf("validation found duplicate global IDs")
	}
	w.Summary(true, "all tables loaded")
	return nil
}
