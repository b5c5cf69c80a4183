package cmd

import (
	"fmt"

	"github.com/dbsmedya/relcheck/internal/report"
	"github.com/dbsmedya/relcheck/internal/schema"
	"github.com/spf13/cobra"
)

var relationshipsTable string

var relationshipsCmd = &cobra.Command{
	Use:   "relationships",
	Short: "List declared relationships and their inverses",
	Long: `Relationships lists every relationship declared in the configuration
file with its key field and both traversal directions. No database access is
needed.

Example:
  relcheck relationships --config relcheck.yaml
  relcheck relationships --config relcheck.yaml --table Lys`,
	RunE: runRelationships,
}

func init() {
	relationshipsCmd.Flags().StringVarP(&relationshipsTable, "table", "t", "",
		"Only show relationships starting at this table, in either direction")

	rootCmd.AddCommand(relationshipsCmd)
}

func runRelationships(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := schema.BuildFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to build relationships: %w", err)
	}

	w := report.NewWriter(outputWriter, false)

	if relationshipsTable == "" {
		if s.Len() == 0 {
			fmt.Fprintf(outputWriter, "No relationships defined in %s\n", GetConfigFile())
			return nil
		}
		w.WriteRelationships(s.All())
		return nil
	}

	rels := s.RelationshipsFor(relationshipsTable)
	if len(rels) == 0 {
		fmt.Fprintf(outputWriter, "No relationships start at %s\n", relationshipsTable)
		return nil
	}
	fmt.Fprintf(outputWriter, "Relationships starting at %s:\n", relationshipsTable)
	for i, r := range rels {
		fmt.Fprintf(outputWriter, "%d. %s [%s]\n", i+1, r, r.Direction)
	}
	return nil
}
