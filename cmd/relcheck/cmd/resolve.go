package cmd

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/relcheck/internal/schema"
	"github.com/dbsmedya/relcheck/internal/store"
	"github.com/dbsmedya/relcheck/internal/types"
	"github.com/spf13/cobra"
)

var (
	resolveTable         string
	resolveGlobalID      string
	resolveWhere         string
	resolveRelationships []string
	resolveOutput        string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the related records of a single record",
	Long: `Resolve selects one record, either by global ID or by an attribute
match, and resolves its relationships. Without --relationship every
relationship starting at the table is followed, forward and inverse.

Example:
  relcheck resolve --table OverettlinjeLys --globalid "{0B7B...}"
  relcheck resolve --table Lys --where Navn=L1 --relationship OverettlinjeLys`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveTable, "table", "t", "",
		"Table the record belongs to (required)")
	resolveCmd.Flags().StringVar(&resolveGlobalID, "globalid", "",
		"Global ID of the record")
	resolveCmd.Flags().StringVar(&resolveWhere, "where", "",
		"Select records by attribute, as field=value")
	resolveCmd.Flags().StringArrayVarP(&resolveRelationships, "relationship", "r", nil,
		"Relationship name to follow (repeatable)")
	resolveCmd.Flags().StringVarP(&resolveOutput, "output", "o", "lines",
		"Output format (lines, table)")
	resolveCmd.MarkFlagRequired("table")
	resolveCmd.MarkFlagsMutuallyExclusive("globalid", "where")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if resolveOutput != "lines" && resolveOutput != "table" {
		return fmt.Errorf("unknown output format %q", resolveOutput)
	}
	if resolveGlobalID == "" && resolveWhere == "" {
		return fmt.Errorf("one of --globalid or --where is required")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	tbl, err := s.snapshot.Table(resolveTable)
	if err != nil {
		return err
	}

	records, err := selectRecords(tbl, resolveGlobalID, resolveWhere)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no %s record matches the selection", resolveTable)
	}

	rels, err := selectRelationships(s.resolver.Schema(), resolveTable, resolveRelationships)
	if err != nil {
		return err
	}
	if len(rels) == 0 {
		rels = s.resolver.RelationshipsFor(resolveTable)
	}

	w := newReportWriter()
	for _, rec := range records {
		sets, err := s.resolver.ResolveRelated(resolveTable, rec, rels)
		if err != nil {
			return err
		}
		if resolveOutput == "table" {
			fmt.Fprintf(outputWriter, "Record: %s %s\n", rec.Table, rec.GlobalID())
			w.WriteTable(sets)
		} else {
			w.WriteRecord("", rec, sets)
		}
		fmt.Fprintln(outputWriter)
	}
	return nil
}

// selectRecords picks records by global ID or by a field=value expression.
func selectRecords(tbl *store.Table, globalID, where string) ([]*types.Record, error) {
	if globalID != "" {
		return tbl.Lookup(types.NormalizeKey(globalID)), nil
	}
	field, value, ok := strings.Cut(where, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return nil, fmt.Errorf("invalid --where %q: expected field=value", where)
	}
	return tbl.Find(field, strings.TrimSpace(value)), nil
}

// selectRelationships turns relationship names into the directions that
// start at table. A self relationship contributes both directions.
func selectRelationships(s *schema.Schema, table string, names []string) ([]schema.Relationship, error) {
	var rels []schema.Relationship
	for _, name := range names {
		rel, ok := s.Get(name)
		if !ok {
			return nil, fmt.Errorf("relationship %q not found in configuration", name)
		}
		matched := false
		if rel.Origin() == table {
			rels = append(rels, rel)
			matched = true
		}
		if inv := rel.Inverse(); inv.Origin() == table {
			rels = append(rels, inv)
			matched = true
		}
		if !matched {
			return nil, fmt.Errorf("relationship %s does not involve table %q", rel, table)
		}
	}
	return rels, nil
}
