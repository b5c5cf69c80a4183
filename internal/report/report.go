// Package report renders relationship resolution results for humans.
//
// Each relationship produces one line carrying its name, key field,
// direction, related table, result count and the global IDs it resolved to,
// which is enough to spot two relationships returning the same record.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/relcheck/internal/resolver"
	"github.com/dbsmedya/relcheck/internal/schema"
	"github.com/dbsmedya/relcheck/internal/types"
)

// Writer prints reports to an io.Writer.
type Writer struct {
	out      io.Writer
	colorize bool
}

// NewWriter creates a report writer. colorize enables ANSI highlighting of
// collisions and should only be set for terminals.
func NewWriter(out io.Writer, colorize bool) *Writer {
	return &Writer{out: out, colorize: colorize}
}

// Line formats the one-line summary of a result set.
func Line(rs resolver.RelatedResultSet) string {
	ids := rs.GlobalIDs()
	return fmt.Sprintf("Relationship: %s, key field: %s, direction: %s, related table: %s, related record count: %d, globalid: %s",
		rs.Relationship.Name,
		rs.Relationship.KeyField,
		rs.Relationship.Direction,
		rs.RelatedTable,
		rs.Count(),
		strings.Join(ids, ", "),
	)
}

// Collision is a pair of forward result sets that resolved to the same
// records although their keys differ.
type Collision struct {
	First     schema.Relationship
	FirstKey  string
	Second    schema.Relationship
	SecondKey string
	IDs       []string
}

// Collisions finds every pair of forward result sets that reach the same
// table with different keys but identical, non-empty record lists.
func Collisions(sets []resolver.RelatedResultSet) []Collision {
	var out []Collision
	for i := 0; i < len(sets); i++ {
		a := sets[i]
		if a.Relationship.Direction != schema.Forward || a.Count() == 0 {
			continue
		}
		for j := i + 1; j < len(sets); j++ {
			b := sets[j]
			if b.Relationship.Direction != schema.Forward || a.RelatedTable != b.RelatedTable || a.Key == b.Key {
				continue
			}
			if slices.Equal(a.GlobalIDs(), b.GlobalIDs()) {
				out = append(out, Collision{
					First:     a.Relationship,
					FirstKey:  a.Key,
					Second:    b.Relationship,
					SecondKey: b.Key,
					IDs:       a.GlobalIDs(),
				})
			}
		}
	}
	return out
}

// WriteRecord prints the header for a source record, the value of every key
// field involved, and one line per result set.
func (w *Writer) WriteRecord(title string, rec *types.Record, sets []resolver.RelatedResultSet) {
	if title != "" {
		w.header(title)
	}
	fmt.Fprintf(w.out, "Record: %s %s\n", rec.Table, rec.GlobalID())

	seen := make(map[string]bool)
	for _, rs := range sets {
		rel := rs.Relationship
		if rel.Direction != schema.Forward || seen[strings.ToLower(rel.KeyField)] {
			continue
		}
		seen[strings.ToLower(rel.KeyField)] = true
		v, _ := rec.Get(rel.KeyField)
		fmt.Fprintf(w.out, "  %s: %s\n", rel.KeyField, types.ToString(v))
	}

	collided := make(map[string]bool)
	collisions := Collisions(sets)
	for _, c := range collisions {
		collided[c.First.ID()] = true
		collided[c.Second.ID()] = true
	}

	for _, rs := range sets {
		line := Line(rs)
		if collided[rs.Relationship.ID()] {
			line = w.paint(color.Red, line+"  <- same records as another relationship")
		}
		fmt.Fprintln(w.out, line)
	}

	if len(collisions) == 0 {
		return
	}
	for _, c := range collisions {
		fmt.Fprintln(w.out, w.paint(color.Red, fmt.Sprintf("COLLISION: %s and %s both resolve to %s",
			c.First.Name, c.Second.Name, strings.Join(c.IDs, ", "))))
	}
}

// WriteTable prints result sets as an aligned table.
func (w *Writer) WriteTable(sets []resolver.RelatedResultSet) {
	headers := []string{"RELATIONSHIP", "KEY FIELD", "DIRECTION", "RELATED TABLE", "COUNT", "GLOBAL IDS"}
	rows := make([][]string, 0, len(sets))
	for _, rs := range sets {
		rows = append(rows, []string{
			rs.Relationship.Name,
			rs.Relationship.KeyField,
			rs.Relationship.Direction.String(),
			rs.RelatedTable,
			fmt.Sprintf("%d", rs.Count()),
			strings.Join(rs.GlobalIDs(), ", "),
		})
	}
	w.table(headers, rows)
}

// WriteRelationships lists declarations with both traversal directions.
func (w *Writer) WriteRelationships(rels []schema.Relationship) {
	headers := []string{"NAME", "SOURCE", "KEY FIELD", "TARGET", "INVERSE"}
	rows := make([][]string, 0, len(rels))
	for _, r := range rels {
		inv := r.Inverse()
		rows = append(rows, []string{r.Name, r.SourceTable, r.KeyField, r.TargetTable,
			fmt.Sprintf("%s -> %s", inv.Origin(), inv.Destination())})
	}
	w.table(headers, rows)
}

// Summary prints a closing status line.
func (w *Writer) Summary(ok bool, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if ok {
		fmt.Fprintln(w.out, w.paint(color.Green, "OK: "+msg))
		return
	}
	fmt.Fprintln(w.out, w.paint(color.Red, "FAIL: "+msg))
}

func (w *Writer) header(title string) {
	width := runewidth.StringWidth(title) + 4
	fmt.Fprintln(w.out, strings.Repeat("=", width))
	fmt.Fprintf(w.out, "  %s\n", title)
	fmt.Fprintln(w.out, strings.Repeat("=", width))
}

// table aligns columns by display width so non-ASCII table and field names
// (æ, ø, å) line up.
func (w *Writer) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	write := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i == len(cells)-1 {
				parts[i] = cell
				continue
			}
			parts[i] = runewidth.FillRight(cell, widths[i])
		}
		fmt.Fprintln(w.out, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	write(headers)
	for _, row := range rows {
		write(row)
	}
}

func (w *Writer) paint(c color.Color, s string) string {
	if !w.colorize {
		return s
	}
	return c.Sprint(s)
}
