// Package verifier checks relationship resolution for consistency across a
// whole snapshot: independent key fields, bidirectional agreement and
// repeatable results.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dbsmedya/relcheck/internal/logger"
	"github.com/dbsmedya/relcheck/internal/report"
	"github.com/dbsmedya/relcheck/internal/resolver"
	"github.com/dbsmedya/relcheck/internal/schema"
	"github.com/dbsmedya/relcheck/internal/types"
)

// Check names a consistency check.
type Check string

const (
	// CheckCollision flags two relationships to the same table resolving to
	// identical records although their key fields hold different values.
	CheckCollision Check = "collision"
	// CheckRoundTrip flags forward hits the inverse lookup does not return, and vice versa.
	CheckRoundTrip Check = "roundtrip"
	// CheckIdempotence flags records whose results change between two identical calls.
	CheckIdempotence Check = "idempotence"
	// CheckIntegrity is reported for ambiguous matches met while running the other checks.
	CheckIntegrity Check = "integrity"
)

// Finding describes one inconsistency.
type Finding struct {
	Check   Check
	Table   string
	Record  string // global id of the record the check started from
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s %s: %s", f.Check, f.Table, f.Record, f.Message)
}

// Stats summarizes a verification run.
type Stats struct {
	RecordsChecked int
	Resolutions    int
	Findings       int
	ByCheck        map[Check]int
}

// Verifier runs the enabled checks over every record of every table that
// takes part in a relationship.
type Verifier struct {
	resolver *resolver.Resolver
	checks   []Check
	logger   *logger.Logger
}

// ParseChecks converts configured check names.
func ParseChecks(names []string) ([]Check, error) {
	checks := make([]Check, 0, len(names))
	for _, n := range names {
		switch c := Check(strings.ToLower(n)); c {
		case CheckCollision, CheckRoundTrip, CheckIdempotence:
			checks = append(checks, c)
		default:
			return nil, fmt.Errorf("unsupported check: %s", n)
		}
	}
	return checks, nil
}

// NewVerifier creates a verifier. An empty check list enables every check.
func NewVerifier(r *resolver.Resolver, checks []Check, log *logger.Logger) (*Verifier, error) {
	if r == nil {
		return nil, fmt.Errorf("resolver is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	if len(checks) == 0 {
		checks = []Check{CheckCollision, CheckRoundTrip, CheckIdempotence}
	}
	return &Verifier{resolver: r, checks: checks, logger: log}, nil
}

func (v *Verifier) enabled(c Check) bool {
	return slices.Contains(v.checks, c)
}

// Verify runs the checks and returns every finding. The error is non-nil
// only for configuration problems or cancellation; inconsistencies are
// findings.
func (v *Verifier) Verify(ctx context.Context) (*Stats, []Finding, error) {
	stats := &Stats{ByCheck: make(map[Check]int)}
	var findings []Finding

	add := func(f Finding) {
		findings = append(findings, f)
		stats.Findings++
		stats.ByCheck[f.Check]++
		v.logger.WithTable(f.Table).Warnf("%s check failed for %s: %s", f.Check, f.Record, f.Message)
	}

	snap := v.resolver.Snapshot()
	tables := v.resolver.Schema().Tables()
	v.logger.Infof("Starting verification (checks=%v) over %d tables", v.checks, len(tables))

	for _, name := range tables {
		table, err := snap.Table(name)
		if err != nil {
			return stats, findings, err
		}
		rels := v.resolver.RelationshipsFor(name)

		for _, rec := range table.Records() {
			if err := ctx.Err(); err != nil {
				return stats, findings, fmt.Errorf("verification interrupted: %w", err)
			}
			stats.RecordsChecked++

			results, integrity, err := v.resolveRecord(name, rec, rels, stats)
			if err != nil {
				return stats, findings, err
			}
			for _, f := range integrity {
				add(f)
			}

			if v.enabled(CheckIdempotence) {
				again, _, err := v.resolveRecord(name, rec, rels, stats)
				if err != nil || !sameResults(results, again) {
					add(Finding{Check: CheckIdempotence, Table: name, Record: rec.GlobalID(),
						Message: "second resolution returned different results"})
				}
			}
			if v.enabled(CheckCollision) {
				for _, f := range collisions(name, rec, results) {
					add(f)
				}
			}
			if v.enabled(CheckRoundTrip) {
				for _, f := range v.roundTrip(name, rec, results, stats) {
					add(f)
				}
			}
		}
	}

	v.logger.Infof("Verification complete: %d records checked, %d resolutions, %d findings",
		stats.RecordsChecked, stats.Resolutions, stats.Findings)

	return stats, findings, nil
}

func (v *Verifier) resolve(table string, rec *types.Record, rels []schema.Relationship, stats *Stats) ([]resolver.RelatedResultSet, error) {
	stats.Resolutions++
	return v.resolver.ResolveRelated(table, rec, rels)
}

// resolveRecord resolves every relationship of rec. When a key is ambiguous
// it falls back to one relationship at a time: the ambiguous ones become
// integrity findings and the rest are still returned for checking.
func (v *Verifier) resolveRecord(table string, rec *types.Record, rels []schema.Relationship, stats *Stats) ([]resolver.RelatedResultSet, []Finding, error) {
	results, err := v.resolve(table, rec, rels, stats)
	if err == nil {
		return results, nil, nil
	}
	if !errors.Is(err, resolver.ErrDataIntegrity) {
		return nil, nil, err
	}
	results, findings := v.resolveEach(table, rec, rels, stats)
	return results, findings, nil
}

func (v *Verifier) resolveEach(table string, rec *types.Record, rels []schema.Relationship, stats *Stats) ([]resolver.RelatedResultSet, []Finding) {
	var results []resolver.RelatedResultSet
	var findings []Finding
	for _, rel := range rels {
		rs, err := v.resolve(table, rec, []schema.Relationship{rel}, stats)
		if err != nil {
			findings = append(findings, Finding{Check: CheckIntegrity, Table: table, Record: rec.GlobalID(), Message: err.Error()})
			continue
		}
		results = append(results, rs...)
	}
	return results, findings
}

// collisions turns report.Collisions into findings. Identical non-empty
// results are only legitimate when both key fields hold the same value.
func collisions(table string, rec *types.Record, results []resolver.RelatedResultSet) []Finding {
	var findings []Finding
	for _, c := range report.Collisions(results) {
		findings = append(findings, Finding{
			Check:  CheckCollision,
			Table:  table,
			Record: rec.GlobalID(),
			Message: fmt.Sprintf("%s (%s=%s) and %s (%s=%s) both resolve to %s",
				c.First.Name, c.First.KeyField, c.FirstKey,
				c.Second.Name, c.Second.KeyField, c.SecondKey,
				strings.Join(c.IDs, ", ")),
		})
	}
	return findings
}

// roundTrip follows each hit back through the inverse relationship and
// expects to arrive at rec again.
func (v *Verifier) roundTrip(table string, rec *types.Record, results []resolver.RelatedResultSet, stats *Stats) []Finding {
	var findings []Finding
	for _, rs := range results {
		inverse := rs.Relationship.Inverse()
		for _, related := range rs.Records {
			back, err := v.resolve(rs.RelatedTable, related, []schema.Relationship{inverse}, stats)
			if err != nil {
				check := CheckRoundTrip
				if errors.Is(err, resolver.ErrDataIntegrity) {
					check = CheckIntegrity
				}
				findings = append(findings, Finding{Check: check, Table: table, Record: rec.GlobalID(), Message: err.Error()})
				continue
			}
			if !slices.Contains(back[0].Records, rec) {
				findings = append(findings, Finding{
					Check:  CheckRoundTrip,
					Table:  table,
					Record: rec.GlobalID(),
					Message: fmt.Sprintf("%s %s reaches %s %s, but %s from %s does not return it",
						rs.Relationship.Name, rs.Relationship.Direction, rs.RelatedTable, related.GlobalID(),
						inverse.Direction, related.GlobalID()),
				})
			}
		}
	}
	return findings
}

func sameResults(a, b []resolver.RelatedResultSet) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Relationship != b[i].Relationship || a[i].Key != b[i].Key || !slices.Equal(a[i].Records, b[i].Records) {
			return false
		}
	}
	return true
}
