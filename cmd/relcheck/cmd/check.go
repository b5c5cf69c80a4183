package cmd

import (
	"fmt"
	"sort"

	"github.com/dbsmedya/relcheck/internal/verifier"
	"github.com/spf13/cobra"
)

var (
	checkNames          []string
	checkNoFailFindings bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify relationship resolution across every record",
	Long: `Check resolves every relationship of every record in the loaded tables
and reports inconsistencies.

Checks performed:
  - collision: two relationships to the same table with different keys
    resolving to the same records
  - roundtrip: forward hits that the inverse lookup does not return, and
    inverse hits that the forward lookup does not return
  - idempotence: results that change between two identical calls
Ambiguous key matches are reported as integrity findings.

Example:
  relcheck check --config relcheck.yaml --checks collision,roundtrip`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringSliceVar(&checkNames, "checks", nil,
		"Checks to run (collision, roundtrip, idempotence), default from config")
	checkCmd.Flags().BoolVar(&checkNoFailFindings, "no-fail", false,
		"Exit successfully even when findings are reported")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	names := checkNames
	if len(names) == 0 {
		names = s.cfg.Checks.Names()
	}
	checks, err := verifier.ParseChecks(names)
	if err != nil {
		return err
	}

	v, err := verifier.NewVerifier(s.resolver, checks, s.log)
	if err != nil {
		return err
	}

	stats, findings, err := v.Verify(s.ctx)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	w := newReportWriter()
	for _, f := range findings {
		fmt.Fprintln(outputWriter, f.String())
	}
	if len(findings) > 0 {
		fmt.Fprintln(outputWriter)
	}

	byCheck := make([]string, 0, len(stats.ByCheck))
	for c, n := range stats.ByCheck {
		byCheck = append(byCheck, fmt.Sprintf("%s=%d", c, n))
	}
	sort.Strings(byCheck)

	fmt.Fprintf(outputWriter, "Records checked: %d\n", stats.RecordsChecked)
	fmt.Fprintf(outputWriter, "Resolutions:     %d\n", stats.Resolutions)
	if len(byCheck) > 0 {
		fmt.Fprintf(outputWriter, "Findings:        %d %v\n", stats.Findings, byCheck)
	} else {
		fmt.Fprintf(outputWriter, "Findings:        %d\n", stats.Findings)
	}

	if stats.Findings == 0 {
		w.Summary(true, "no inconsistencies found")
		return nil
	}
	w.Summary(false, "%d inconsistencies found", stats.Findings)
	if s.cfg.Checks.FailOnFindings && !checkNoFailFindings {
		return fmt.Errorf("verification reported %d finding(s)", stats.Findings)
	}
	return nil
}
