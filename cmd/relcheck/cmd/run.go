package cmd

import (
	"fmt"

	"github.com/dbsmedya/relcheck/internal/config"
	"github.com/spf13/cobra"
)

var runProbes []string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Resolve the relationships of every configured probe",
	Long: `Run executes the probes declared in the configuration file. Each probe
selects records of a table by attribute value and resolves every relationship
those records take part in, printing one line per relationship.

Example:
  relcheck run --config relcheck.yaml
  relcheck run --config relcheck.yaml --probe overett-by-light`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runProbes, "probe", "p", nil,
		"Probe name to run (repeatable, default all)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	probes, err := selectProbes(s.cfg, runProbes)
	if err != nil {
		return err
	}
	if len(probes) == 0 {
		fmt.Fprintf(outputWriter, "No probes defined in %s\n", GetConfigFile())
		return nil
	}

	w := newReportWriter()
	failed := 0
	for _, p := range probes {
		log := s.log.WithProbe(p.Name)

		tbl, err := s.snapshot.Table(p.Table)
		if err != nil {
			return err
		}

		matches := tbl.Find(p.Field, p.Value)
		if len(matches) == 0 {
			log.Warnw("Probe matched no record", "table", p.Table, "field", p.Field, "value", p.Value)
			fmt.Fprintf(outputWriter, "Probe %s: no %s record with %s = %s\n\n", p.Name, p.Table, p.Field, p.Value)
			continue
		}

		for i, rec := range matches {
			sets, err := s.resolver.ResolveAll(rec)
			if err != nil {
				log.Errorw("Resolution failed", "globalid", rec.GlobalID(), "error", err)
				fmt.Fprintf(outputWriter, "Probe %s: %v\n\n", p.Name, err)
				failed++
				continue
			}
			title := fmt.Sprintf("Probe: %s", p.Name)
			if len(matches) > 1 {
				title = fmt.Sprintf("Probe: %s (%d of %d)", p.Name, i+1, len(matches))
			}
			w.WriteRecord(title, rec, sets)
			fmt.Fprintln(outputWriter)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d probe record(s) could not be resolved", failed)
	}
	return nil
}

// selectProbes returns the named probes, or all of them when names is empty.
func selectProbes(cfg *config.Config, names []string) ([]config.ProbeConfig, error) {
	if len(names) == 0 {
		return cfg.Probes, nil
	}
	probes := make([]config.ProbeConfig, 0, len(names))
	for _, name := range names {
		p, ok := cfg.GetProbe(name)
		if !ok {
			return nil, fmt.Errorf("probe %q not found in configuration", name)
		}
		probes = append(probes, *p)
	}
	return probes, nil
}
