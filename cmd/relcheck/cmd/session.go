package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/dbsmedya/relcheck/internal/config"
	"github.com/dbsmedya/relcheck/internal/database"
	"github.com/dbsmedya/relcheck/internal/logger"
	"github.com/dbsmedya/relcheck/internal/report"
	"github.com/dbsmedya/relcheck/internal/resolver"
	"github.com/dbsmedya/relcheck/internal/schema"
	"github.com/dbsmedya/relcheck/internal/store"
)

// session holds everything a command needs once the snapshot is loaded.
type session struct {
	ctx      context.Context
	stop     func()
	cfg      *config.Config
	log      *logger.Logger
	db       *database.Manager
	snapshot *store.Snapshot
	resolver *resolver.Resolver
}

// loadConfig reads the config file, applies CLI overrides and validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat, overrides.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession loads configuration, connects to the source, loads every
// declared table and builds the resolver.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rels, err := schema.BuildFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build relationships: %w", err)
	}

	ctx, stop := database.SetupSignalHandler(func(sig os.Signal) {
		log.Warnw("Received signal, cancelling", "signal", sig.String())
	})

	s := &session{ctx: ctx, stop: stop, cfg: cfg, log: log}

	s.db = database.NewManager(&cfg.Source)
	if err := s.db.Connect(ctx); err != nil {
		s.Close()
		return nil, err
	}

	loader, err := store.NewLoader(s.db.DB, s.db.Dialect(), log)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.snapshot, err = loader.LoadSnapshot(ctx, cfg.Tables)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load tables: %w", err)
	}

	s.resolver, err = resolver.New(s.snapshot, rels, log)
	if err != nil {
		s.Close()
		return nil, err
	}

	log.Debugw("Session ready",
		"tables", len(cfg.Tables),
		"relationships", rels.Len(),
	)
	return s, nil
}

// Close releases the connection and signal registration.
func (s *session) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warnw("Failed to close database", "error", err)
		}
	}
	s.stop()
	_ = s.log.Sync()
}

func newReportWriter() *report.Writer {
	return report.NewWriter(outputWriter, !GetCLIOverrides().NoColor && outputWriter == os.Stdout)
}
