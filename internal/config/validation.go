package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/relcheck/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
// All problems are collected so a single run reports every mistake.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateSource()...)
	errors = append(errors, c.validateTables()...)
	errors = append(errors, c.validateRelationships()...)
	errors = append(errors, c.validateProbes()...)
	errors = append(errors, c.validateChecks()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateSource() ValidationErrors {
	var errors ValidationErrors
	db := &c.Source

	switch db.Driver {
	case "sqlite", "":
		if db.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "source.path",
				Message: "path is required for the sqlite driver",
			})
		}
	case "mysql":
		if db.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "source.host",
				Message: "host is required for the mysql driver",
			})
		}
		if db.Port <= 0 || db.Port > 65535 {
			errors = append(errors, ValidationError{
				Field:   "source.port",
				Message: "port must be between 1 and 65535",
			})
		}
		if db.User == "" {
			errors = append(errors, ValidationError{
				Field:   "source.user",
				Message: "user is required for the mysql driver",
			})
		}
		if db.Database == "" {
			errors = append(errors, ValidationError{
				Field:   "source.database",
				Message: "database name is required for the mysql driver",
			})
		}
		validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
		if !validTLS[db.TLS] {
			errors = append(errors, ValidationError{
				Field:   "source.tls",
				Message: "tls must be 'disable', 'preferred', or 'required'",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "source.driver",
			Message: "driver must be 'sqlite' or 'mysql'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "source.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateTables() ValidationErrors {
	var errors ValidationErrors

	if len(c.Tables) == 0 {
		return append(errors, ValidationError{
			Field:   "tables",
			Message: "at least one table must be declared",
		})
	}

	seen := make(map[string]bool)
	for i, t := range c.Tables {
		prefix := fmt.Sprintf("tables[%d]", i)
		if !sqlutil.IsValidIdentifier(t.Name) {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("invalid table name %q", t.Name),
			})
		}
		if !sqlutil.IsValidIdentifier(t.IDField()) {
			errors = append(errors, ValidationError{
				Field:   prefix + ".global_id_field",
				Message: fmt.Sprintf("invalid column name %q", t.IDField()),
			})
		}
		if seen[t.Name] {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("table %q declared more than once", t.Name),
			})
		}
		seen[t.Name] = true
	}

	return errors
}

func (c *Config) validateRelationships() ValidationErrors {
	var errors ValidationErrors

	names := make(map[string]bool)
	keys := make(map[string]string)
	for i, rel := range c.Relationships {
		prefix := fmt.Sprintf("relationships[%d]", i)

		if rel.Name == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: "name is required",
			})
		} else if names[rel.Name] {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("relationship %q declared more than once", rel.Name),
			})
		}
		names[rel.Name] = true

		if _, ok := c.GetTable(rel.SourceTable); !ok {
			errors = append(errors, ValidationError{
				Field:   prefix + ".source_table",
				Message: fmt.Sprintf("table %q is not declared under tables", rel.SourceTable),
			})
		}
		if _, ok := c.GetTable(rel.TargetTable); !ok {
			errors = append(errors, ValidationError{
				Field:   prefix + ".target_table",
				Message: fmt.Sprintf("table %q is not declared under tables", rel.TargetTable),
			})
		}

		if !sqlutil.IsValidIdentifier(rel.KeyField) {
			errors = append(errors, ValidationError{
				Field:   prefix + ".key_field",
				Message: fmt.Sprintf("invalid key field %q", rel.KeyField),
			})
			continue
		}

		triple := strings.ToLower(rel.SourceTable + "\x00" + rel.TargetTable + "\x00" + rel.KeyField)
		if other, dup := keys[triple]; dup {
			errors = append(errors, ValidationError{
				Field:   prefix + ".key_field",
				Message: fmt.Sprintf("key field %q already links %s to %s in relationship %q", rel.KeyField, rel.SourceTable, rel.TargetTable, other),
			})
		}
		keys[triple] = rel.Name
	}

	return errors
}

func (c *Config) validateProbes() ValidationErrors {
	var errors ValidationErrors

	names := make(map[string]bool)
	for i, p := range c.Probes {
		prefix := fmt.Sprintf("probes[%d]", i)
		if p.Name == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: "name is required",
			})
		} else if names[strings.ToLower(p.Name)] {
			errors = append(errors, ValidationError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("probe %q declared more than once", p.Name),
			})
		}
		names[strings.ToLower(p.Name)] = true

		if _, ok := c.GetTable(p.Table); !ok {
			errors = append(errors, ValidationError{
				Field:   prefix + ".table",
				Message: fmt.Sprintf("table %q is not declared under tables", p.Table),
			})
		}
		if p.Field == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".field",
				Message: "field is required",
			})
		}
	}

	return errors
}

func (c *Config) validateChecks() ValidationErrors {
	var errors ValidationErrors

	validChecks := map[string]bool{"collision": true, "roundtrip": true, "idempotence": true}
	for i, name := range c.Checks.Enabled {
		if !validChecks[strings.ToLower(name)] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("checks.enabled[%d]", i),
				Message: "check must be 'collision', 'roundtrip', or 'idempotence'",
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
