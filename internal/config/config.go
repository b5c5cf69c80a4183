// Package config provides configuration structures and loading for relcheck.
package config

import "strings"

// DefaultGlobalIDField is the unique identifier column used when a table does not name one.
const DefaultGlobalIDField = "globalid"

// Config represents the complete application configuration.
type Config struct {
	Source        DatabaseConfig       `yaml:"source" mapstructure:"source"`
	Tables        []TableConfig        `yaml:"tables" mapstructure:"tables"`
	Relationships []RelationshipConfig `yaml:"relationships" mapstructure:"relationships"`
	Probes        []ProbeConfig        `yaml:"probes" mapstructure:"probes"`
	Checks        ChecksConfig         `yaml:"checks" mapstructure:"checks"`
	Logging       LoggingConfig        `yaml:"logging" mapstructure:"logging"`
}

// DatabaseConfig describes where the tables are read from.
// Driver "sqlite" reads a local geodatabase file from Path; driver "mysql"
// uses the network fields.
type DatabaseConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // sqlite or mysql
	Path               string `yaml:"path" mapstructure:"path"`
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// TableConfig declares a table to load into the snapshot.
type TableConfig struct {
	Name          string `yaml:"name" mapstructure:"name"`
	GlobalIDField string `yaml:"global_id_field" mapstructure:"global_id_field"`
	Where         string `yaml:"where" mapstructure:"where"`
}

// IDField returns the unique identifier column, falling back to DefaultGlobalIDField.
func (t TableConfig) IDField() string {
	if t.GlobalIDField == "" {
		return DefaultGlobalIDField
	}
	return t.GlobalIDField
}

// RelationshipConfig declares a directed foreign-key association.
// KeyField lives on SourceTable and holds the global ID of a TargetTable record.
type RelationshipConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	SourceTable string `yaml:"source_table" mapstructure:"source_table"`
	TargetTable string `yaml:"target_table" mapstructure:"target_table"`
	KeyField    string `yaml:"key_field" mapstructure:"key_field"`
}

// ProbeConfig selects a record by attribute value and resolves all of its relationships.
type ProbeConfig struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Table string `yaml:"table" mapstructure:"table"`
	Field string `yaml:"field" mapstructure:"field"`
	Value string `yaml:"value" mapstructure:"value"`
}

// ChecksConfig controls the consistency verifier.
type ChecksConfig struct {
	Enabled        []string `yaml:"enabled" mapstructure:"enabled"` // collision, roundtrip, idempotence
	FailOnFindings bool     `yaml:"fail_on_findings" mapstructure:"fail_on_findings"`
}

// AllChecks lists every consistency check in the order they run.
var AllChecks = []string{"collision", "roundtrip", "idempotence"}

// Names returns the enabled checks; an empty list enables all of them.
func (c ChecksConfig) Names() []string {
	if len(c.Enabled) == 0 {
		return AllChecks
	}
	return c.Enabled
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: DatabaseConfig{
			Driver:             "sqlite",
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     4,
			MaxIdleConnections: 2,
		},
		Checks: ChecksConfig{
			FailOnFindings: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// GetTable returns the table declaration with the given name.
func (c *Config) GetTable(name string) (*TableConfig, bool) {
	for i := range c.Tables {
		if c.Tables[i].Name == name {
			return &c.Tables[i], true
		}
	}
	return nil, false
}

// GetProbe returns the probe declaration with the given name.
func (c *Config) GetProbe(name string) (*ProbeConfig, bool) {
	for i := range c.Probes {
		if strings.EqualFold(c.Probes[i].Name, name) {
			return &c.Probes[i], true
		}
	}
	return nil, false
}

// TableNames returns the configured table names in declaration order.
func (c *Config) TableNames() []string {
	names := make([]string, 0, len(c.Tables))
	for _, t := range c.Tables {
		names = append(names, t.Name)
	}
	return names
}
