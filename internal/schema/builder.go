package schema

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/relcheck/internal/config"
)

// BuildFromConfig declares every configured relationship.
// Relationships referencing undeclared tables are rejected, as are two
// relationships joining the same tables through the same key field.
func BuildFromConfig(cfg *config.Config) (*Schema, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}

	s := New()
	keys := make(map[string]string)

	for _, rc := range cfg.Relationships {
		for _, table := range []string{rc.SourceTable, rc.TargetTable} {
			if _, ok := cfg.GetTable(table); !ok {
				return nil, fmt.Errorf("relationship %q references undeclared table %q", rc.Name, table)
			}
		}

		triple := strings.ToLower(rc.SourceTable + "\x00" + rc.TargetTable + "\x00" + rc.KeyField)
		if other, dup := keys[triple]; dup {
			return nil, fmt.Errorf("relationships %q and %q both link %s to %s through %s", other, rc.Name, rc.SourceTable, rc.TargetTable, rc.KeyField)
		}
		keys[triple] = rc.Name

		if err := s.Add(Relationship{
			Name:        rc.Name,
			SourceTable: rc.SourceTable,
			TargetTable: rc.TargetTable,
			KeyField:    rc.KeyField,
		}); err != nil {
			return nil, err
		}
	}

	return s, nil
}
