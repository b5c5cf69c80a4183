package resolver

import (
	"errors"
	"fmt"

	"github.com/dbsmedya/relcheck/internal/schema"
	"github.com/dbsmedya/relcheck/internal/store"
)

// Configuration errors. They are reported immediately and never retried.
var (
	// ErrUnknownTable aliases store.ErrUnknownTable so callers can match either.
	ErrUnknownTable = store.ErrUnknownTable
	// ErrNoRelationships is returned when resolution is requested for an empty relationship set.
	ErrNoRelationships = errors.New("no relationships to resolve")
	// ErrRelationshipMismatch is returned when a relationship does not start at the record's table.
	ErrRelationshipMismatch = errors.New("relationship does not apply to table")
	// ErrUndeclaredRelationship is returned for a relationship the resolver was not built with.
	ErrUndeclaredRelationship = errors.New("relationship is not declared")
)

// ErrDataIntegrity is the kind shared by errors caused by the stored data
// rather than by configuration.
var ErrDataIntegrity = errors.New("data integrity violation")

// AmbiguousMatchError is returned when a key value matches more than one
// record of the target table, whose global IDs are supposed to be unique.
type AmbiguousMatchError struct {
	Relationship schema.Relationship
	Key          string
	Matches      int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("relationship %s: key %s matches %d records in %s (global ids must be unique)",
		e.Relationship.Name, e.Key, e.Matches, e.Relationship.Destination())
}

// Is reports AmbiguousMatchError as a data integrity violation.
func (e *AmbiguousMatchError) Is(target error) bool {
	return target == ErrDataIntegrity
}
