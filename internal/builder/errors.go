package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iocscope/iocscope/internal/model"
)

// Collision records one duplicate record name within an instance: where the
// name was first defined and where it was defined again.
type Collision struct {
	Name      string
	First     model.SourceLocation
	Duplicate model.SourceLocation
}

// DuplicateRecordError reports every record-name collision found while
// assembling one instance. It is raised once, when the instance is sealed,
// so a single run surfaces all collisions instead of the first.
type DuplicateRecordError struct {
	Instance   string
	Collisions []Collision
}

// Error implements the error interface, listing every collision.
func (e *DuplicateRecordError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "instance %s: %d duplicate record name(s):", e.Instance, len(e.Collisions))
	for _, c := range e.Collisions {
		fmt.Fprintf(&b, "\n  %s first defined at %s, duplicated at %s", c.Name, c.First, c.Duplicate)
	}
	return b.String()
}

// IsDuplicateRecordError returns true if err is a duplicate-record error.
// Uses errors.As to handle wrapped errors.
func IsDuplicateRecordError(err error) bool {
	var de *DuplicateRecordError
	return errors.As(err, &de)
}
