package agenda

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// occurrenceNamespace is the fixed UUID namespace under which synthesized
// occurrence ids are derived. Changing it would change every generated id.
var occurrenceNamespace = uuid.MustParse("9f2c1af6-4d38-44d0-8f5b-6c2a1e0d7a42")

// occurrenceKey identifies one generated occurrence within a window query.
// It is a value type compared field by field, so identity can never collide
// through string formatting.
type occurrenceKey struct {
	originalTaskID string
	year           int
	month          time.Month
	day            int
	index          int
}

func newOccurrenceKey(originalTaskID string, date time.Time, index int) occurrenceKey {
	y, m, d := date.Date()
	return occurrenceKey{
		originalTaskID: originalTaskID,
		year:           y,
		month:          m,
		day:            d,
		index:          index,
	}
}

// id derives the deterministic entry id for this occurrence. Same key, same
// id, on every call and every process.
func (k occurrenceKey) id() string {
	name := fmt.Sprintf("%s|%04d-%02d-%02d|%d", k.originalTaskID, k.year, int(k.month), k.day, k.index)
	return uuid.NewSHA1(occurrenceNamespace, []byte(name)).String()
}
