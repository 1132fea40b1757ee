package recurrence

import "fmt"

// Describe renders a rule as the Portuguese display string used throughout the
// UI, e.g. "Semanalmente (a cada 2 semanas)". It is display-only and plays no
// part in scheduling.
func Describe(r Rule) string {
	if r.Validate() != nil {
		return ""
	}

	var base, unit string
	switch r.Freq {
	case Daily:
		base, unit = "Diariamente", "dias"
	case Weekly:
		base, unit = "Semanalmente", "semanas"
	case Monthly:
		base, unit = "Mensalmente", "meses"
	case Yearly:
		base, unit = "Anualmente", "anos"
	}

	if r.Interval == 1 {
		return base
	}
	return fmt.Sprintf("%s (a cada %d %s)", base, r.Interval, unit)
}
