package recurrence

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// Normalize turns a free-text recurrence descriptor into a structured Rule.
// It understands the Portuguese phrases the task parser emits ("todo dia",
// "toda semana", "a cada 3 meses", …) as well as raw RFC 5545 RRULE strings
// coming from calendar imports. Unrecognized input yields None: recurrence is
// best-effort and never an error.
func Normalize(input string) mo.Option[Rule] {
	text := strings.ToLower(strings.TrimSpace(input))
	if text == "" {
		return mo.None[Rule]()
	}

	if strings.Contains(strings.ToUpper(text), "FREQ=") {
		return fromRRuleString(input)
	}

	if freq, ok := phraseFreq[text]; ok {
		return mo.Some(Rule{Freq: freq, Interval: 1})
	}

	if m := intervalPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return mo.None[Rule]()
		}
		if freq, ok := unitFreq[m[2]]; ok {
			return mo.Some(Rule{Freq: freq, Interval: n})
		}
	}

	return mo.None[Rule]()
}

// fromRRuleString maps an RFC 5545 RRULE onto the narrower Rule model. BYDAY
// is honored for weekly rules; anything this model cannot express (BYMONTHDAY,
// BYSETPOS, …) falls back to the plain freq+interval reading.
func fromRRuleString(input string) mo.Option[Rule] {
	raw := strings.TrimPrefix(strings.TrimSpace(input), "RRULE:")
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return mo.None[Rule]()
	}

	var freq Frequency
	switch opt.Freq {
	case rrule.DAILY:
		freq = Daily
	case rrule.WEEKLY:
		freq = Weekly
	case rrule.MONTHLY:
		freq = Monthly
	case rrule.YEARLY:
		freq = Yearly
	default:
		return mo.None[Rule]()
	}

	interval := opt.Interval
	if interval < 1 {
		interval = 1
	}

	rule := Rule{Freq: freq, Interval: interval}
	if freq == Weekly {
		for _, day := range opt.Byweekday {
			rule.Weekdays = append(rule.Weekdays, rruleWeekdayToGo(day))
		}
	}
	if rule.Validate() != nil {
		return mo.None[Rule]()
	}
	return mo.Some(rule)
}

func rruleWeekdayToGo(w rrule.Weekday) time.Weekday {
	// rrule counts from Monday=0, time.Weekday from Sunday=0.
	return time.Weekday((w.Day() + 1) % 7)
}

var phraseFreq = map[string]Frequency{
	"todo dia":      Daily,
	"todos os dias": Daily,
	"diariamente":   Daily,
	"diário":        Daily,
	"diaria":        Daily,
	"daily":         Daily,
	"toda semana":   Weekly,
	"semanalmente":  Weekly,
	"semanal":       Weekly,
	"weekly":        Weekly,
	"todo mês":      Monthly,
	"todo mes":      Monthly,
	"mensalmente":   Monthly,
	"mensal":        Monthly,
	"monthly":       Monthly,
	"todo ano":      Yearly,
	"anualmente":    Yearly,
	"anual":         Yearly,
	"yearly":        Yearly,
}

var unitFreq = map[string]Frequency{
	"dia":     Daily,
	"dias":    Daily,
	"semana":  Weekly,
	"semanas": Weekly,
	"mês":     Monthly,
	"mes":     Monthly,
	"meses":   Monthly,
	"ano":     Yearly,
	"anos":    Yearly,
}

// "a cada 2 semanas", "cada 3 dias"
var intervalPattern = regexp.MustCompile(`^(?:a\s+)?cada\s+(\d+)\s+(\p{L}+)$`)
