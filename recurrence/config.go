package recurrence

// EngineConfig holds expansion limits for the occurrence engine. The limits
// exist to bound pathological rules (tiny interval, huge window) rather than to
// shape normal behavior: a one-month calendar window stays far below them.
type EngineConfig struct {
	// MaxOccurrencesPerTask caps how many occurrences a single task may emit
	// in one expansion. 0 means unlimited.
	MaxOccurrencesPerTask int
	// MaxWindowDays caps the expanded window span in days; a longer window is
	// clamped at the end. 0 means unlimited.
	MaxWindowDays int
}

// DefaultEngineConfig provides sensible defaults for production use.
var DefaultEngineConfig = EngineConfig{
	MaxOccurrencesPerTask: 1000,
	MaxWindowDays:         366 * 2,
}

// HighPerformanceConfig is tuned for high-traffic scenarios where windows are
// short and many users expand concurrently.
var HighPerformanceConfig = EngineConfig{
	MaxOccurrencesPerTask: 200,
	MaxWindowDays:         93,
}

// UnboundedConfig disables all limits. Only suitable for trusted input such as
// test fixtures.
var UnboundedConfig = EngineConfig{}
