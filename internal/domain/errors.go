package domain

import (
	"fmt"
	"strings"
)

// ConfigurationError reports bad chunk/region geometry detected while priming
// an output store. It is fatal: the configuration must be fixed, the call is
// never retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// AlignmentError reports a write region whose boundaries do not coincide with
// chunk boundaries. A misaligned region could overlap physical chunks written
// by an unrelated process, so the write is refused outright; retrying without
// realigning cannot succeed.
type AlignmentError struct {
	Dim         string
	Start, Stop int
	Chunk       int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("region [%d,%d) on %q is not aligned to chunk size %d",
		e.Start, e.Stop, e.Dim, e.Chunk)
}

// InsufficientDataError reports a training window with too few samples to
// estimate an empirical distribution. Training must fail rather than silently
// produce a degenerate model.
type InsufficientDataError struct {
	DayOfYear int
	Samples   int
	Required  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("window at day-of-year %d has %d samples, need at least %d",
		e.DayOfYear, e.Samples, e.Required)
}

// ValidationError carries every rule violated by a dataset. Violations are
// reported together so one validation run surfaces all problems at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("dataset failed %d validation rule(s):\n  - %s",
		len(e.Violations), strings.Join(e.Violations, "\n  - "))
}
