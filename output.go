package meshsim

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// OutputDescriptor declares when a named output should be emitted. Created at
// configuration time and never mutated afterwards; the external writer owns
// file formats and any per-output bookkeeping. Optional triggers use
// "absent = disabled" semantics and combine by OR.
type OutputDescriptor struct {
	Name      string
	Variables []string

	// Frequency emits every N timesteps, including timestep 0.
	Frequency *int

	// OnlyLastN emits during the final N timesteps of the run.
	OnlyLastN *int

	// SpecificTimeOfDay emits when the simulation time-of-day matches this
	// hour and minute, ignoring seconds and the date.
	SpecificTimeOfDay *time.Time

	// SpecificDatetime emits on an exact simulation time match.
	SpecificDatetime *time.Time
}

// Validate reports every descriptor misconfiguration, joined.
func (o *OutputDescriptor) Validate() error {
	var problems []error
	if o.Name == "" {
		problems = append(problems, errors.New("output name required"))
	}
	if o.Frequency != nil && *o.Frequency <= 0 {
		problems = append(problems, fmt.Errorf("output %q: frequency must be positive, got %d", o.Name, *o.Frequency))
	}
	if o.OnlyLastN != nil && *o.OnlyLastN < 0 {
		problems = append(problems, fmt.Errorf("output %q: only_last_n must not be negative, got %d", o.Name, *o.OnlyLastN))
	}
	return errors.Join(problems...)
}

// ShouldOutput reports whether this output fires at the given timestep.
// Pure function of its arguments; unset triggers never fire.
func (o *OutputDescriptor) ShouldOutput(maxTS, currentTS int, current time.Time) bool {
	should := false

	if o.OnlyLastN != nil {
		if maxTS-currentTS <= *o.OnlyLastN {
			should = true
		}
	}

	if o.Frequency != nil {
		if currentTS%*o.Frequency == 0 {
			should = true
		}
	}

	if o.SpecificTimeOfDay != nil {
		if current.Hour() == o.SpecificTimeOfDay.Hour() &&
			current.Minute() == o.SpecificTimeOfDay.Minute() {
			should = true
		}
	}

	if o.SpecificDatetime != nil {
		if current.Equal(*o.SpecificDatetime) {
			should = true
		}
	}

	return should
}

// LogOptions debug-prints every trigger configured on this output.
func (o *OutputDescriptor) LogOptions(logger *slog.Logger) {
	logger.Debug("output trigger options", "output", o.Name)
	if o.OnlyLastN != nil {
		logger.Debug("trigger", "output", o.Name, "only_last_n", *o.OnlyLastN)
	}
	if o.Frequency != nil {
		logger.Debug("trigger", "output", o.Name, "frequency", *o.Frequency)
	}
	if o.SpecificTimeOfDay != nil {
		logger.Debug("trigger", "output", o.Name,
			"specific_time", fmt.Sprintf("%02d:%02d", o.SpecificTimeOfDay.Hour(), o.SpecificTimeOfDay.Minute()))
	}
	if o.SpecificDatetime != nil {
		logger.Debug("trigger", "output", o.Name, "specific_datetime", o.SpecificDatetime.String())
	}
}
