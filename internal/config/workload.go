package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrUnknownWorkload is returned for a preset name that does not exist
var ErrUnknownWorkload = errors.New("unknown workload")

// Default label rotation for writers
var DefaultPolicies = []string{"NORMAL", "URGENT_PRIORITY", "MAINTENANCE"}

// Duration is a time.Duration that reads and writes as "250ms" in JSON
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Worker describes one simulated participant: a clinic producing orders,
// an analyzer consuming them, an auditor reading the policy or a supervisor
// changing it. Interval is the pause between two iterations of its loop.
type Worker struct {
	Name     string   `json:"name"`
	Interval Duration `json:"interval"`
}

// W is shorthand for building worker lists
func W(name string, interval time.Duration) Worker {
	return Worker{Name: name, Interval: Duration(interval)}
}

// Workload is a fully resolved simulation setup
type Workload struct {
	Name      string
	Capacity  int
	Duration  time.Duration
	Producers []Worker
	Consumers []Worker
	Readers   []Worker
	Writers   []Worker
	Policies  []string
}

var presets = map[string]Workload{
	// a quiet day: two clinics, one auditor
	"light": {
		Name:     "light",
		Capacity: 5,
		Duration: 5 * time.Second,
		Producers: []Worker{
			W("ClinicA", 120*time.Millisecond),
			W("ClinicB", 100*time.Millisecond),
		},
		Consumers: []Worker{
			W("Analyzer1", 70*time.Millisecond),
			W("Analyzer2", 80*time.Millisecond),
		},
		Readers: []Worker{W("Auditor1", 200*time.Millisecond)},
		Writers: []Worker{W("Supervisor1", 3*time.Second)},
	},
	// patient surge: producers outpace analyzers, auditors hammer the policy
	"heavy": {
		Name:     "heavy",
		Capacity: 5,
		Duration: 5 * time.Second,
		Producers: []Worker{
			W("ER", 10*time.Millisecond),
			W("ICU", 15*time.Millisecond),
			W("WardA", 20*time.Millisecond),
			W("WardB", 10*time.Millisecond),
			W("Outpatient", 15*time.Millisecond),
		},
		Consumers: []Worker{
			W("Analyzer1", 200*time.Millisecond),
			W("Analyzer2", 250*time.Millisecond),
		},
		Readers: []Worker{
			W("Auditor1", 50*time.Millisecond),
			W("Auditor2", 75*time.Millisecond),
			W("Auditor3", 100*time.Millisecond),
		},
		Writers: []Worker{W("Supervisor1", 1500*time.Millisecond)},
	},
}

// Presets lists the built-in workload names in sorted order
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Preset returns a copy of the named built-in workload
func Preset(name string) (Workload, error) {
	w, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Workload{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownWorkload, name, strings.Join(Presets(), ", "))
	}
	w.Producers = slices.Clone(w.Producers)
	w.Consumers = slices.Clone(w.Consumers)
	w.Readers = slices.Clone(w.Readers)
	w.Writers = slices.Clone(w.Writers)
	w.Policies = slices.Clone(DefaultPolicies)
	return w, nil
}

// Workers returns every worker of the workload, producers first
func (w Workload) Workers() []Worker {
	all := make([]Worker, 0, len(w.Producers)+len(w.Consumers)+len(w.Readers)+len(w.Writers))
	all = append(all, w.Producers...)
	all = append(all, w.Consumers...)
	all = append(all, w.Readers...)
	return append(all, w.Writers...)
}
