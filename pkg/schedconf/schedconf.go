// Package schedconf loads a global schedule from YAML and validates it
// before it ever reaches gttcan.Init. It is the file-format layer both
// cmd/gttcan-sim and cmd/gttcan-node use to describe a network without
// recompiling it into the binary.
package schedconf

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gttcan/gttcan/pkg/gttcan"
)

// Schedule is the on-disk representation of a global schedule.
type Schedule struct {
	SlotDuration                  uint32  `yaml:"slot_duration"`
	InterruptTimingOffset         uint32  `yaml:"interrupt_timing_offset"`
	DynamicSlotDurationCorrection bool    `yaml:"dynamic_slot_duration_correction"`
	Entries                       []Entry `yaml:"schedule"`
}

// Entry is one row of the global schedule: which node owns which slot and
// which application data_id it carries there.
type Entry struct {
	NodeID uint8  `yaml:"node_id"`
	SlotID uint16 `yaml:"slot_id"`
	DataID uint16 `yaml:"data_id"`
}

// Global converts the file's entries into the slice gttcan.Init expects.
func (s *Schedule) Global() []gttcan.GlobalScheduleEntry {
	out := make([]gttcan.GlobalScheduleEntry, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = gttcan.GlobalScheduleEntry{NodeID: e.NodeID, SlotID: e.SlotID, DataID: e.DataID}
	}
	return out
}

// Load reads and parses a schedule file at path. The caller is expected to
// run Validate over the result and decide how to act on any findings.
func Load(path string) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schedconf: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a schedule from r without validating it.
func Decode(r io.Reader) (*Schedule, error) {
	var s Schedule
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("schedconf: decode: %w", err)
	}
	return &s, nil
}

// ValidationError reports a schedule-file problem. Severity distinguishes a
// hard error (the schedule cannot be used at all) from a warning (the
// schedule is usable but suspicious and should be surfaced to an operator).
type ValidationError struct {
	Reason   string
	Severity Severity
}

// Severity classifies a ValidationError.
type Severity int

const (
	// SeverityWarning marks a configuration smell the core protocol itself
	// tolerates (e.g. a duplicate slot_id, where gttcan's findSenderNodeID
	// deterministically keeps the first match) but that is almost certainly
	// not what the schedule's author intended.
	SeverityWarning Severity = iota
	// SeverityError marks a schedule that cannot be used at all. Only some of
	// these (an over-length schedule) are ones gttcan.Init would itself reject;
	// Init does not check slot_duration, node ids inside the schedule, or the
	// reference frame at slot 0.
	SeverityError
)

func (e *ValidationError) Error() string {
	kind := "warning"
	if e.Severity == SeverityError {
		kind = "error"
	}
	return fmt.Sprintf("schedconf: %s: %s", kind, e.Reason)
}

// Validate checks a schedule for both hard errors and soft warnings,
// returning every finding regardless of severity; callers that only care
// whether the schedule is usable should filter for SeverityError.
func Validate(s *Schedule) []*ValidationError {
	var findings []*ValidationError

	if s.SlotDuration == 0 {
		findings = append(findings, &ValidationError{Severity: SeverityError, Reason: "slot_duration must be nonzero"})
	}
	if len(s.Entries) > gttcan.MaxGlobalScheduleLength {
		findings = append(findings, &ValidationError{Severity: SeverityError, Reason: "schedule exceeds the maximum global schedule length"})
	}

	seenNodeZero := false
	slotOwners := make(map[uint16]int)
	hasReferenceAtZero := false
	for _, e := range s.Entries {
		if e.NodeID == 0 {
			seenNodeZero = true
		}
		slotOwners[e.SlotID]++
		if e.SlotID == 0 && e.DataID == uint16(gttcan.ReferenceFrameDataID) {
			hasReferenceAtZero = true
		}
	}
	if seenNodeZero {
		findings = append(findings, &ValidationError{Severity: SeverityError, Reason: "node id 0 is forbidden"})
	}
	if !hasReferenceAtZero {
		findings = append(findings, &ValidationError{Severity: SeverityError, Reason: "slot 0 must carry the reference frame data_id"})
	}
	for slot, count := range slotOwners {
		if count > 1 {
			findings = append(findings, &ValidationError{
				Severity: SeverityWarning,
				Reason:   fmt.Sprintf("slot_id %d appears %d times; sender lookup resolves it to the first entry it scans", slot, count),
			})
		}
	}

	return findings
}

// FirstError returns the first SeverityError finding in findings, or nil if
// every finding is only a warning.
func FirstError(findings []*ValidationError) error {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return f
		}
	}
	return nil
}
