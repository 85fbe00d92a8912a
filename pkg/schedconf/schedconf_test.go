package schedconf

import (
	"strings"
	"testing"
)

const validYAML = `
slot_duration: 300
interrupt_timing_offset: 10
dynamic_slot_duration_correction: true
schedule:
  - {node_id: 1, slot_id: 0, data_id: 0}
  - {node_id: 2, slot_id: 1, data_id: 1}
`

func TestDecodeAndValidateValidSchedule(t *testing.T) {
	s, err := Decode(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.SlotDuration != 300 || len(s.Entries) != 2 {
		t.Fatalf("unexpected schedule: %+v", s)
	}
	findings := Validate(s)
	if err := FirstError(findings); err != nil {
		t.Fatalf("valid schedule flagged as an error: %v", err)
	}
	global := s.Global()
	if len(global) != 2 || global[0].NodeID != 1 || global[1].SlotID != 1 {
		t.Fatalf("Global() = %+v", global)
	}
}

func TestValidateRejectsNodeIDZero(t *testing.T) {
	s := &Schedule{
		SlotDuration: 300,
		Entries: []Entry{
			{NodeID: 0, SlotID: 0, DataID: 0},
		},
	}
	if err := FirstError(Validate(s)); err == nil {
		t.Fatal("expected node id 0 to be rejected")
	}
}

func TestValidateRejectsMissingReferenceFrame(t *testing.T) {
	s := &Schedule{
		SlotDuration: 300,
		Entries: []Entry{
			{NodeID: 1, SlotID: 0, DataID: 5},
		},
	}
	if err := FirstError(Validate(s)); err == nil {
		t.Fatal("expected a schedule with no reference frame at slot 0 to be rejected")
	}
}

func TestValidateWarnsOnDuplicateSlotID(t *testing.T) {
	s := &Schedule{
		SlotDuration: 300,
		Entries: []Entry{
			{NodeID: 1, SlotID: 0, DataID: 0},
			{NodeID: 2, SlotID: 5, DataID: 1},
			{NodeID: 3, SlotID: 5, DataID: 2},
		},
	}
	findings := Validate(s)
	if err := FirstError(findings); err != nil {
		t.Fatalf("duplicate slot_id alone should only warn, got hard error: %v", err)
	}
	var sawWarning bool
	for _, f := range findings {
		if f.Severity == SeverityWarning {
			sawWarning = true
		}
	}
	if !sawWarning {
		t.Fatal("expected a warning finding for the duplicate slot_id")
	}
}
