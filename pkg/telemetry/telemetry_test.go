package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRecorderCountsAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)

	r.FrameSent(1, 0)
	r.FrameSent(1, 0)
	r.FrameReceived(2, 5)
	r.MasterChanged(1)
	r.DriftOffset(1, -3)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	byName := make(map[string][]*dto.MetricFamily)
	for _, mf := range metrics {
		byName[mf.GetName()] = append(byName[mf.GetName()], mf)
	}

	sent := byName["gttcan_frames_sent_total"]
	if len(sent) != 1 || sent[0].Metric[0].GetCounter().GetValue() != 2 {
		t.Fatalf("frames_sent_total not incremented twice: %+v", sent)
	}
	drift := byName["gttcan_slot_duration_offset"]
	if len(drift) != 1 || drift[0].Metric[0].GetGauge().GetValue() != -3 {
		t.Fatalf("slot_duration_offset gauge not set to -3: %+v", drift)
	}
}

func TestRecorderNilIsNoop(t *testing.T) {
	var r *Recorder
	// None of these should panic on a nil receiver.
	r.FrameSent(1, 0)
	r.FrameReceived(1, 0)
	r.MasterChanged(1)
	r.DriftOffset(1, 0)
}
