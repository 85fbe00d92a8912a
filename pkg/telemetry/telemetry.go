// Package telemetry exposes Prometheus instrumentation for the callback
// boundary that sits around a gttcan.Node: frame counts, election
// transitions, and drift offset. Nothing in package gttcan imports this
// package or knows it exists; a Recorder is wired in by the integration
// layer (pkg/canbus, pkg/simbus) that already owns the four callbacks.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the metric vectors for one process. Multiple nodes running
// in the same process (as pkg/simbus does) share a Recorder and are
// distinguished by the node_id label.
type Recorder struct {
	framesSent     *prometheus.CounterVec
	framesReceived *prometheus.CounterVec
	masterChanges  *prometheus.CounterVec
	driftOffset    *prometheus.GaugeVec
}

// NewRecorder builds and registers a Recorder's metrics against reg. Passing
// a fresh prometheus.NewRegistry() keeps tests isolated from the global
// default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		framesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gttcan",
			Name:      "frames_sent_total",
			Help:      "Frames transmitted by on_tick, labeled by node and data_id.",
		}, []string{"node_id", "data_id"}),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gttcan",
			Name:      "frames_received_total",
			Help:      "Frames observed by on_frame, labeled by node and data_id.",
		}, []string{"node_id", "data_id"}),
		masterChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gttcan",
			Name:      "master_changes_total",
			Help:      "Number of times a node's is_time_master flag flipped to true.",
		}, []string{"node_id"}),
		driftOffset: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gttcan",
			Name:      "slot_duration_offset",
			Help:      "Current signed drift accumulator, sampled after every on_tick.",
		}, []string{"node_id"}),
	}
	reg.MustRegister(r.framesSent, r.framesReceived, r.masterChanges, r.driftOffset)
	return r
}

// FrameSent records an outgoing frame for nodeID carrying dataID.
func (r *Recorder) FrameSent(nodeID uint8, dataID uint16) {
	if r == nil {
		return
	}
	r.framesSent.WithLabelValues(nodeIDLabel(nodeID), dataIDLabel(dataID)).Inc()
}

// FrameReceived records an incoming frame observed by nodeID carrying dataID.
func (r *Recorder) FrameReceived(nodeID uint8, dataID uint16) {
	if r == nil {
		return
	}
	r.framesReceived.WithLabelValues(nodeIDLabel(nodeID), dataIDLabel(dataID)).Inc()
}

// MasterChanged records nodeID winning an election.
func (r *Recorder) MasterChanged(nodeID uint8) {
	if r == nil {
		return
	}
	r.masterChanges.WithLabelValues(nodeIDLabel(nodeID)).Inc()
}

// DriftOffset samples nodeID's current signed drift accumulator.
func (r *Recorder) DriftOffset(nodeID uint8, offset int32) {
	if r == nil {
		return
	}
	r.driftOffset.WithLabelValues(nodeIDLabel(nodeID)).Set(float64(offset))
}

func nodeIDLabel(id uint8) string  { return strconv.FormatUint(uint64(id), 10) }
func dataIDLabel(id uint16) string { return strconv.FormatUint(uint64(id), 10) }
