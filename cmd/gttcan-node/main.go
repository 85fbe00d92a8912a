package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gttcan/gttcan/internal/buildinfo"
	"github.com/gttcan/gttcan/pkg/canbus"
	"github.com/gttcan/gttcan/pkg/schedconf"
	"github.com/gttcan/gttcan/pkg/telemetry"
)

var (
	schedulePath string
	iface        string
	nodeID       int
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "gttcan-node --schedule FILE --iface can0 --node-id ID",
	Short: "gttcan-node " + buildinfo.Version + " - single G-TTCAN node over SocketCAN",
	Long: `gttcan-node runs a single G-TTCAN node against a real SocketCAN interface
(see pkg/canbus), loading its global schedule from a YAML file and running
until interrupted.

EXAMPLES:
  gttcan-node --schedule net.yaml --iface can0 --node-id 1
  gttcan-node --schedule net.yaml --iface vcan0 --node-id 2 --verbose`,
	RunE: runNode,
}

func init() {
	rootCmd.Flags().StringVar(&schedulePath, "schedule", "", "path to the global schedule YAML file (required)")
	rootCmd.Flags().StringVar(&iface, "iface", "can0", "SocketCAN interface name")
	rootCmd.Flags().IntVar(&nodeID, "node-id", 0, "this node's id (required, must be nonzero)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.MarkFlagRequired("schedule")
	rootCmd.MarkFlagRequired("node-id")
}

func runNode(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	sched, err := schedconf.Load(schedulePath)
	if err != nil {
		return fmt.Errorf("gttcan-node: %w", err)
	}
	for _, finding := range schedconf.Validate(sched) {
		log.WithField("severity", finding.Severity).Warn(finding.Error())
	}
	if err := schedconf.FirstError(schedconf.Validate(sched)); err != nil {
		return fmt.Errorf("gttcan-node: %w", err)
	}

	rec := telemetry.NewRecorder(prometheus.NewRegistry())
	node, err := canbus.New(canbus.Config{
		Interface:                     iface,
		NodeID:                        uint8(nodeID),
		Global:                        sched.Global(),
		SlotDuration:                  sched.SlotDuration,
		InterruptTimingOffset:         sched.InterruptTimingOffset,
		DynamicSlotDurationCorrection: sched.DynamicSlotDurationCorrection,
	}, rec, log)
	if err != nil {
		return fmt.Errorf("gttcan-node: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		node.Close()
	}()

	log.WithFields(logrus.Fields{"node_id": nodeID, "iface": iface}).Info("starting node")
	if err := node.Run(); err != nil {
		return fmt.Errorf("gttcan-node: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
