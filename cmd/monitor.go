// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshfoundry/brlink/pkg/beacon"
	"github.com/meshfoundry/brlink/pkg/hdlc"
)

var (
	monitorStatsInterval int
	monitorPollInterval  int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display decoded link frames in human-readable format",
	Long: `Continuously poll the link and display each valid frame as it arrives.

Payloads that parse as beacon messages are shown decoded; everything else is
hex-dumped. With --stats, link diagnostic counters are printed periodically.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats", 0, "Print link stats every N seconds (0 = never)")
	monitorCmd.Flags().IntVar(&monitorPollInterval, "poll", 5, "Receive poll interval in milliseconds")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	link, conn, connInfo, err := OpenLinkConnection()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer link.Deinit()

	fmt.Printf("brlink - Frame Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	buf := make([]byte, hdlc.MaxPayloadSize)
	poll := time.NewTicker(time.Duration(monitorPollInterval) * time.Millisecond)
	defer poll.Stop()

	var statsTick <-chan time.Time
	if monitorStatsInterval > 0 {
		t := time.NewTicker(time.Duration(monitorStatsInterval) * time.Second)
		defer t.Stop()
		statsTick = t.C
	}

	for {
		select {
		case <-poll.C:
			for {
				n := link.Receive(buf)
				if n == 0 {
					break
				}
				fmt.Print(formatFrame(buf[:n]))
			}
		case <-statsTick:
			fmt.Print(link.Stats().String())
		}
	}
}

// formatFrame renders one received payload with timestamp, trying the beacon
// codec first and falling back to a hex dump.
func formatFrame(payload []byte) string {
	timestamp := time.Now().Format("15:04:05.000")

	if b, err := beacon.Decode(payload); err == nil {
		return fmt.Sprintf("[%s] %s len=%d\n", timestamp, b, len(payload))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] FRAME len=%d\n", timestamp, len(payload))
	sb.WriteString(hexDump(payload, "  "))
	return sb.String()
}

// hexDump renders data as indented rows of 16 hex bytes.
func hexDump(data []byte, indent string) string {
	var sb strings.Builder
	for i, b := range data {
		if i%16 == 0 {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(indent)
		} else {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	sb.WriteByte('\n')
	return sb.String()
}
