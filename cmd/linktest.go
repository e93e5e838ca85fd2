// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshfoundry/brlink/pkg/hdlc"
)

var linkTestTimeout int

var linkTestCmd = &cobra.Command{
	Use:   "linktest",
	Short: "Test connection by waiting for a valid frame",
	Long: `Wait for a valid frame on the connection until timeout.

This command connects to a serial port or WebSocket bridge and waits for any
complete frame passing the CRC check. Line noise and malformed frames are
ignored.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking connectivity to a border router or its WebSocket bridge.`,
	RunE: runLinkTest,
}

func init() {
	rootCmd.AddCommand(linkTestCmd)
	linkTestCmd.Flags().IntVar(&linkTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runLinkTest(cmd *cobra.Command, args []string) error {
	link, conn, connInfo, err := OpenLinkConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()
	defer link.Deinit()

	fmt.Printf("brlink - Link Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", linkTestTimeout)
	fmt.Printf("Waiting for valid frame...\n\n")

	deadline := time.After(time.Duration(linkTestTimeout) * time.Second)
	poll := time.NewTicker(5 * time.Millisecond)
	defer poll.Stop()

	buf := make([]byte, hdlc.MaxPayloadSize)
	for {
		select {
		case <-poll.C:
			if n := link.Receive(buf); n > 0 {
				fmt.Printf("Frame received (%d bytes)\n%s", n, hexDump(buf[:n], "  "))
				return nil
			}
		case <-deadline:
			stats := link.Stats()
			fmt.Printf("Timeout: no valid frame received\n")
			if stats.Decoder.CRCErrors > 0 || stats.Decoder.Discarded > 0 {
				fmt.Printf("Link saw traffic: %d bytes of noise, %d CRC failures (desynchronized peer?)\n",
					stats.Decoder.Discarded, stats.Decoder.CRCErrors)
			}
			os.Exit(1)
		}
	}
}
