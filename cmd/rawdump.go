// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var rawdumpPollInterval int

var rawdumpCmd = &cobra.Command{
	Use:   "rawdump",
	Short: "Dump link bytes with no framing interpretation",
	Long: `Drain the inbound queue through the raw passthrough path and hex-dump
whatever arrives, without frame detection, unstuffing or CRC checks.

Useful for diagnosing a desynchronized peer or watching pre-framing bootstrap
traffic. Must not be used while framed traffic is being consumed elsewhere.`,
	RunE: runRawdump,
}

func init() {
	rootCmd.AddCommand(rawdumpCmd)
	rawdumpCmd.Flags().IntVar(&rawdumpPollInterval, "poll", 20, "Poll interval in milliseconds")
}

func runRawdump(cmd *cobra.Command, args []string) error {
	link, conn, connInfo, err := OpenLinkConnection()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer link.Deinit()

	fmt.Printf("brlink - Raw Dump\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	buf := make([]byte, 256)
	for {
		n := link.ReceiveRaw(buf)
		if n == 0 {
			time.Sleep(time.Duration(rawdumpPollInterval) * time.Millisecond)
			continue
		}
		timestamp := time.Now().Format("15:04:05.000")
		fmt.Printf("[%s] %d bytes\n%s", timestamp, n, hexDump(buf[:n], "  "))
	}
}
