// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshfoundry/brlink/pkg/beacon"
	"github.com/meshfoundry/brlink/pkg/brt"
)

var (
	sendBeacon string
	sendText   string
	sendRaw    bool
	sendRepeat int
)

var sendCmd = &cobra.Command{
	Use:   "send [hex bytes]",
	Short: "Transmit a framed payload over the link",
	Long: `Encode and transmit one payload, then wait for the transmission to drain.

The payload is given as hex bytes ("01 7e 7d 02", case and spaces ignored),
as text with --text, or as a beacon message with --beacon hello|status|echo.
With --raw the bytes bypass framing entirely (diagnostic passthrough).

Examples:
  brlink send --port /dev/ttyUSB0 01 7e 7d 02
  brlink send --port /dev/ttyUSB0 --beacon hello
  brlink send --url ws://router.local/link --text "ping"`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendBeacon, "beacon", "", "Send a beacon message (hello, status, echo)")
	sendCmd.Flags().StringVar(&sendText, "text", "", "Send a text payload")
	sendCmd.Flags().BoolVar(&sendRaw, "raw", false, "Send bytes without framing")
	sendCmd.Flags().IntVar(&sendRepeat, "repeat", 1, "Number of times to send the payload")
}

func runSend(cmd *cobra.Command, args []string) error {
	payload, err := buildPayload(args)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("empty payload (give hex bytes, --text or --beacon)")
	}

	link, conn, connInfo, err := OpenLinkConnection()
	if err != nil {
		return err
	}
	defer conn.Close()
	defer link.Deinit()

	fmt.Printf("brlink - Send\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Payload: %d bytes\n", len(payload))

	for i := 0; i < sendRepeat; i++ {
		if sendRaw {
			link.SendRaw(payload)
		} else {
			link.Send(payload)
		}
		waitDrain(link)
	}

	stats := link.Stats()
	if stats.TxDropped > 0 {
		fmt.Printf("Warning: %d bytes lost to outbound queue overflow\n", stats.TxDropped)
	}
	fmt.Printf("Done\n")
	return nil
}

func buildPayload(args []string) ([]byte, error) {
	switch {
	case sendBeacon != "":
		var b *beacon.Beacon
		switch strings.ToLower(sendBeacon) {
		case "hello":
			b = beacon.NewHello()
		case "status":
			b = beacon.NewStatus(0, 0, 0, 0)
		case "echo":
			b = &beacon.Beacon{Type: beacon.TypeEcho}
		default:
			return nil, fmt.Errorf("unknown beacon type %q", sendBeacon)
		}
		return beacon.Encode(b)

	case sendText != "":
		return []byte(sendText), nil

	default:
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == ':' || r == ',' {
				return -1
			}
			return r
		}, strings.Join(args, ""))
		if cleaned == "" {
			return nil, nil
		}
		payload, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %v", err)
		}
		return payload, nil
	}
}

// waitDrain polls IsBusy until the in-flight transmission completes.
func waitDrain(link *brt.Link) {
	for link.IsBusy() {
		time.Sleep(time.Millisecond)
	}
}
