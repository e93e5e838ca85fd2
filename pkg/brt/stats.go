// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry

package brt

import (
	"fmt"
	"strings"
)

// String returns a formatted statistics summary.
func (s Stats) String() string {
	var sb strings.Builder
	sb.WriteString("=== Link Statistics ===\n")
	fmt.Fprintf(&sb, "Frames:     %d sent, %d received\n", s.FramesSent, s.FramesReceived)
	fmt.Fprintf(&sb, "Rejected:   %d CRC mismatch, %d oversized\n", s.Decoder.CRCErrors, s.Decoder.Oversized)
	fmt.Fprintf(&sb, "Dropped:    %d rx bytes, %d tx bytes, %d truncated frames\n", s.RxDropped, s.TxDropped, s.TruncatedFrames)
	fmt.Fprintf(&sb, "Line noise: %d bytes discarded\n", s.Decoder.Discarded)
	return sb.String()
}
