// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Meshfoundry
//
// brlink - Border Router Link Tool
//
// A CLI tool for exercising and monitoring the HDLC-style framed link
// between a mesh node and its border router.

package main

import (
	"os"

	"github.com/meshfoundry/brlink/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
