// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command electionctl inspects elections directly in the database used by
// the API server.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Optional, same as the server
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
