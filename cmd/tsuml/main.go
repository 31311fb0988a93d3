// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command tsuml draws UML class diagrams from TypeScript sources.
//
// Files are resolved in import order, declarations are turned into
// classes, interfaces, enums, type aliases and functions, and the result
// is written as yEd GraphML, Mermaid or JSON.
//
// Usage:
//
//	tsuml render --include src --alias @src=./src --out diagram.graphml
//	tsuml render --config tsuml.yaml --watch
//	tsuml order --include src
//	tsuml version
//
// Settings are layered: TSUML_* environment variables (and .env), then
// tsuml.yaml, then flags.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
