// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command backlot is a signed catalog API client and the HTTP entry point
// of the resolution pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	xglog "github.com/ManuGH/backlot/internal/log"
	"github.com/ManuGH/backlot/internal/version"
)

func main() {
	xglog.Configure(xglog.Config{Level: "info", Service: "backlot", Version: version.Version})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
