// Package main provides the bindx CLI for inspecting configuration sources.
//
// Overview:
//   - Responsibility: merge configuration loaders the way a binder sees them,
//     print keys and run registry conversions on single values
//   - Key Types: cobra command tree built by newRootCmd
//   - Concurrency Model: single-threaded CLI execution
//   - Error Semantics: errors are printed with their code and exit status 1
//   - Performance Notes: every command loads its sources once
//
// Usage:
//
//	bindx keys --file app.yaml --env-prefix APP_
//	bindx get server.port --file app.yaml
//	bindx convert limits --file app.yaml --map , --value int
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bindx: %v\n", err)
		os.Exit(1)
	}
}
