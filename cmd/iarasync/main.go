// Command iarasync reconciles the origin store into the target store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// populated at build time
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().Execute(ctx, os.Args[1:]); err != nil {
		if msg := exitMessage(err); msg != "" {
			_, _ = os.Stderr.WriteString(msg + "\n")
		}
		cancel()
		os.Exit(1)
	}
}
