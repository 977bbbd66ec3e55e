// Command bootstrapcmdtest runs one transcript step against a throwaway
// template clone. See tool.go for the fixture layout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tool, err := newToolFromExecutable()
	if err != nil {
		fmt.Fprintln(os.Stderr, "bootstrapcmdtest:", err)
		os.Exit(1)
	}
	code := tool.runCLI(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
