package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattsolo1/grove-codetree/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd, closeService := cmd.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if cerr := closeService(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to close: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}
