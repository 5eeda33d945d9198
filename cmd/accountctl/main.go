// Command accountctl is a terminal frontend for the storefront account API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront_accounts/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := cli.Env{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
	if err := cli.Run(ctx, os.Args[1:], env); err != nil {
		fmt.Fprintf(os.Stderr, "accountctl: %v\n", err)
		os.Exit(1)
	}
}
