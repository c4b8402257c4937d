package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"azure-prompt/internal/cli"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the process environment and config file still apply.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
