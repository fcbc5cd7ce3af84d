// Command kasbi is a terminal client for the KASBI backend of BPMP Papua:
// login, the KASBI chatbot, and the admin document and account screens.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kasbi-client/internal/config"
	"kasbi-client/internal/pkg/httpclient"

	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, release := newRootCmd(config.Load)
	err := cmd.ExecuteContext(ctx)
	if closeErr := release(ctx); err == nil {
		err = closeErr
	}
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", httpclient.UserMessage(err, err.Error()))
		stop()
		os.Exit(1)
	}
}
