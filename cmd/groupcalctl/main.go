package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/noah-isme/groupcal-api/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(cli.ContainerLoader).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "groupcalctl:", err)
		os.Exit(1)
	}
}
