package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/AnyUserName/hueswap/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hueswap: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
