package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/finishline/internal/fakeapi"
	"github.com/okian/finishline/pkg/logger"
)

func main() {
	var (
		cfg fakeapi.Config
		cli fakeapi.CLI
	)
	fs := fakeapi.NewFlagSet(os.Args[0], &cfg, &cli)
	fs.Usage = func() { fakeapi.ShowHelp(os.Stderr) }
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if cli.Help {
		fakeapi.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if cli.Verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fakeapi.Run(ctx, &cfg); err != nil {
		logger.Get().Error(ctx, "fake API failed", logger.Error(err))
		os.Exit(1)
	}
}
