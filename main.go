package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	serve "moto-hail/cmd/server"
	simulate "moto-hail/cmd/simulate"
	"moto-hail/internal/cli"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	mode, modeArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch mode {

	case cli.ModeServe:
		fs := flag.NewFlagSet(cli.ModeServe, flag.ContinueOnError)
		cfgPath := fs.String("config", "./config/config.yaml", "Path to the YAML config file")
		maxConc := fs.Int("max-concurrent", 0, "Maximum concurrent HTTP requests (0 = from config)")
		cli.AttachUsage(fs, cli.ModeServe)

		if err := fs.Parse(modeArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if err := serve.Run(ctx, *cfgPath, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeSimulate:
		fs := flag.NewFlagSet(cli.ModeSimulate, flag.ContinueOnError)
		drivers := fs.Int("drivers", 1, "Number of simulated driver sessions")
		customers := fs.Int("customers", 2, "Number of simulated customer sessions")
		duration := fs.Duration("duration", 60*time.Second, "How long to run the simulation")
		cli.AttachUsage(fs, cli.ModeSimulate)

		if err := fs.Parse(modeArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *drivers < 1 || *customers < 1 {
			fmt.Fprintln(os.Stderr, "Error: --drivers and --customers must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := simulate.Run(ctx, *drivers, *customers, *duration); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}
