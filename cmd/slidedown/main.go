package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pwnholic/slidedown/internal"
)

func init() {
	internal.InitDefaultLogger(internal.INFO)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	startTime := time.Now()

	customFlag, err := parseFlag(args)
	if err != nil {
		internal.Error("%s", err.Error())
		printUsage(os.Stderr)
		return 1
	}
	if customFlag.Help {
		printUsage(os.Stdout)
		return 0
	}

	cfg, err := loadConfig(customFlag.set, customFlag.ConfigFile)
	if err != nil {
		internal.Error("Invalid configuration: %s", err.Error())
		return 1
	}

	level, err := internal.ParseLevel(cfg.LogLevel)
	if err != nil {
		internal.Warn("%s, using info", err.Error())
	}
	internal.GetDefaultLogger().SetLevel(level)
	if cfg.LogFile != "" {
		logFile := internal.RotatingFile(cfg.LogFile)
		defer logFile.Close()
		internal.GetDefaultLogger().Tee(logFile)
	}

	if len(customFlag.URLs) == 0 {
		internal.Error("No presentation URL was provided")
		printUsage(os.Stderr)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	internal.Info("Ready to download %d presentation(s)", len(customFlag.URLs))

	process := NewGenerateDeck(cfg.HTTPClientOptions(), cfg)
	defer process.Close()

	summary := process.processDecks(ctx, customFlag.URLs)

	internal.Info("[SUMMARY] Processed %d link(s) in %v", summary.processed, time.Since(startTime).Round(time.Millisecond))
	internal.Info("[SUMMARY] Generated %d PDF file(s), skipped %d, failed %d", summary.generated, summary.skipped, summary.failed)
	internal.Info("[SUMMARY] Embedded %d slide image(s) in total", summary.images)

	if summary.failed > 0 {
		return 1
	}
	internal.Success("All links processed")
	return 0
}
