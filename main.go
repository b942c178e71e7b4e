package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/eon-ic/rofi-rwifi/internal/cache"
	"github.com/eon-ic/rofi-rwifi/internal/config"
	"github.com/eon-ic/rofi-rwifi/internal/connect"
	"github.com/eon-ic/rofi-rwifi/internal/daemon"
	"github.com/eon-ic/rofi-rwifi/internal/launcher"
	"github.com/eon-ic/rofi-rwifi/internal/menu"
	"github.com/eon-ic/rofi-rwifi/internal/notify"
	"github.com/eon-ic/rofi-rwifi/internal/refresh"
	"github.com/eon-ic/rofi-rwifi/wifi"
)

var (
	// Version is the version of the application. It is set at build time.
	Version string = "dev"
)

// radioSettle is how long to wait after enabling the radio before the
// forced rescan; scanning immediately returns an empty list.
const radioSettle = 2 * time.Second

func main() {
	var (
		rootFlagSet = flag.NewFlagSet("rofi-rwifi", flag.ExitOnError)
		verbose     = rootFlagSet.Bool("verbose", false, "enable debug logging (env: RWIFI_VERBOSE)")
		version     = rootFlagSet.Bool("version", false, "display version")
	)

	err := ff.Parse(rootFlagSet, os.Args[1:],
		ff.WithEnvVarPrefix("RWIFI"),
		ff.WithIgnoreUndefined(true), // Ignore subcommand flags for now
	)
	if err != nil {
		if err == flag.ErrHelp {
			rootFlagSet.Usage()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *version {
		fmt.Println(Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	backend, err := GetBackend(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	coordinator := refresh.New(cache.New(config.CachePath()), backend,
		config.LockPath(), cfg.TTL(), cfg.StaleFactor, logger)

	daemonCmd := &ffcli.Command{
		Name:      "daemon",
		ShortHelp: "Run the background cache refresher",
		Exec: func(ctx context.Context, args []string) error {
			d := &daemon.Daemon{
				PIDPath:  config.PIDPath(),
				Refresh:  coordinator,
				Interval: cfg.TTL(),
				Logger:   logger,
			}
			return d.Run()
		},
	}

	daemonStopCmd := &ffcli.Command{
		Name:      "daemon-stop",
		ShortHelp: "Stop a running background refresher",
		Exec: func(ctx context.Context, args []string) error {
			return daemon.Stop(config.PIDPath())
		},
	}

	scanFlagSet := flag.NewFlagSet("scan", flag.ExitOnError)
	scanJSON := scanFlagSet.Bool("json", false, "output in JSON format")
	scanCmd := &ffcli.Command{
		Name:      "scan",
		ShortHelp: "Force a scan and print the networks",
		FlagSet:   scanFlagSet,
		Exec: func(ctx context.Context, args []string) error {
			return runScan(os.Stdout, *scanJSON, coordinator)
		},
	}

	root := &ffcli.Command{
		ShortUsage:  "rofi-rwifi [flags] <subcommand> [args...]",
		FlagSet:     rootFlagSet,
		Subcommands: []*ffcli.Command{daemonCmd, daemonStopCmd, scanCmd},
		Exec: func(ctx context.Context, args []string) error {
			runMenu(cfg, backend, coordinator, logger)
			return nil
		},
	}

	if err := root.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runMenu wires the interactive session and blocks until the user quits.
func runMenu(cfg config.Config, backend wifi.Backend, coordinator *refresh.Coordinator, logger *slog.Logger) {
	rofi := &launcher.Rofi{
		Font:     cfg.Font,
		Position: cfg.Position,
		XOffset:  cfg.XOffset,
		YOffset:  cfg.YOffset,
	}
	notifier := notify.New(logger)

	loop := &menu.Loop{
		Backend: backend,
		Refresh: coordinator,
		Launch:  rofi,
		Notify:  notifier,
		Logger:  logger,
		Config:  cfg,
		Connector: &connect.Machine{
			Backend:   backend,
			Prompt:    rofi,
			Notify:    notifier,
			Logger:    logger,
			MaxRetry:  cfg.MaxRetry,
			Timeout:   cfg.Timeout(),
			PingHost:  cfg.PingHost,
			PingCount: cfg.PingCount,
			AutoVPN:   cfg.AutoVPN,
		},
		RenderQR: GenerateWifiQRCode,
		Settle:   radioSettle,
	}
	loop.Run()

	// Let a fired-and-forgotten background scan land in the cache before
	// the process exits.
	coordinator.Wait()
}
