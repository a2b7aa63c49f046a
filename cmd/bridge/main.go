package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"jordanella.com/chat-bridge-go/internal/actuator"
	"jordanella.com/chat-bridge-go/internal/config"
	"jordanella.com/chat-bridge-go/internal/cv"
	"jordanella.com/chat-bridge-go/internal/events"
	"jordanella.com/chat-bridge-go/internal/gateway"
	"jordanella.com/chat-bridge-go/internal/journal"
	"jordanella.com/chat-bridge-go/internal/logging"
	"jordanella.com/chat-bridge-go/internal/recorder"
	"jordanella.com/chat-bridge-go/internal/relay"
	"jordanella.com/chat-bridge-go/pkg/templates"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	app := &cli.App{
		Name:    "bridge",
		Usage:   "Chat-to-IDE bridge with automated response recording",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "Settings.ini", Usage: "Path to Settings.ini"},
		},
		Action: runBridge,
		Commands: []*cli.Command{
			recordCmd(),
			shotCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runBridge wires the full pipeline: gateway -> recorder -> relay ->
// gateway, with the journal listening on the event bus.
func runBridge(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	log := logging.NewLogger("Bridge").SetMinLevel(logging.ParseLevel(cfg.LogLevel))

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	capturer := cv.NewScreenCapturer()
	registry := templates.NewRegistry(cfg.TemplatesDir)
	if err := registry.LoadFromFile(cfg.TemplatesManifest); err != nil {
		// Missing calibration just disables template-driven
		// behavior; the recorder still records.
		log.WarnWithContext("template manifest not loaded", map[string]interface{}{
			"manifest": cfg.TemplatesManifest,
			"error":    err.Error(),
		})
	}

	act := actuator.ForPlatform(cfg.WindowTitle)
	bus := events.NewEventBus(64)
	defer bus.Stop()

	jour, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer jour.Close()
	jour.SubscribeTo(bus)

	rec := recorder.NewRecorder(capturer, registry, act, cfg.RecorderOptions()).
		WithEventBus(bus).
		WithLogger(logging.NewLogger("Recorder").SetMinLevel(logging.ParseLevel(cfg.LogLevel)))

	loop := relay.NewTaskLoop(32)
	defer loop.Stop()

	regionFn := func() (cv.Region, error) {
		return cv.ResolvePreset(capturer, cv.RegionPreset(cfg.RegionPreset))
	}

	gw, err := gateway.NewTelegram(cfg.TelegramToken, cfg.TelegramChat, loop, rec, act, regionFn)
	if err != nil {
		return err
	}
	gw.WithHistory(jour)
	gw.SetAutoRecord(cfg.AutoRecord)

	rel := relay.NewRelay(loop, gw, cfg.TelegramChat).WithEventBus(bus)
	rec.OnComplete(rel.OnComplete)

	go gw.Run()
	log.Info("bridge running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	gw.Stop()
	rec.Stop()
	if !rec.Wait(10 * time.Second) {
		log.Warn("recorder did not finalize in time")
	}

	return nil
}

// recordCmd records one session headless and prints the artifact.
func recordCmd() *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record one session to a local file (no chat gateway)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "Settings.ini", Usage: "Path to Settings.ini"},
			&cli.IntFlag{Name: "duration", Aliases: []string{"d"}, Value: 30, Usage: "Max duration in seconds"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			capturer := cv.NewScreenCapturer()
			registry := templates.NewRegistry(cfg.TemplatesDir)
			registry.LoadFromFile(cfg.TemplatesManifest)

			opts := cfg.RecorderOptions()
			opts.MaxDuration = time.Duration(c.Int("duration")) * time.Second

			rec := recorder.NewRecorder(capturer, registry, actuator.ForPlatform(cfg.WindowTitle), opts)

			region, err := cv.ResolvePreset(capturer, cv.RegionPreset(cfg.RegionPreset))
			if err != nil {
				return err
			}

			artifact, err := rec.Start(region)
			if err != nil {
				return err
			}

			if !rec.Wait(opts.MaxDuration + 10*time.Second) {
				return fmt.Errorf("recording did not finish in time")
			}

			fmt.Println(artifact)
			return nil
		},
	}
}

// shotCmd captures a single screenshot and prints its path.
func shotCmd() *cli.Command {
	return &cli.Command{
		Name:  "shot",
		Usage: "Capture a single screenshot of the configured region",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "Settings.ini", Usage: "Path to Settings.ini"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			capturer := cv.NewScreenCapturer()
			rec := recorder.NewRecorder(capturer, templates.NewRegistry(cfg.TemplatesDir), actuator.Nop{}, cfg.RecorderOptions())

			region, err := cv.ResolvePreset(capturer, cv.RegionPreset(cfg.RegionPreset))
			if err != nil {
				return err
			}

			path, err := rec.Screenshot(region)
			if err != nil {
				return err
			}

			fmt.Println(path)
			return nil
		},
	}
}
