package config

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"

	"jordanella.com/chat-bridge-go/internal/recorder"
)

// Config holds all bridge settings.
type Config struct {
	// [Recorder]
	FPS            int
	Scale          float64
	MaxDurationSec int
	OutputDir      string
	RegionPreset   string
	JPEGQuality    int

	// [Automation]
	ScrollIntervalSec int
	PanelIntervalSec  int
	CheckIntervalSec  int
	GraceSec          int
	ConfirmHits       int
	ScrollAnchorLift  int
	ScrollTicks       int
	SettleDelayMS     int
	WindowTitle       string

	// [Templates]
	TemplatesDir      string
	TemplatesManifest string

	// [Telegram]
	TelegramToken string
	TelegramChat  int64
	AutoRecord    bool

	// [Journal]
	JournalPath string

	// [Logging]
	LogLevel string
}

// Load reads Settings.ini from path. A missing file yields the
// defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	recorderSec := cfg.Section("Recorder")
	automation := cfg.Section("Automation")
	tmplSec := cfg.Section("Templates")
	telegram := cfg.Section("Telegram")
	journalSec := cfg.Section("Journal")
	loggingSec := cfg.Section("Logging")

	config := &Config{}

	config.FPS = recorderSec.Key("fps").MustInt(8)
	config.Scale = recorderSec.Key("scale").MustFloat64(0.5)
	config.MaxDurationSec = recorderSec.Key("maxDurationSec").MustInt(120)
	config.OutputDir = recorderSec.Key("outputDir").MustString("outbox")
	config.RegionPreset = recorderSec.Key("region").MustString("right")
	config.JPEGQuality = recorderSec.Key("jpegQuality").MustInt(75)

	config.ScrollIntervalSec = automation.Key("scrollIntervalSec").MustInt(3)
	config.PanelIntervalSec = automation.Key("panelIntervalSec").MustInt(2)
	config.CheckIntervalSec = automation.Key("checkIntervalSec").MustInt(2)
	config.GraceSec = automation.Key("graceSec").MustInt(2)
	config.ConfirmHits = automation.Key("confirmHits").MustInt(1)
	config.ScrollAnchorLift = automation.Key("scrollAnchorLift").MustInt(200)
	config.ScrollTicks = automation.Key("scrollTicks").MustInt(-10)
	config.SettleDelayMS = automation.Key("settleDelayMs").MustInt(300)
	config.WindowTitle = automation.Key("windowTitle").MustString("AntiGravity")

	config.TemplatesDir = tmplSec.Key("dir").MustString("anchors")
	config.TemplatesManifest = tmplSec.Key("manifest").MustString("anchors/templates.yaml")

	config.TelegramToken = telegram.Key("token").MustString("")
	config.TelegramChat = telegram.Key("chatId").MustInt64(0)
	config.AutoRecord = telegram.Key("autoRecord").MustBool(true)

	config.JournalPath = journalSec.Key("path").MustString("bridge.db")

	config.LogLevel = loggingSec.Key("level").MustString("info")

	return config, nil
}

// RecorderOptions maps the config onto recorder options.
func (c *Config) RecorderOptions() recorder.Options {
	opts := recorder.DefaultOptions()
	opts.FPS = c.FPS
	opts.Scale = c.Scale
	opts.MaxDuration = time.Duration(c.MaxDurationSec) * time.Second
	opts.OutputDir = c.OutputDir
	opts.JPEGQuality = c.JPEGQuality
	opts.ScrollInterval = time.Duration(c.ScrollIntervalSec) * time.Second
	opts.PanelInterval = time.Duration(c.PanelIntervalSec) * time.Second
	opts.CheckInterval = time.Duration(c.CheckIntervalSec) * time.Second
	opts.GracePeriod = time.Duration(c.GraceSec) * time.Second
	opts.ConfirmHits = c.ConfirmHits
	opts.ScrollAnchorLift = c.ScrollAnchorLift
	opts.ScrollTicks = c.ScrollTicks
	opts.SettleDelay = time.Duration(c.SettleDelayMS) * time.Millisecond
	return opts
}
