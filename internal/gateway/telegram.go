// Package gateway is the chat-platform edge of the bridge. The core
// never sees it directly: the recorder talks to a Messenger and a
// Scheduler, both implemented here and in relay.
package gateway

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jordanella.com/chat-bridge-go/internal/actuator"
	"jordanella.com/chat-bridge-go/internal/cv"
	"jordanella.com/chat-bridge-go/internal/logging"
	"jordanella.com/chat-bridge-go/internal/recorder"
	"jordanella.com/chat-bridge-go/internal/relay"
)

// RecorderControl is the slice of the recorder the gateway drives.
type RecorderControl interface {
	Start(region cv.Region) (string, error)
	Stop()
	Wait(timeout time.Duration) bool
	Status() recorder.Status
	Screenshot(region cv.Region) (string, error)
}

// HistoryProvider supplies recent session summaries for /status.
type HistoryProvider interface {
	RecentSummaries(limit int) ([]string, error)
}

// Telegram is the chat gateway: it receives commands over long
// polling, drives the recorder, and sends artifacts back. All command
// handling is submitted onto the messaging task loop so gateway state
// is only ever touched from that one goroutine.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	loop   relay.Scheduler
	rec    RecorderControl
	act    actuator.Actuator
	hist   HistoryProvider
	region func() (cv.Region, error)
	log    *logging.Logger

	autoRecord atomic.Bool
	stopCh     chan struct{}
}

// NewTelegram connects to the Telegram bot API.
func NewTelegram(token string, chatID int64, loop relay.Scheduler, rec RecorderControl, act actuator.Actuator, region func() (cv.Region, error)) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram token not configured")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	g := &Telegram{
		bot:    bot,
		chatID: chatID,
		loop:   loop,
		rec:    rec,
		act:    act,
		region: region,
		log:    logging.NewLogger("Gateway"),
		stopCh: make(chan struct{}),
	}
	g.autoRecord.Store(true)

	return g, nil
}

// WithHistory wires the journal into /status replies.
func (g *Telegram) WithHistory(hist HistoryProvider) *Telegram {
	g.hist = hist
	return g
}

// SetAutoRecord flips whether incoming prompts trigger a recording.
func (g *Telegram) SetAutoRecord(enabled bool) {
	g.autoRecord.Store(enabled)
}

// SendFile implements relay.Messenger. Images go out as photos,
// everything else as a document.
func (g *Telegram) SendFile(channelID int64, path, caption string) error {
	var msg tgbotapi.Chattable
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		photo := tgbotapi.NewPhoto(channelID, tgbotapi.FilePath(path))
		photo.Caption = caption
		msg = photo
	default:
		doc := tgbotapi.NewDocument(channelID, tgbotapi.FilePath(path))
		doc.Caption = caption
		msg = doc
	}

	if _, err := g.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", path, err)
	}
	return nil
}

// Run polls for updates until Stop is called. Each update's handling
// is submitted to the task loop; this goroutine only reads the wire.
func (g *Telegram) Run() {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := g.bot.GetUpdatesChan(cfg)

	g.log.InfoWithContext("gateway online", map[string]interface{}{
		"bot": g.bot.Self.UserName,
	})

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Chat.ID != g.chatID {
				continue
			}
			msg := update.Message
			g.loop.Submit(func() { g.handleMessage(msg) })

		case <-g.stopCh:
			g.bot.StopReceivingUpdates()
			return
		}
	}
}

// Stop ends the polling loop.
func (g *Telegram) Stop() {
	close(g.stopCh)
}

// handleMessage runs on the task loop goroutine.
func (g *Telegram) handleMessage(msg *tgbotapi.Message) {
	if msg.IsCommand() {
		g.handleCommand(msg.Command(), strings.TrimSpace(msg.CommandArguments()))
		return
	}

	// A plain message is a prompt for the IDE: bring the window up
	// and, if enabled, record the response as it streams in.
	if !g.autoRecord.Load() {
		return
	}
	if ok := g.act.FocusTargetWindow(); !ok {
		g.log.Warn("could not focus target window")
	}
	g.startRecording()
}

func (g *Telegram) handleCommand(command, args string) {
	switch command {
	case "record":
		g.startRecording()

	case "stop":
		g.rec.Stop()
		if !g.rec.Wait(10 * time.Second) {
			g.reply("Recorder did not stop in time")
			return
		}
		g.reply("Recording stopped")

	case "shot":
		region, err := g.region()
		if err != nil {
			g.reply(fmt.Sprintf("Screenshot failed: %v", err))
			return
		}
		path, err := g.rec.Screenshot(region)
		if err != nil {
			g.reply(fmt.Sprintf("Screenshot failed: %v", err))
			return
		}
		if err := g.SendFile(g.chatID, path, "Screenshot"); err != nil {
			g.log.Error("failed to send screenshot", err)
		}

	case "status":
		g.reply(g.statusText())

	case "autorecord":
		switch strings.ToLower(args) {
		case "on", "true", "1", "enable":
			g.autoRecord.Store(true)
			g.reply("Auto-recording enabled")
		case "off", "false", "0", "disable":
			g.autoRecord.Store(false)
			g.reply("Auto-recording disabled")
		default:
			state := "off"
			if g.autoRecord.Load() {
				state = "on"
			}
			g.reply(fmt.Sprintf("Auto-recording is %s", state))
		}

	default:
		g.reply("Commands: /record /stop /shot /status /autorecord [on|off]")
	}
}

func (g *Telegram) startRecording() {
	region, err := g.region()
	if err != nil {
		g.reply(fmt.Sprintf("Recording failed: %v", err))
		return
	}

	if _, err := g.rec.Start(region); err != nil {
		if errors.Is(err, recorder.ErrAlreadyRecording) {
			g.reply("Already recording")
			return
		}
		g.reply(fmt.Sprintf("Recording failed: %v", err))
	}
}

func (g *Telegram) statusText() string {
	st := g.rec.Status()

	var b strings.Builder
	if st.Recording {
		fmt.Fprintf(&b, "Recording %s: %d frames, %s elapsed\n",
			st.SessionID, st.Frames, st.Elapsed.Round(time.Second))
	} else {
		b.WriteString("Idle")
		if st.LastReason != "" {
			fmt.Fprintf(&b, " (last session: %s)", st.LastReason)
		}
		b.WriteString("\n")
	}

	if g.hist != nil {
		if lines, err := g.hist.RecentSummaries(5); err == nil && len(lines) > 0 {
			b.WriteString("Recent sessions:\n")
			for _, line := range lines {
				b.WriteString("  " + line + "\n")
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (g *Telegram) reply(text string) {
	if _, err := g.bot.Send(tgbotapi.NewMessage(g.chatID, text)); err != nil {
		g.log.Error("failed to send reply", err)
	}
}
