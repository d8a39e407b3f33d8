// Command chatwarden runs the live-chat spam detection pipeline: it
// discovers live broadcasts for a configured set of channels, polls
// their chat, scores each participant's behavior, and emits decisions
// to whichever sinks are configured. It renders no UI of its own.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sipeed/chatwarden/internal/config"
	"github.com/sipeed/chatwarden/internal/console"
	"github.com/sipeed/chatwarden/internal/controller"
	"github.com/sipeed/chatwarden/internal/detector"
	"github.com/sipeed/chatwarden/internal/eventfeed"
	"github.com/sipeed/chatwarden/internal/fabric"
	"github.com/sipeed/chatwarden/internal/logctl"
	"github.com/sipeed/chatwarden/internal/notify"
	"github.com/sipeed/chatwarden/internal/ytlive"
)

// version is set via -ldflags at release build time; "dev" covers
// local builds.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "chatwarden",
		Short: "YouTube live-chat spam and abuse detector",
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the chatwarden version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the detection pipeline and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logctl.Init(logctl.Config{Level: parseLevel(cfg.LogLevel), Format: logctl.Format(cfg.LogFormat)})

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	settings := ytlive.RequestSettings{
		UserAgent:      cfg.UserAgent,
		BrowserName:    cfg.BrowserName,
		BrowserVersion: cfg.BrowserVersion,
	}

	out := fabric.New[detector.OutMessage]()
	defer out.Done()

	ctrl := controller.New(ctx, settings, ytlive.DefaultDetectorParams(), cfg.StreamPollInterval, cfg.RequestsPerSecond, out.Sender())

	for _, channel := range cfg.Channels {
		if _, err := ctrl.Sender().Send(ctx, controller.AddChannel{Channel: ytlive.ChannelID(channel)}); err != nil {
			logctl.Warn("chatwarden", "failed to register channel", map[string]any{"channel": channel, "error": err.Error()})
		}
	}

	sinks, closers := buildSinks(cfg)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	dispatcher := notify.NewDispatcher(sinks...)

	dispatcherIn := fabric.New[detector.OutMessage]()
	defer dispatcherIn.Done()
	go dispatcher.Run(ctx, dispatcherIn)

	var feedIn *fabric.Chan[detector.OutMessage]
	if cfg.EventFeedAddr != "" {
		feedIn = fabric.New[detector.OutMessage]()
		defer feedIn.Done()
		hub := eventfeed.NewHub(cfg.EventFeedAddr)
		go hub.Run(ctx, feedIn)
	}

	go fanOut(ctx, out, dispatcherIn.Sender(), feedIn)

	var con *console.Console
	if cfg.ConsoleEnabled {
		con, err = console.New(ctrl)
		if err != nil {
			return fmt.Errorf("starting console: %w", err)
		}
		go func() {
			con.Run(ctx)
			cancel()
		}()
	}

	<-ctx.Done()
	if con != nil {
		con.Close()
	}
	ctrl.Sender().Send(context.Background(), controller.Close{})
	ctrl.Wait()
	return nil
}

// fanOut drains the pipeline's single detector output stream and
// republishes each event to every downstream consumer (the notify
// dispatcher, and the event feed hub when it's configured). feed may
// be nil when no event feed address was configured.
func fanOut(ctx context.Context, in *fabric.Chan[detector.OutMessage], dispatcherTx *fabric.Sender[detector.OutMessage], feed *fabric.Chan[detector.OutMessage]) {
	var feedTx *fabric.Sender[detector.OutMessage]
	if feed != nil {
		feedTx = feed.Sender()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-in.In():
			dispatcherTx.Send(ctx, msg)
			if feedTx != nil {
				feedTx.Send(ctx, msg)
			}
		}
	}
}

type closer interface {
	Close() error
}

func buildSinks(cfg config.Config) ([]notify.Sink, []closer) {
	sinks := []notify.Sink{&notify.LogSink{}}
	var closers []closer

	if cfg.DiscordWebhookURL != "" {
		sink, err := notify.NewDiscordSink(cfg.DiscordWebhookURL)
		if err != nil {
			logctl.Warn("chatwarden", "discord sink disabled", map[string]any{"error": err.Error()})
		} else {
			sinks = append(sinks, sink)
		}
	}
	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlackSink(cfg.SlackWebhookURL))
	}
	if cfg.AuditDBPath != "" {
		sink, err := notify.NewSQLiteSink(cfg.AuditDBPath)
		if err != nil {
			logctl.Warn("chatwarden", "audit sink disabled", map[string]any{"error": err.Error()})
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink)
		}
	}

	return sinks, closers
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
