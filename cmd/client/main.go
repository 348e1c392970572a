// Package main provides the call client entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/mkymd/voiceroom/internal/app/audio"
	"github.com/mkymd/voiceroom/internal/app/notification"
	"github.com/mkymd/voiceroom/internal/app/session"
	"github.com/mkymd/voiceroom/internal/domain/identity"
	"github.com/mkymd/voiceroom/internal/infra/config"
	"github.com/mkymd/voiceroom/internal/infra/logger"
	"github.com/mkymd/voiceroom/internal/infra/roomapi"
	signalinfra "github.com/mkymd/voiceroom/internal/infra/signal"
)

var (
	app        = kingpin.New("voiceroom", "voiceroom call client")
	configPath = app.Flag("config", "Path to config file (built-in defaults when omitted)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	joinCmd  = app.Command("join", "Join the call room").Default()
	joinName = joinCmd.Arg("name", "Display name").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Initialize logger from config; flags take precedence.
	if err := logger.Init(buildLoggerConfig(cfg, *verbose, *logfile)); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	switch command {
	case joinCmd.FullCommand():
		if err := run(cfg, *joinName); err != nil {
			zlog.Error().Msgf("Client error: %v", err)
			os.Exit(1)
		}
	}
}

// buildLoggerConfig derives the logger setup from the config file,
// overridden by command-line flags when given.
func buildLoggerConfig(cfg *config.Config, verbose bool, logfile string) logger.Config {
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}
	if loggerConfig.Output != "" && loggerConfig.Output != "stdout" && loggerConfig.Output != "stderr" && loggerConfig.File == "" {
		loggerConfig.File = loggerConfig.Output
	}
	if verbose {
		loggerConfig.Level = "debug"
	}
	if logfile != "" {
		loggerConfig.Output = logfile
		loggerConfig.File = logfile
	}
	return loggerConfig
}

// consoleSink renders notices to the terminal.
type consoleSink struct{}

func (consoleSink) Send(n notification.Notice) error {
	fmt.Printf("[%s] %s\n", n.Severity, n.Message)
	return nil
}

// consolePlayer stands in for a real audio device.
type consolePlayer struct{}

func (consolePlayer) Start() error {
	fmt.Println("Audio output enabled.")
	return nil
}

func (consolePlayer) Stop() {
	fmt.Println("Audio output stopped.")
}

func run(cfg *config.Config, nameArg string) error {
	notifier := notification.NewManager()
	defer notifier.Close()
	notifier.Subscribe(consoleSink{})

	gate := audio.NewGate(consolePlayer{})

	ctrl := session.NewController(session.Config{
		ConnectFailedMessage: cfg.Messages.ConnectFailed,
		SessionLostMessage:   cfg.Messages.SessionLost,
	}, notifier, gate)
	defer ctrl.Close()

	// Single reader goroutine owns stdin.
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	if err := ctrl.AwaitName(); err != nil {
		return err
	}
	name, err := promptName(lines, cfg, nameArg)
	if err != nil {
		return err
	}
	if err := startSession(ctrl, cfg, name); err != nil {
		return err
	}

	for {
		select {
		case e := <-ctrl.Events():
			switch e.Type {
			case session.EventPhaseChanged:
				switch e.Phase {
				case session.PhaseActive:
					fmt.Printf("In the call as %q. %s\n", ctrl.Snapshot().ParticipantName, cfg.Messages.AudioPrompt)
				case session.PhaseErrored:
					fmt.Println("Type r to retry or q to quit.")
				case session.PhaseIdle:
					fmt.Println("Call ended.")
					return nil
				}
			case session.EventAudioEnabled:
				// The gate already announced itself.
			}

		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if err := handleLine(ctrl, cfg, lines, line); err != nil {
				return err
			}

		case <-sig:
			if err := ctrl.Hangup(); errors.Is(err, session.ErrNotInCall) {
				return nil
			}
			// Wait for the idle event to confirm teardown.
		}
	}
}

// handleLine interprets a line of user input against the current phase.
func handleLine(ctrl *session.Controller, cfg *config.Config, lines chan string, line string) error {
	snap := ctrl.Snapshot()
	switch snap.Phase {
	case session.PhaseActive:
		// Any keypress is the audio-unlock gesture.
		if !snap.AudioEnabled {
			if err := ctrl.EnableAudio(); err != nil {
				zlog.Warn().Msgf("Audio enable failed: %v", err)
			}
		}

	case session.PhaseErrored:
		switch line {
		case "q":
			return errors.New("aborted after error")
		case "r", "":
			if err := ctrl.Retry(); err != nil {
				return err
			}
			name, err := promptName(lines, cfg, "")
			if err != nil {
				return err
			}
			return startSession(ctrl, cfg, name)
		}
	}
	return nil
}

// promptName captures a valid display name, re-prompting until the
// input survives validation.
func promptName(lines chan string, cfg *config.Config, initial string) (string, error) {
	in := identity.NewInput(cfg.Client.MaxNameLength)
	in.Set(initial)
	for {
		if in.CanSubmit() {
			return in.Submit()
		}
		fmt.Printf("%s — enter your name (1-%d characters): ", cfg.Client.StartLabel, in.MaxLength())
		line, ok := <-lines
		if !ok {
			return "", errors.New("stdin closed before a name was entered")
		}
		in.Set(line)
	}
}

// startSession wires a gateway for the participant and begins the
// join. The ticket fetch is skipped when no API is configured.
func startSession(ctrl *session.Controller, cfg *config.Config, name string) error {
	var ticket *roomapi.Ticket
	if cfg.API.BaseURL != "" {
		api := roomapi.New(roomapi.Config{
			BaseURL:   cfg.API.BaseURL,
			AuthToken: cfg.API.AuthToken,
			Timeout:   time.Duration(cfg.API.TimeoutMs) * time.Millisecond,
		})
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.API.TimeoutMs)*time.Millisecond)
		defer cancel()

		t, err := api.FetchTicket(ctx, cfg.Room.Name, name)
		if err != nil {
			return errors.Wrap(err, "ticket fetch failed")
		}
		ticket = t
	}

	gw, err := signalinfra.NewGatewayFromConfig(cfg, ticket, ctrl)
	if err != nil {
		return err
	}
	ctrl.SetGateway(gw)

	fmt.Printf("Joining %q as %q...\n", cfg.Room.Name, name)
	return ctrl.Begin(name)
}
