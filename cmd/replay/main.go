package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2beens/powerpush/internal/config"
	"github.com/2beens/powerpush/internal/logging"
	"github.com/2beens/powerpush/internal/pushups"
	"github.com/2beens/powerpush/internal/replog"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("replay: %s", err)
	}
}

func run() error {
	inPath := flag.String("in", "-", "JSON-lines frames file, - for stdin")
	csvPath := flag.String("csv", "pushup_log.csv", "CSV repetition log, empty to disable")
	configPath := flag.String("config", "", "optional TOML config file with the push-up settings")
	env := flag.String("env", "development", "environment section of the config file")
	weight := flag.Float64("weight", 0, "body weight in kg, overrides the config")
	sessionID := flag.String("session", "", "session id used in the records, defaults to the start time")
	bell := flag.Bool("bell", true, "ring the terminal bell on milestones")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	// stdout carries the milestones and the summary
	if err := logging.Setup(logging.LoggerSetupParams{
		Output:      os.Stderr,
		LogLevel:    *logLevel,
		ServiceName: "powerpush-replay",
	}); err != nil {
		return fmt.Errorf("logging setup: %w", err)
	}

	cfg := pushups.DefaultConfig()
	if *configPath != "" {
		serviceCfg, err := config.Load(*env, *configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = serviceCfg.Pushups
	}
	if *weight > 0 {
		cfg.BodyWeightKg = *weight
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("push-up config: %w", err)
	}

	var in io.Reader = os.Stdin
	if *inPath != "-" {
		f, err := os.Open(*inPath)
		if err != nil {
			return fmt.Errorf("open frames: %w", err)
		}
		defer f.Close()
		in = f
	}

	var csvSink *replog.CSVSink
	if *csvPath != "" {
		var err error
		csvSink, err = replog.NewCSVSink(*csvPath)
		if err != nil {
			return fmt.Errorf("open csv log: %w", err)
		}
		defer func() {
			if err := csvSink.Close(); err != nil {
				log.Errorf("close csv log: %s", err)
			}
		}()
	}

	id := *sessionID
	if id == "" {
		id = "replay-" + time.Now().Format("20060102-150405")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := replayParams{
		SessionID: id,
		Config:    cfg,
		Bell:      *bell,
	}
	if csvSink != nil {
		params.Sink = csvSink
	}

	summary, err := replay(ctx, in, os.Stdout, params)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, summary)
	if *csvPath != "" {
		log.Infof("repetitions logged to %s", *csvPath)
	}
	return nil
}
