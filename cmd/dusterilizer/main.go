package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"dusterilizer-go/services/config"
	"dusterilizer-go/services/hal"
	"dusterilizer-go/services/metrics"
	"dusterilizer-go/services/orchestrator"
	"dusterilizer-go/services/publish"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		slog.Error("dusterilizer stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("dusterilizer", pflag.ExitOnError)
	config.Flags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.General.SlogLevel()})
	log := slog.New(handler)
	slog.SetDefault(log)
	log.Info("dusterilizer is initializing", "config_index", cfg.ConfigIndex, "mqtt", cfg.MQTT.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	i2c, err := hal.OpenPeriphI2C(cfg.I2C.Bus, cfg.I2C.FreqHz)
	if err != nil {
		return fmt.Errorf("opening i2c %s: %w", cfg.I2C.Bus, err)
	}
	defer i2c.Close()

	hw := orchestrator.Hardware{I2C: i2c}
	if chip, err := hal.OpenGPIO(cfg.GPIO.Chip); err != nil {
		log.Warn("gpio unavailable, using in-memory lines", "chip", cfg.GPIO.Chip, "error", err)
	} else {
		defer chip.Close()
		hw.GPIO = chip
	}
	if cfg.MQTT.Enabled {
		hw.MQTT = publish.NewPahoClient(publish.PahoOptions{
			Broker:         cfg.MQTT.Broker,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			PublishTimeout: cfg.MQTT.PublishTimeout,
			Logger:         log,
		})
	}

	o, err := orchestrator.New(ctx, cfg, hw, orchestrator.Options{Logger: log, Metrics: metrics.New()})
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	err = o.Run(ctx)
	log.Info("dusterilizer shut down")
	return err
}
