package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alicia-server/server/internal/config"
	"github.com/alicia-server/server/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run starts one of the three chat directors — all, private, or
// messenger — selected by -mode, since they share the fixed-key chat
// wire scheme but otherwise run as independent subservers (SPEC_FULL.md
// §2).
func run() error {
	mode := flag.String("mode", "all", "chat subserver to run: all, private, or messenger")
	flag.Parse()

	cfgPath := "config/server.toml"
	if p := os.Getenv("ALICIA_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inst, err := server.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	defer inst.Close()

	switch *mode {
	case "all":
		if err := inst.AddAllChat(); err != nil {
			return fmt.Errorf("start all-chat: %w", err)
		}
		log.Info("all-chat server ready", zap.String("listen", cfg.AllChat.Listen.BindAddr()))
	case "private":
		if err := inst.AddPrivateChat(); err != nil {
			return fmt.Errorf("start private-chat: %w", err)
		}
		log.Info("private-chat server ready", zap.String("listen", cfg.PrivateChat.Listen.BindAddr()))
	case "messenger":
		if err := inst.AddMessenger(); err != nil {
			return fmt.Errorf("start messenger: %w", err)
		}
		log.Info("messenger server ready", zap.String("listen", cfg.Messenger.Listen.BindAddr()))
	default:
		return fmt.Errorf("unknown -mode %q: want all, private, or messenger", *mode)
	}

	return inst.Run(ctx)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
