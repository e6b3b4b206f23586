// Command chatsrv runs the broadcast chat server: a TCP listener speaking
// the newline-delimited text protocol, plus an optional websocket gateway
// into the same room.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"linechat/internal/chat"
	"linechat/internal/chat/gateway"
	"linechat/internal/chat/history"
	"linechat/internal/chat/roster"
	"linechat/internal/config"
	"linechat/pkg/semver"
)

// Version - server version fingerprint.
var Version = semver.V{Minor: 4}.String()

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "chatsrv",
	Short:   "Line-oriented broadcast chat server over TCP",
	Version: Version,
	Long: `chatsrv accepts identified clients over TCP, negotiates a unique
username with each one and fans every chat line out to all other members.
An optional websocket gateway admits browser clients into the same room.`,
	RunE: run,
}

// newLogger builds the server logger at the configured level; --verbose
// forces debug regardless of config.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func init() {
	rootCmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML configuration file")
	rootCmd.Flags().String("ip", "", "Listen address (overrides config)")
	rootCmd.Flags().Uint16("port", 0, "Listen port (overrides config)")
	rootCmd.Flags().Int("history-greets", -1, "History lines replayed to a new member (overrides config)")
	rootCmd.Flags().String("ws", "", "Websocket gateway address, e.g. :8080 (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("ip") {
		cfg.Listen.IP, _ = cmd.Flags().GetString("ip")
	}
	if cmd.Flags().Changed("port") {
		cfg.Listen.Port, _ = cmd.Flags().GetUint16("port")
	}
	if cmd.Flags().Changed("history-greets") {
		cfg.History.Greets, _ = cmd.Flags().GetInt("history-greets")
	}
	if cmd.Flags().Changed("ws") {
		cfg.Gateway.Addr, _ = cmd.Flags().GetString("ws")
		cfg.Gateway.Enabled = cfg.Gateway.Addr != ""
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("unable to listen: %w", err)
	}
	logger.Info("listening", zap.String("addr", cfg.Addr()), zap.String("version", Version))

	members, err := roster.New(roster.WithLogger(logger))
	if err != nil {
		return err
	}

	var greets chat.MessageHistory
	if cfg.History.Greets > 0 {
		greets, err = history.NewStack(cfg.History.Greets)
		if err != nil {
			return err
		}
	}

	handler := chat.NewHandler(members, greets, cfg.History.Greets, logger)
	server, err := chat.NewServer(handler, logger)
	if err != nil {
		return err
	}
	go server.Serve(listener)

	var ws *gateway.Server
	if cfg.Gateway.Enabled {
		ws, err = gateway.New(handler, logger)
		if err != nil {
			return err
		}
		go func() {
			logger.Info("websocket gateway listening", zap.String("addr", cfg.Gateway.Addr))
			if err := ws.ListenAndServe(cfg.Gateway.Addr); err != nil {
				logger.Error("websocket gateway failed", zap.Error(err))
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info("got stop signal")

	if ws != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ws.Shutdown(ctx); err != nil {
			logger.Warn("gateway shutdown failed", zap.Error(err))
		}
	}
	logger.Info("stopped", zap.Duration("shutdown", server.Shutdown(10*time.Second)))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
