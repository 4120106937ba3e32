// Command unitoracle serves unitsolver/remote's wire protocol over a
// listener, answering unit-propagation requests with unitsolver/local's
// in-process solver, so many grounder processes can share one oracle.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tuffy/config"
	"tuffy/metrics"
	"tuffy/unitsolver/local"
	"tuffy/unitsolver/remote"
)

var (
	network    string
	addr       string
	verbose    bool
	configPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unitoracle",
		Short: "serve unit-propagation requests over the remote wire protocol",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&network, "network", "tcp", "listener network: tcp or unix")
	cmd.Flags().StringVar(&addr, "addr", ":9999", "listen address (a socket path for unix)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	cmd.Flags().StringVar(&configPath, "config", "", "optional config file; log_level is hot-reloaded on write")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	level := zap.NewAtomicLevel()
	level.SetLevel(zapcore.InfoLevel)
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if !verbose {
			level.SetLevel(parseLevel(cfg.LogLevel))
		}
	}

	log, err := newLogger(level)
	if err != nil {
		return err
	}
	defer log.Sync()
	sink := metrics.New(log)

	ln, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("unitoracle: listen %s %s: %w", network, addr, err)
	}
	sink.Infof("unitoracle: listening on %s %s", network, addr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	if configPath != "" && !verbose {
		updates, stopWatch, err := config.Watch(configPath)
		if err != nil {
			return err
		}
		defer stopWatch()
		go watchLogLevel(ctx, updates, level, sink)
	}

	srv := remote.NewServer(local.New(), sink)
	err = srv.Serve(ctx, ln)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// watchLogLevel applies every reloaded config's log_level to the running
// server's atomic level, so an operator can raise verbosity on a live
// oracle without dropping its connections.
func watchLogLevel(ctx context.Context, updates <-chan *config.Config, level zap.AtomicLevel, sink *metrics.Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-updates:
			if !ok {
				return
			}
			level.SetLevel(parseLevel(c.LogLevel))
			sink.Infof("unitoracle: log_level set to %s", c.LogLevel)
		}
	}
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func newLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	cfg.Level = level
	return cfg.Build()
}
