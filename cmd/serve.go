package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/theirongolddev/runway/internal/model"
	"github.com/theirongolddev/runway/internal/server"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve compute, sweep and export over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	opts, err := appCfg.Options()
	if err != nil {
		return err
	}
	if flagPolicy != "" {
		if opts.Policy, err = model.ParsePolicy(flagPolicy); err != nil {
			return err
		}
	}

	addr := flagServeAddr
	if addr == "" {
		addr = appCfg.Server.Addr
	}

	logger.SetFormatter(&logrus.JSONFormatter{})
	// Request lines are logged at info.
	if logger.GetLevel() < logrus.InfoLevel {
		logger.SetLevel(logrus.InfoLevel)
	}

	svc := server.New(server.Config{
		Addr:     addr,
		Options:  opts,
		Bounds:   appCfg.Bounds(),
		RateStep: appCfg.Simulation.RateStep,
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
