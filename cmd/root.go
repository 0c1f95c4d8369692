package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lrinject/app"
	"github.com/kilianp07/lrinject/config"
	"github.com/kilianp07/lrinject/infra/logger"
)

var (
	cfgPath string
	tap     bool
)

var rootCmd = &cobra.Command{
	Use:   "lrinject",
	Short: "Linear Road input event injector",
	Long: `lrinject waits until the history notifier reports that historical data is
loaded, then replays the car data file into the configured sinks.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().BoolVar(&tap, "tap", false, "print every emitted event as a JSON line")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	if tap {
		events := svc.Subscribe()
		done := make(chan struct{})
		go func() {
			defer close(done)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for em := range events {
				_ = enc.Encode(em)
			}
		}()
		defer func() { <-done }()
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}
