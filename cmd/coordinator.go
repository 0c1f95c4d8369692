package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	corecoord "github.com/kilianp07/lrinject/core/coordinator"
	"github.com/kilianp07/lrinject/infra/coordinator"
	"github.com/kilianp07/lrinject/infra/logger"
)

var (
	coordAddr   string
	coordWait   time.Duration
	loadedAfter time.Duration
)

var coordinatorCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Talk to or emulate the history loading notifier",
}

var coordStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Ask whether history loading finished (done?)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return askCoordinator(cmd, func(ctx context.Context, c *coordinator.Client) corecoord.Reply {
			return c.QueryReadiness(ctx)
		})
	},
}

var coordRUOKCmd = &cobra.Command{
	Use:   "ruok",
	Short: "Check that the notifier is alive (ruok)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return askCoordinator(cmd, func(ctx context.Context, c *coordinator.Client) corecoord.Reply {
			return c.CheckLiveness(ctx)
		})
	},
}

var coordShutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Ask the notifier to stop (shtdn)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := coordinatorClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), coordWait)
		defer cancel()
		if err := c.RequestShutdown(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "shutdown sent to %s\n", c.Addr())
		return err
	},
}

var coordServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a notifier that reports loaded after a delay",
	RunE:  runCoordServe,
}

func init() {
	coordinatorCmd.PersistentFlags().StringVar(&coordAddr, "addr", "localhost:8084", "notifier address")
	coordinatorCmd.PersistentFlags().DurationVar(&coordWait, "timeout", 5*time.Second, "overall timeout of one command")
	coordServeCmd.Flags().DurationVar(&loadedAfter, "loaded-after", 0, "report loaded after this delay")
	coordinatorCmd.AddCommand(coordStatusCmd, coordRUOKCmd, coordShutdownCmd, coordServeCmd)
	rootCmd.AddCommand(coordinatorCmd)
}

func coordinatorClient() (*coordinator.Client, error) {
	host, port, err := net.SplitHostPort(coordAddr)
	if err != nil {
		return nil, fmt.Errorf("addr: %w", err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("addr port: %w", err)
	}
	cfg := coordinator.Config{Host: host, Port: p}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return coordinator.NewClient(cfg), nil
}

func askCoordinator(cmd *cobra.Command, ask func(context.Context, *coordinator.Client) corecoord.Reply) error {
	c, err := coordinatorClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), coordWait)
	defer cancel()
	r := ask(ctx, c)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), r); err != nil {
		return err
	}
	if r.Status == corecoord.StatusUnknown {
		return r.Err
	}
	return nil
}

func runCoordServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.New("notifier")

	srv := coordinator.NewServer(coordAddr)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = srv.Close() }()
	log.Infof("notifier listening on %s", srv.Addr())

	timer := time.AfterFunc(loadedAfter, func() {
		srv.SetLoaded(true)
		log.Infof("history marked as loaded")
	})
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-srv.ShutdownRequested():
		log.Infof("shutdown requested by client")
	}
	log.Infof("notifier stopping after %d commands", srv.Handled())
	return nil
}
