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
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/chase/internal/logging"
	"github.com/vovakirdan/chase/internal/platform/tui"
	"github.com/vovakirdan/chase/internal/platform/web"
	"github.com/vovakirdan/chase/internal/storage"
)

var (
	flagSSHAddr     string
	flagHTTPAddr    string
	flagHostKey     string
	flagIdleTimeout int
	flagInterval    time.Duration
	flagServeFPS    int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve simulations over SSH and/or HTTP",
	Long: `Start an SSH server, an HTTP server, or both.

Each SSH connection watches its own simulation. The HTTP server offers:
  GET  /healthz      - liveness
  GET  /config       - the defaults every request starts from
  POST /runs         - run a simulation (body: partial config JSON + seed)
  GET  /runs[/{id}]  - recorded run history
  GET  /ws           - stream a run over a websocket (?rounds=&sheep=&seed=)

With neither --ssh nor --http, the SSH server listens on :23234.
Runs are recorded in the --db database.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.chase/host_key

Examples:
  chase serve                          # SSH on :23234
  chase serve --ssh :2222 --http :8080 # Both
  chase serve --http :8080 --interval 200ms

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
	serveCmd.Flags().DurationVar(&flagInterval, "interval", 250*time.Millisecond, "Pause between rounds on /ws")
	serveCmd.Flags().IntVar(&flagServeFPS, "fps", 4, "Starting rounds per second for SSH sessions")
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flagSSHAddr == "" && flagHTTPAddr == "" {
		flagSSHAddr = tui.DefaultSSHServerConfig().Address
	}

	level := flagLogLevel
	if level == "" {
		level = "info"
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, lvl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if flagSSHAddr != "" {
		sshCfg := tui.DefaultSSHServerConfig()
		sshCfg.Address = flagSSHAddr
		sshCfg.HostKeyPath = flagHostKey
		sshCfg.DBPath = cfg.Output.DB
		sshCfg.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
		sshCfg.Params = cfg.Params()
		sshCfg.FPS = flagServeFPS
		sshCfg.Logger = logger.WithPrefix("chase-ssh")

		server, err := tui.NewSSHServer(sshCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating SSH server: %v\n", err)
			os.Exit(1)
		}
		if _, port, err := net.SplitHostPort(sshCfg.Address); err == nil {
			fmt.Printf("Connect with: ssh localhost -p %s\n", port)
		}
		g.Go(func() error { return server.Serve(ctx) })
	}

	if flagHTTPAddr != "" {
		store, err := storage.Open(cfg.Output.DB)
		if err != nil {
			logger.Warn("could not open run database", "error", err)
			// Continue without history
			store = nil
		} else {
			defer store.Close()
		}

		server := web.NewServer(web.Config{
			Address:  flagHTTPAddr,
			Defaults: cfg,
			Interval: flagInterval,
			Store:    store,
			Logger:   logger.WithPrefix("chase-http"),
		})
		g.Go(func() error { return server.Serve(ctx) })
	}

	fmt.Println("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
