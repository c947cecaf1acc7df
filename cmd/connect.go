package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grovetools/elementipelago/cli"
	"github.com/grovetools/elementipelago/config"
	"github.com/grovetools/elementipelago/errors"
	"github.com/grovetools/elementipelago/logging"
	"github.com/grovetools/elementipelago/pkg/client"
	"github.com/grovetools/elementipelago/pkg/session"
	"github.com/grovetools/elementipelago/pkg/transport"
	"github.com/grovetools/elementipelago/state"
	"github.com/hako/durafmt"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type connectOptions struct {
	address        string
	slot           string
	password       string
	passwordPrompt bool
	reconnect      bool
	maxAttempts    int
	metricsListen  string
	watchConfig    bool
	interactive    bool
}

func NewConnectCmd() *cobra.Command {
	var opts connectOptions

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Log into a multiworld room and follow the session",
		Long: `Log into a multiworld room and print received items, chat and
connection changes until interrupted.

Without --address the server from elementipelago.yml is used, then the
last address a login succeeded with.

With --interactive, console lines are sent to the room:
  !craft <element>   report a crafted element, e.g. "!craft Compound 3"
  !status <status>   report ready, playing or goal
  anything else      chat message

Examples:
  elementipelago connect --address archipelago.gg:38281 --slot alice
  elementipelago connect --reconnect --metrics-listen 127.0.0.1:9464
  elementipelago connect --interactive --password-prompt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.address, "address", "a", "", "Server address (host:port, optionally with ws:// or wss://)")
	f.StringVarP(&opts.slot, "slot", "s", "", "Slot name")
	f.StringVarP(&opts.password, "password", "p", "", "Room password")
	f.BoolVar(&opts.passwordPrompt, "password-prompt", false, "Read the room password from the terminal")
	f.BoolVar(&opts.reconnect, "reconnect", false, "Reconnect with backoff after a lost connection")
	f.IntVar(&opts.maxAttempts, "max-attempts", 0, "Reconnect attempts before giving up (0 uses the config)")
	f.StringVar(&opts.metricsListen, "metrics-listen", "", "Serve /metrics and /healthz on this address")
	f.BoolVar(&opts.watchConfig, "watch-config", false, "Use changed credentials from the config file on the next attempt")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "Send console input to the room")

	return cmd
}

func runConnect(cmd *cobra.Command, opts connectOptions) error {
	logger := cli.GetLogger(cmd)
	cliOpts := cli.GetOptions(cmd)

	cfg, cfgPath, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyConnectFlags(cmd, cfg, opts, logger); err != nil {
		return err
	}
	if _, err := transport.CandidateURLs(cfg.Server.Address); err != nil && cfg.Server.Address != "" {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := transport.NewMetrics(reg)

	c, err := client.New(client.ConfigFrom(cfg), client.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Metrics.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           newMonitorRouter(reg, c),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("Metrics endpoint stopped")
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.WithField("listen", cfg.Metrics.Listen).Info("Serving /metrics and /healthz")
	}

	if opts.watchConfig && cfgPath != "" {
		w, err := config.NewWatcher(cfgPath, 0, logging.NewLogger("config-watcher"), func(next *config.Config) {
			c.SetCredentials(next.Server.Address, next.Server.Slot, next.Server.Password)
			logger.WithField("address", next.Server.Address).Info("Credentials reloaded, used on the next attempt")
		})
		if err != nil {
			return err
		}
		go w.Start(ctx)
	}

	if opts.interactive {
		go readInput(ctx, cmd, c, logger)
	}

	printer := cli.NewPrinter(cmd.OutOrStdout(), cliOpts.JSONOutput, !isatty.IsTerminal(os.Stdout.Fd()))
	policy := newReconnectPolicy(cfg.Client.Reconnect)

	var (
		retry   *time.Timer
		exitErr error
	)
	defer func() {
		if retry != nil {
			retry.Stop()
		}
	}()

	started := time.Now()
	c.StartConnect()

	handler := func(n session.Notification) {
		printer.Notify(n)

		switch n := n.(type) {
		case session.Connected:
			policy.connected()
			if err := state.SaveLastConnection(cfg.Server.Address, n.Slot, time.Now()); err != nil {
				logger.WithError(err).Debug("Could not record last connection")
			}
		case session.ConnectionError, session.Disconnected:
			if d, ok := n.(session.Disconnected); ok && d.Reason == transport.ReasonNotConnected {
				return
			}
			delay, err := policy.next(n, cfg.Server.Address)
			if err != nil {
				exitErr = err
				cancel()
				return
			}
			logger.WithFields(logrus.Fields{
				"attempt": policy.attempts,
				"delay":   delay,
			}).Info("Reconnecting")
			retry = time.AfterFunc(delay, c.StartConnect)
		}
	}

	_ = c.Run(ctx, cfg.Client.TickInterval.Std(), handler)

	if !cliOpts.JSONOutput {
		fmt.Fprintf(cmd.ErrOrStderr(), "Session lasted %s\n", durafmt.Parse(time.Since(started).Round(time.Second)).LimitFirstN(2))
	}
	return exitErr
}

// applyConnectFlags layers flags over the config file, and the last
// successful login under both.
func applyConnectFlags(cmd *cobra.Command, cfg *config.Config, opts connectOptions, logger *logrus.Entry) error {
	f := cmd.Flags()
	if f.Changed("address") {
		cfg.Server.Address = opts.address
	}
	if f.Changed("slot") {
		cfg.Server.Slot = opts.slot
	}
	if f.Changed("password") {
		cfg.Server.Password = opts.password
	}
	if opts.reconnect {
		cfg.Client.Reconnect.Enabled = true
	}
	if opts.maxAttempts < 0 {
		return errors.ConfigInvalid("--max-attempts must not be negative")
	}
	if opts.maxAttempts > 0 {
		cfg.Client.Reconnect.MaxAttempts = opts.maxAttempts
	}
	if opts.metricsListen != "" {
		if _, _, err := net.SplitHostPort(opts.metricsListen); err != nil {
			return errors.ConfigInvalid(fmt.Sprintf("--metrics-listen %q is not host:port", opts.metricsListen)).
				WithDetail("listen", opts.metricsListen)
		}
		cfg.Metrics.Listen = opts.metricsListen
	}

	if cfg.Server.Address == "" {
		last, ok, err := state.LoadLastConnection()
		if err != nil {
			logger.WithError(err).Debug("Could not read last connection")
		}
		if ok {
			cfg.Server.Address = last.Address
			if cfg.Server.Slot == "" {
				cfg.Server.Slot = last.Slot
			}
			logger.WithFields(logrus.Fields{
				"address": last.Address,
				"slot":    last.Slot,
			}).Info("Using last connection")
		}
	}

	if opts.passwordPrompt {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		cfg.Server.Password = string(pw)
	}
	return nil
}

// readInput forwards console lines to the client until ctx is done or input ends.
func readInput(ctx context.Context, cmd *cobra.Command, sink intentSink, logger *logrus.Entry) {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if err := dispatchInput(sink, scanner.Text()); err != nil {
			logger.WithField("input", strings.TrimSpace(scanner.Text())).Warn(err.Error())
		}
	}
}
