// Package outagecmd implements the outaged CLI, structured like the
// teacher's core/om/root.go: a cobra root command with persistent
// flags, a PersistentPreRunE that wires up logging and configuration,
// and a run subcommand that starts the two daemon actors.
package outagecmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/opensvc/fty-outaged/config"
	"github.com/opensvc/fty-outaged/core/alerttable"
	"github.com/opensvc/fty-outaged/core/assetstore"
	"github.com/opensvc/fty-outaged/core/metricstore"
	"github.com/opensvc/fty-outaged/daemon/outage"
	"github.com/opensvc/fty-outaged/daemon/outagepoller"
	"github.com/opensvc/fty-outaged/util/logging"
	"github.com/opensvc/fty-outaged/util/metricsserver"
	"github.com/opensvc/fty-outaged/util/pubsub"
)

var (
	verboseFlag     bool
	configFlag      string
	noMetricsFlag   bool
	metricsPortFlag int

	root = &cobra.Command{
		Use:               filepath.Base(os.Args[0]),
		Short:             "the fty-outage detection daemon",
		PersistentPreRunE: persistentPreRunE,
		SilenceUsage:      true,
	}

	logger zerolog.Logger
	cfg    *config.T
)

func init() {
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose message tracing")
	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "/etc/fty-outage/fty-outage.cfg", "path to the configuration file")
	runCmd.Flags().BoolVar(&noMetricsFlag, "no-metrics", false, "disable the Prometheus metrics endpoint")
	runCmd.Flags().IntVar(&metricsPortFlag, "metrics-port", 9639, "port for the Prometheus metrics endpoint")
	root.AddCommand(runCmd)
}

func persistentPreRunE(cmd *cobra.Command, _ []string) error {
	level := "info"
	if verboseFlag {
		level = "debug"
	}
	l, err := logging.Configure(logging.Config{
		WithConsoleLog: true,
		WithColor:      true,
		Level:          level,
	})
	if err != nil {
		return err
	}
	logger = l.With().Str("component", "outaged").Logger()

	cfg = config.New(cmd.Flags())
	if err := cfg.Load(configFlag); err != nil {
		return err
	}
	return nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run the outage detection daemon in the foreground",
	RunE:  runE,
}

func runE(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := pubsub.NewBus("outaged")
	bus.Start(ctx)
	defer bus.Stop()

	store := assetstore.New()
	store.SetDefaultExpiry(cfg.AssetExpirySec())
	alerts := alerttable.New()
	metrics := metricstore.New()

	pollIntervalSec := int64(cfg.PollInterval() / time.Second)

	server := outage.New(store, alerts, bus, logger, pollIntervalSec)
	server.Command(outage.CmdConnect{Endpoint: "ipc://@/malamute", Address: "fty-outage"})
	server.Command(outage.CmdStateFile{Path: cfg.StateFile()})
	server.Command(outage.CmdAssetExpirySec{Sec: cfg.AssetExpirySec()})
	server.Command(outage.CmdDefaultMaintenanceExpirationSec{Sec: cfg.MaintenanceExpirationSec()})
	if verboseFlag {
		server.Command(outage.CmdVerbose{})
	}

	poller := outagepoller.New(metrics, store, server, cfg.PollInterval(), logger)
	go outage.ServeMailbox(ctx, bus, server)

	cfg.WatchAndReload(func() {
		server.Command(outage.CmdAssetExpirySec{Sec: cfg.AssetExpirySec()})
		server.Command(outage.CmdDefaultMaintenanceExpirationSec{Sec: cfg.MaintenanceExpirationSec()})
	})

	if !noMetricsFlag {
		metricsSrv := metricsserver.New(fmt.Sprintf("127.0.0.1:%d", metricsPortFlag))
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
		defer metricsSrv.Shutdown(ctx)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		server.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, syscall.SIGINT, syscall.SIGTERM)
	<-sigC

	logger.Info().Msg("signal received, shutting down")
	server.Command(outage.CmdTerm{})
	cancel()
	wg.Wait()
	return nil
}

// Execute runs the root command with os.Args.
func Execute() {
	ExecuteArgs(os.Args[1:])
}

// ExecuteArgs runs the root command with the given arguments.
func ExecuteArgs(args []string) {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}
