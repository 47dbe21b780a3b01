// Command replikv-server runs one peer of a replikv cluster: it loads
// a YAML configuration file, starts the embedded engine, the replica
// facade, and the two gRPC listeners, then waits for a shutdown
// signal. The single cobra root command with its own flags is grounded
// on cuemby-warren/cmd/warren/main.go; the logger is built inside
// runServer from the config file and flag overrides. The peer wiring
// is grounded
// on shashank0302-GoDatabase/cmd/raft-server/main.go's storage ->
// raft-node -> rpc-server sequence and signal handling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"replikv/internal/config"
	"replikv/internal/engine"
	"replikv/internal/logging"
	"replikv/internal/replica"
	"replikv/internal/server"
)

var log logging.Logger

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "replikv-server",
	Short: "Run one peer of a replikv cluster",
	RunE:  runServer,
}

func init() {
	rootCmd.Flags().StringP("config", "c", "", "path to the peer's YAML configuration file (required)")
	_ = rootCmd.MarkFlagRequired("config")
	rootCmd.Flags().String("log-level", "", "override the config file's log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("log-json", false, "force JSON log output regardless of the config file")
}

func runServer(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	level := logging.Level(cfg.Log.Level)
	if override, _ := cmd.Flags().GetString("log-level"); override != "" {
		level = logging.Level(override)
	}
	jsonOutput := cfg.Log.JSON
	if forced, _ := cmd.Flags().GetBool("log-json"); forced {
		jsonOutput = true
	}
	log = logging.New(logging.Config{Level: level, JSONOutput: jsonOutput}).
		WithServerID(fmt.Sprintf("%d", cfg.ServerID))

	dataDir := cfg.ResolvedDataDir()
	eng, err := engine.NewBadgerEngine(dataDir)
	if err != nil {
		return fmt.Errorf("open engine at %s: %w", dataDir, err)
	}
	defer eng.Close()

	replicaCfg := cfg.ReplicaConfig()
	rep, err := replica.New(replicaCfg, eng, log)
	if err != nil {
		return fmt.Errorf("start replica: %w", err)
	}

	srv := server.New(server.Config{
		ClientAddr:           cfg.ClientAddr,
		JoinAddr:             cfg.JoinAddr,
		ThreadsPerQueue:      cfg.AsioThreadPoolSize,
		ClientRequestTimeout: time.Duration(cfg.ClientReqTimeoutMs) * time.Millisecond,
		ReturnMethod:         replicaCfg.ReturnMethod,
	}, rep, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case sig := <-sigCh:
		log.Info("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx, 10*time.Second)
}
