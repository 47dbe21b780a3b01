// Command replikv-cli is an interactive and scriptable client for a
// replikv cluster. Root command + persistent flags + subcommands follow
// cuemby-warren/cmd/warren/main.go's cobra shape; the REPL loop (a
// bufio.Scanner reading "verb arg..." lines) is grounded on
// shashank0302-GoDatabase/cmd/client/main.go, generalized from a
// single-connection client to one backed by internal/client's
// multi-peer, policy-routed Driver.
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"replikv/internal/client"
	"replikv/internal/logging"
)

var (
	log    logging.Logger
	driver *client.Driver
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "replikv-cli",
	Short:             "Talk to a replikv cluster",
	PersistentPreRunE: connect,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if driver != nil {
			driver.Close()
		}
	},
	RunE: runRepl,
}

func init() {
	rootCmd.PersistentFlags().String("addr", "localhost:9011", "host:port of any peer's client RPC port")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-RPC timeout (default 10s)")
	rootCmd.PersistentFlags().Int("max-retries", 0, "max retries for leader-routed writes (default 5)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(pingCmd, getCmd, putCmd, updateCmd, deleteCmd, serversCmd, replCmd)
}

func connect(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("--addr must be host:port, got %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("--addr port %q is not numeric", portStr)
	}

	level, _ := cmd.Flags().GetString("log-level")
	log = logging.New(logging.Config{Level: logging.Level(level)}).WithComponent("cli")

	timeout, _ := cmd.Flags().GetDuration("timeout")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	driver, err = client.New(client.Config{Host: host, Port: port, Timeout: timeout, MaxRetries: maxRetries}, log)
	return err
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping the seed peer and list the cluster's known peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		servers, err := driver.GetAllServers()
		if err != nil {
			return err
		}
		for _, s := range servers {
			fmt.Printf("%d\t%s\n", s.ServerID, s.ClientEndpoint)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Read a key via the configured read policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, rc, err := driver.Get([]byte(args[0]))
		if err != nil {
			return err
		}
		if rc != 0 {
			fmt.Printf("not found (engine_rc=%d)\n", rc)
			return nil
		}
		fmt.Printf("%s\n", value)
		return nil
	},
}

var putCmd = &cobra.Command{
	Use:   "put <key> <value>",
	Short: "Write a key, routed to the current leader",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportMutation(driver.Put([]byte(args[0]), []byte(args[1])))
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <key> <value>",
	Short: "Overwrite an existing key, routed to the current leader",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportMutation(driver.Update([]byte(args[0]), []byte(args[1])))
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a key, routed to the current leader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportMutation(driver.Delete([]byte(args[0])))
	},
}

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List the cluster's known peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		servers, err := driver.GetAllServers()
		if err != nil {
			return err
		}
		for _, s := range servers {
			fmt.Printf("%d\t%s\n", s.ServerID, s.ClientEndpoint)
		}
		return nil
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive read-eval-print loop",
	RunE:  runRepl,
}

func reportMutation(result interface {
	Success() bool
}, err error) error {
	if err != nil {
		return err
	}
	if result.Success() {
		fmt.Println("OK")
		return nil
	}
	fmt.Printf("not applied: %+v\n", result)
	return nil
}

func runRepl(cmd *cobra.Command, args []string) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("replikv-cli (type 'help' for commands, 'quit' to exit)")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}

		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			fmt.Println("Commands:")
			fmt.Println("  put <key> <value>")
			fmt.Println("  update <key> <value>")
			fmt.Println("  get <key>")
			fmt.Println("  delete <key>")
			fmt.Println("  servers")
			fmt.Println("  quit")

		case "put":
			if len(parts) != 3 {
				fmt.Println("usage: put <key> <value>")
				continue
			}
			if err := reportMutation(driver.Put([]byte(parts[1]), []byte(parts[2]))); err != nil {
				fmt.Printf("Error: %v\n", err)
			}

		case "update":
			if len(parts) != 3 {
				fmt.Println("usage: update <key> <value>")
				continue
			}
			if err := reportMutation(driver.Update([]byte(parts[1]), []byte(parts[2]))); err != nil {
				fmt.Printf("Error: %v\n", err)
			}

		case "get":
			if len(parts) != 2 {
				fmt.Println("usage: get <key>")
				continue
			}
			value, rc, err := driver.Get([]byte(parts[1]))
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if rc != 0 {
				fmt.Printf("not found (engine_rc=%d)\n", rc)
				continue
			}
			fmt.Printf("%s\n", value)

		case "delete":
			if len(parts) != 2 {
				fmt.Println("usage: delete <key>")
				continue
			}
			if err := reportMutation(driver.Delete([]byte(parts[1]))); err != nil {
				fmt.Printf("Error: %v\n", err)
			}

		case "servers":
			servers, err := driver.GetAllServers()
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			for _, s := range servers {
				fmt.Printf("%d\t%s\n", s.ServerID, s.ClientEndpoint)
			}

		case "quit", "exit":
			return nil

		default:
			fmt.Println("Unknown command. Type 'help' for available commands.")
		}
	}
}
