// Command chat runs the interactive chat client: it connects to a chatsrv
// instance, sends the username handshake and then multiplexes terminal
// input with socket traffic in a single poll-driven loop.
//
// Commands at the prompt: "send <MSG>" and "leave".
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"linechat/internal/client"
	"linechat/pkg/semver"
)

// Version - client version fingerprint.
var Version = semver.V{Minor: 4}.String()

var (
	host     string
	port     string
	username string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "chat",
	Short:         "Interactive client for the line-oriented chat server",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&host, "host", "127.0.0.1", "Server host")
	rootCmd.Flags().StringVarP(&port, "port", "p", "12345", "Server port")
	rootCmd.Flags().StringVarP(&username, "username", "u", "", "Username for identification")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// resolve - environment wins over the flag value, matching the documented
// collaborator contract (HOST, PORT, USERNAME).
func resolve(env, flag string) string {
	if v, ok := os.LookupEnv(env); ok {
		return v
	}
	return flag
}

func run(cmd *cobra.Command, args []string) error {
	host = resolve("HOST", host)
	port = resolve("PORT", port)
	username = resolve("USERNAME", username)
	if username == "" {
		return fmt.Errorf("username is required (flag --username or env USERNAME)")
	}

	logger := zap.NewNop()
	if verbose {
		var err error
		if logger, err = zap.NewProduction(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	sock, err := client.Dial(host, port)
	if err != nil {
		return err
	}
	defer unix.Close(sock)
	fmt.Printf("Connecting to server at %s:%s as %s\n", host, port, username)

	loop := client.New(sock, int(os.Stdin.Fd()), username, os.Stdout, logger)
	return loop.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
