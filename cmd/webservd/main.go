// Command webservd runs the webserv origin server against a single
// configuration file.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oalmasoud/webserv"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "webservd <config-file>",
		Short: "webservd serves HTTP/1.x requests from a single configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
		SilenceUsage: true,
	}
}

func run(configPath string) error {
	logger := webserv.NewLogger()

	cfg, err := webserv.ParseConfigFile(configPath)
	if err != nil {
		logger.Fatalf("webservd: configuration rejected: %v", err)
	}

	mux := webserv.NewMultiplexer(cfg, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Infof("webservd: shutdown requested")
		mux.Close()
	}()

	if err := mux.Serve(); err != nil {
		logger.Fatalf("webservd: %v", err)
	}

	return nil
}
