package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/monitor-switch/internal/config"
	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/remote"
	"github.com/bnema/monitor-switch/internal/session"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept input switch commands over SSH",
	Long: `Run an SSH server that lets trusted machines switch inputs remotely:

  ssh -p 52526 host list
  ssh -p 52526 host set 0 hdmi2
  ssh -p 52526 host quick 1

Keys are checked against remote.authorized_fingerprints; add them with
"monitor-switch config authorize <fingerprint>".`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	servePort        int
	serveBindAddress string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from settings)")
	serveCmd.Flags().StringVarP(&serveBindAddress, "bind", "b", "", "Bind address (default from settings)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	port := cfg.Remote.Port
	if servePort != 0 {
		port = servePort
	}
	bindAddress := cfg.Remote.BindAddress
	if serveBindAddress != "" {
		bindAddress = serveBindAddress
	}

	auth := remote.Authorizer{
		Fingerprints:  cfg.Remote.AuthorizedFingerprints,
		WhitelistOnly: cfg.Remote.WhitelistOnly,
	}
	if auth.WhitelistOnly && len(auth.Fingerprints) == 0 {
		logger.Warn("No SSH keys are authorized; every connection will be rejected")
	}

	// Each SSH session gets its own store load and scan
	factory := func() (*session.Session, error) {
		return openSession()
	}

	server := remote.NewServer(fmt.Sprintf("%s:%d", bindAddress, port), cfg.Remote.HostKeyPath, auth, factory)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := server.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case <-server.Done():
	}
	server.Stop()
	return nil
}
