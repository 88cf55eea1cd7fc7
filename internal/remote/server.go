// Package remote serves monitor switching over SSH so another machine can
// flip inputs, e.g. `ssh -p 52526 desk set 0 hdmi1`.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/bnema/monitor-switch/internal/session"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	gossh "golang.org/x/crypto/ssh"
)

// SessionFactory builds the session one SSH connection works on. Every
// connection gets its own session, so connections share no state.
type SessionFactory func() (*session.Session, error)

// Authorizer decides which public keys may connect.
type Authorizer struct {
	Fingerprints  []string // SHA256 fingerprints, as printed by ssh-keygen -l
	WhitelistOnly bool     // When false any key is accepted
}

// Allow reports whether a key with the given fingerprint is accepted.
func (a Authorizer) Allow(fingerprint string) bool {
	if slices.Contains(a.Fingerprints, fingerprint) {
		return true
	}
	return !a.WhitelistOnly
}

// Server is the SSH remote-switch server
type Server struct {
	addr        string
	hostKeyPath string
	auth        Authorizer
	newSession  SessionFactory

	sshServer *ssh.Server

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a server listening on addr ("host:port").
func NewServer(addr, hostKeyPath string, auth Authorizer, newSession SessionFactory) *Server {
	return &Server{
		addr:        addr,
		hostKeyPath: hostKeyPath,
		auth:        auth,
		newSession:  newSession,
		stop:        make(chan struct{}),
	}
}

func (s *Server) build() error {
	if s.sshServer != nil {
		return nil
	}

	server, err := wish.NewServer(
		wish.WithAddress(s.addr),
		wish.WithHostKeyPath(s.hostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyAuth),
		wish.WithMiddleware(
			s.commandHandler(),
			s.loggingMiddleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}
	s.sshServer = server
	return nil
}

// Start begins listening in the background. The server stops when ctx is
// cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if err := s.build(); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.serve(ctx, listener)
}

// Serve runs the server on an existing listener in the background.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	if err := s.build(); err != nil {
		return err
	}
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		logger.Infof("SSH remote switch listening on %s", listener.Addr())
		if err := s.sshServer.Serve(listener); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Errorf("SSH server error: %v", err)
		}
	}()

	// Handle context cancellation
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.stop:
		}
	}()

	return nil
}

// Stop shuts down the SSH server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)

		if s.sshServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.sshServer.Shutdown(ctx)
		}

		s.wg.Wait()
	})
}

// Done is closed once Stop has been called.
func (s *Server) Done() <-chan struct{} {
	return s.stop
}

// publicKeyAuth handles SSH public key authentication
func (s *Server) publicKeyAuth(ctx ssh.Context, key ssh.PublicKey) bool {
	goKey, err := gossh.ParsePublicKey(key.Marshal())
	if err != nil {
		logger.Errorf("Failed to parse public key: %v", err)
		return false
	}

	fingerprint := gossh.FingerprintSHA256(goKey)
	addr := ctx.RemoteAddr().String()

	if s.auth.Allow(fingerprint) {
		logger.Infof("SSH key accepted addr=%s user=%s key=%s", addr, ctx.User(), fingerprint)
		return true
	}

	logger.Warnf("SSH key denied addr=%s user=%s key=%s", addr, ctx.User(), fingerprint)
	return false
}

// loggingMiddleware provides custom logging using our internal logger
func (s *Server) loggingMiddleware() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			logger.Debugf("SSH session started: user=%s addr=%s command=%q", sess.User(), sess.RemoteAddr(), sess.Command())
			h(sess)
			logger.Debugf("SSH session ended: addr=%s", sess.RemoteAddr())
		}
	}
}

// commandHandler runs the session's command line and exits with its status
func (s *Server) commandHandler() wish.Middleware {
	return func(h ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			status := s.run(sess)
			_ = sess.Exit(status)
			h(sess)
		}
	}
}

func (s *Server) run(sess ssh.Session) int {
	ms, err := s.newSession()
	if err != nil {
		wish.Errorln(sess, "monitor access unavailable:", err)
		return 1
	}
	defer func() {
		if err := ms.Close(); err != nil {
			logger.Debugf("close session: %v", err)
		}
	}()

	if err := Execute(ms, sess.Command(), sess); err != nil {
		wish.Errorln(sess, err)
		return 1
	}
	return 0
}
