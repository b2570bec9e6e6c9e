package sshserver

import (
	"context"
	"errors"
	"io"
	"net"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/internal/logx"
	"pkt.systems/scrollcon/internal/relay"
	"pkt.systems/scrollcon/schema"
)

// KeyAuthorizer decides which public keys may log in as a user.
type KeyAuthorizer interface {
	Authorized(userID schema.UserID, key ssh.PublicKey) bool
}

// TOTPValidator checks a one-time code for a user.
type TOTPValidator interface {
	Validate(userID schema.UserID, code string) error
}

// Server exposes the shared console over SSH.
type Server struct {
	Addr        string
	HostKeyPath string
	Listener    net.Listener
	IdlePrompt  string
	RequireTOTP bool
	Screen      schema.ScreenConfig
	Keys        KeyAuthorizer
	TOTP        TOTPValidator
	Relay       *relay.Relay
	logger      pslog.Logger
}

// NewServer returns a Server for cfg.
func NewServer(cfg Config, keys KeyAuthorizer, otp TOTPValidator, rel *relay.Relay) *Server {
	return &Server{
		Addr:        cfg.Addr,
		HostKeyPath: cfg.HostKeyPath,
		IdlePrompt:  cfg.IdlePrompt,
		RequireTOTP: cfg.RequireTOTP,
		Screen:      cfg.Screen,
		Keys:        keys,
		TOTP:        otp,
		Relay:       rel,
	}
}

type authContextKey string

const loginPubKeyOK authContextKey = "login-pubkey-ok"

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.IdlePrompt == "" {
		s.IdlePrompt = "> "
	}
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Keys == nil {
		return errors.New("authorized keys are required for SSH")
	}
	if s.RequireTOTP && s.TOTP == nil {
		return errors.New("totp store is required when totp is enforced")
	}

	signer, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}

	server := &gliderssh.Server{
		Addr:             s.Addr,
		Handler:          s.handleSession,
		PublicKeyHandler: s.handlePublicKey,
	}
	if s.RequireTOTP {
		server.KeyboardInteractiveHandler = s.handleKeyboardInteractive
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			errCh <- server.Serve(s.Listener)
			return
		}
		errCh <- server.ListenAndServe()
	}()
	s.logger.Info("ssh listening", "addr", s.Addr, "totp", s.RequireTOTP)

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, gliderssh.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	fingerprint := ssh.FingerprintSHA256(key)
	remote := remoteAddr(ctx)
	userID := schema.UserID(ctx.User())
	if err := schema.ValidateUserID(userID); err != nil {
		log.Warn("ssh pubkey rejected", "reason", "invalid user", "remote", remote, "fingerprint", fingerprint)
		return false
	}
	log = log.With("user", userID, "remote", remote, "fingerprint", fingerprint)
	if !s.Keys.Authorized(userID, key) {
		log.Warn("ssh pubkey rejected", "reason", "no matching key")
		return false
	}
	if s.RequireTOTP {
		ctx.SetValue(loginPubKeyOK, true)
		log.Info("ssh pubkey accepted", "next", "totp")
		return false
	}
	log.Info("ssh pubkey accepted")
	return true
}

func (s *Server) handleKeyboardInteractive(ctx gliderssh.Context, challenger ssh.KeyboardInteractiveChallenge) bool {
	if ctx.Value(loginPubKeyOK) != true {
		return false
	}
	log := s.logger
	if log == nil {
		log = pslog.Ctx(ctx)
	}
	log = log.With("user", ctx.User(), "remote", remoteAddr(ctx))
	answers, err := challenger(ctx.User(), "", []string{"Verification code: "}, []bool{false})
	if err != nil {
		log.Warn("ssh totp rejected", "reason", "challenge failed", "err", err)
		return false
	}
	if len(answers) != 1 {
		log.Warn("ssh totp rejected", "reason", "invalid answer count", "count", len(answers))
		return false
	}
	if err := s.TOTP.Validate(schema.UserID(ctx.User()), answers[0]); err != nil {
		log.Warn("ssh totp rejected", "reason", "invalid code", "err", err)
		return false
	}
	log.Info("ssh totp accepted")
	return true
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	userID := schema.UserID(sess.User())
	sessionID := schema.SessionID(sess.Context().SessionID())
	log = logx.WithSession(log.With("user", userID, "remote", sess.RemoteAddr().String()), sessionID)
	ctx := logx.ContextWithUserSessionLogger(sess.Context(), log, userID, sessionID)

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "pty required\n")
		_ = sess.Exit(1)
		return
	}

	console, err := newConsoleSession(sess, pty.Window.Width, pty.Window.Height, sessionOptions{
		userID:    userID,
		sessionID: sessionID,
		prompt:    s.IdlePrompt,
		screen:    s.Screen,
		relay:     s.Relay,
		log:       logx.WithTerminal(log, pty.Window.Width, pty.Window.Height),
	})
	if err != nil {
		log.Info("ssh session rejected", "reason", "terminal", "err", err)
		_, _ = io.WriteString(sess, err.Error()+"\n")
		_ = sess.Exit(1)
		return
	}

	log.Info("ssh session opened", "term", pty.Term)
	events, replay, leave := s.Relay.Join(userID, sessionID)
	defer leave()
	status := 0
	if err := console.Run(ctx, sess, winCh, events, replay); err != nil {
		log.Warn("ssh session failed", "err", err)
		status = 1
	}
	_ = sess.Exit(status)
	log.Info("ssh session closed", "term", pty.Term)
}
