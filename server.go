package scrollcon

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/internal/auth"
	"pkt.systems/scrollcon/internal/relay"
	"pkt.systems/scrollcon/sshserver"
)

// Server runs the shared SSH console.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	SSH                sshserver.Config
	AuthorizedKeysPath string
	TOTPFile           string
	RelayHistory       int
}

const shutdownNotice = "server shutting down"

// New constructs the console server. Authorized keys are loaded immediately
// so a broken file fails before anything listens.
func New(cfg ServerConfig, logger pslog.Logger) (Server, error) {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	keys, err := auth.NewAuthorizedKeys(cfg.AuthorizedKeysPath, logger)
	if err != nil {
		return nil, err
	}
	var otp sshserver.TOTPValidator
	if cfg.SSH.RequireTOTP {
		store, err := auth.NewTOTPStore(cfg.TOTPFile, logger)
		if err != nil {
			return nil, err
		}
		otp = store
	}
	rel := relay.New(logger, cfg.RelayHistory)
	return &compositeServer{
		cfg:    cfg,
		relay:  rel,
		sshSrv: sshserver.NewServer(cfg.SSH, keys, otp, rel),
	}, nil
}

type listener interface {
	ListenAndServe(ctx context.Context) error
}

type compositeServer struct {
	cfg    ServerConfig
	relay  *relay.Relay
	sshSrv listener
	logger pslog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	started bool
}

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"ssh_addr", s.cfg.SSH.Addr,
		"totp", s.cfg.SSH.RequireTOTP,
		"relay_history", s.cfg.RelayHistory,
		"history_capacity", s.cfg.SSH.Screen.HistoryCapacity,
	)
	go func() {
		if err := s.sshSrv.ListenAndServe(s.ctx); err != nil {
			log.Error("ssh server failed", "err", err)
			s.errCh <- err
		}
	}()
	return nil
}

func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested", "sessions", s.relay.Sessions())
	// Sessions drain queued events when cancelled, so the notice is drawn.
	s.relay.Notice(shutdownNotice)
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-s.ctx.Done():
		log.Info("server stopped")
		return nil
	}
}
