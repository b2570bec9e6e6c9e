package scrollcon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pkt.systems/scrollcon/internal/relay"
)

type fakeListener struct {
	err     error
	started chan struct{}
}

func (f *fakeListener) ListenAndServe(ctx context.Context) error {
	if f.started != nil {
		close(f.started)
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func TestServerStopNotifiesSessions(t *testing.T) {
	rel := relay.New(nil, 0)
	events, _, leave := rel.Join("alice", "s1")
	defer leave()

	ctx, cancel := context.WithCancel(context.Background())
	server := &compositeServer{
		relay:   rel,
		sshSrv:  &fakeListener{},
		ctx:     ctx,
		cancel:  cancel,
		started: true,
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := server.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case ev := <-events:
		if ev.Type != relay.EventNotice || ev.Text != shutdownNotice {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("expected shutdown notice")
	}
	select {
	case <-ctx.Done():
	default:
		t.Fatalf("expected server context to be canceled")
	}
}

func TestServerStartTwiceFails(t *testing.T) {
	server := &compositeServer{relay: relay.New(nil, 0), sshSrv: &fakeListener{}}
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = server.Stop(context.Background()) }()
	if err := server.Start(context.Background()); err == nil {
		t.Fatalf("expected second Start to fail")
	}
}

func TestServerWaitReturnsListenerError(t *testing.T) {
	boom := errors.New("listen failed")
	server := &compositeServer{relay: relay.New(nil, 0), sshSrv: &fakeListener{err: boom}}
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := server.Wait(); !errors.Is(err, boom) {
		t.Fatalf("expected listener error, got %v", err)
	}
}

func TestServerWaitBeforeStart(t *testing.T) {
	server := &compositeServer{relay: relay.New(nil, 0)}
	if err := server.Wait(); err == nil {
		t.Fatalf("expected error before Start")
	}
	if err := server.Stop(context.Background()); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
}

func TestNewRequiresAuthorizedKeys(t *testing.T) {
	cfg := ServerConfig{AuthorizedKeysPath: filepath.Join(t.TempDir(), "missing")}
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error for missing authorized keys")
	}
}

func TestNewLoadsTOTPStoreWhenRequired(t *testing.T) {
	dir := t.TempDir()
	keysPath := filepath.Join(dir, "authorized_keys")
	if err := os.WriteFile(keysPath, nil, 0o600); err != nil {
		t.Fatalf("write keys: %v", err)
	}
	cfg := ServerConfig{
		AuthorizedKeysPath: keysPath,
		TOTPFile:           filepath.Join(dir, "totp.yaml"),
		RelayHistory:       10,
	}
	cfg.SSH.RequireTOTP = true
	srv, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	composite := srv.(*compositeServer)
	if composite.relay == nil || composite.sshSrv == nil {
		t.Fatalf("expected relay and ssh server to be wired")
	}
}
