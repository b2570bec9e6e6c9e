package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon"
	"pkt.systems/scrollcon/internal/appconfig"
	"pkt.systems/scrollcon/sshserver"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the shared console over SSH",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.SSH.Addr = addr
			}
			serverCfg, err := toServerConfig(cfg)
			if err != nil {
				return err
			}
			server, err := scrollcon.New(serverCfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "override ssh listen address")
	return cmd
}

func toServerConfig(cfg appconfig.Config) (scrollcon.ServerConfig, error) {
	screen, err := cfg.ScreenSettings()
	if err != nil {
		return scrollcon.ServerConfig{}, err
	}
	return scrollcon.ServerConfig{
		SSH: sshserver.Config{
			Addr:        cfg.SSH.Addr,
			HostKeyPath: cfg.SSH.HostKeyPath,
			IdlePrompt:  cfg.SSH.IdlePrompt,
			RequireTOTP: cfg.SSH.RequireTOTP,
			Screen:      screen,
		},
		AuthorizedKeysPath: cfg.SSH.AuthorizedKeysPath,
		TOTPFile:           cfg.SSH.TOTPFile,
		RelayHistory:       cfg.Relay.History,
	}, nil
}
