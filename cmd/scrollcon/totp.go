package main

import (
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/scrollcon/internal/appconfig"
	"pkt.systems/scrollcon/internal/auth"
	"pkt.systems/scrollcon/schema"
)

func newTOTPCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "totp",
		Short: "Manage one-time codes for SSH logins",
	}
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.AddCommand(newTOTPEnrollCmd(&cfgPath))
	cmd.AddCommand(newTOTPStatusCmd(&cfgPath))
	return cmd
}

func newTOTPEnrollCmd(cfgPath *string) *cobra.Command {
	var issuer string
	var noQR bool
	cmd := &cobra.Command{
		Use:   "enroll <user>",
		Short: "Create or rotate a user's TOTP secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTOTPStore(cmd, *cfgPath)
			if err != nil {
				return err
			}
			user := schema.UserID(args[0])
			key, err := store.Enroll(user, issuer)
			if err != nil {
				return fmt.Errorf("enroll %s: %w", user, err)
			}
			printEnrollment(cmd.OutOrStdout(), string(user), key.Secret(), key.URL(), !noQR)
			return nil
		},
	}
	cmd.Flags().StringVar(&issuer, "issuer", auth.DefaultIssuer, "issuer shown in authenticator apps")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "do not print a QR code")
	return cmd
}

func newTOTPStatusCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <user>",
		Short: "Report whether a user has a TOTP secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTOTPStore(cmd, *cfgPath)
			if err != nil {
				return err
			}
			state := "not enrolled"
			if store.Enrolled(schema.UserID(args[0])) {
				state = "enrolled"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], state)
			return err
		},
	}
}

func openTOTPStore(cmd *cobra.Command, cfgPath string) (*auth.TOTPStore, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return auth.NewTOTPStore(cfg.SSH.TOTPFile, pslog.Ctx(cmd.Context()))
}

func printEnrollment(w io.Writer, user, secret, url string, qr bool) {
	_, _ = fmt.Fprintf(w, "user: %s\n", user)
	_, _ = fmt.Fprintf(w, "totp_secret: %s\n", secret)
	_, _ = fmt.Fprintf(w, "otpauth_url: %s\n", url)
	if qr {
		_, _ = fmt.Fprintln(w, "totp_qr:")
		qrterminal.GenerateHalfBlock(url, qrterminal.L, w)
	}
}
