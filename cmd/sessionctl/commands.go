package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storefront/identity/internal/client"
)

func restoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Run start-up session restoration and print the resulting state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(a.manager.Restore(cmd.Context()))
		},
	}
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.manager.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			return printJSON(a.manager.State())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func googleLoginCmd(a *app) *cobra.Command {
	var idToken, userInfo, firebaseUID string
	cmd := &cobra.Command{
		Use:   "google-login",
		Short: "Sign in with a Google identity payload",
		Long: `Sign in with the payload returned by the Google sign-in SDK.

--user-info takes the JSON payload inline, or @path to read it from a file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readPayload(userInfo)
			if err != nil {
				return err
			}
			if _, err := a.manager.GoogleSignIn(cmd.Context(), client.GoogleSignIn{
				IDToken:     idToken,
				UserInfo:    raw,
				FirebaseUID: firebaseUID,
			}); err != nil {
				return err
			}
			return printJSON(a.manager.State())
		},
	}
	cmd.Flags().StringVar(&idToken, "id-token", "", "Google ID token")
	cmd.Flags().StringVar(&userInfo, "user-info", "", "Google user info JSON or @file")
	cmd.Flags().StringVar(&firebaseUID, "firebase-uid", "", "device identity hint")
	_ = cmd.MarkFlagRequired("id-token")
	_ = cmd.MarkFlagRequired("user-info")
	return cmd
}

func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-verify the stored token with the identity service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := a.manager.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session of this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.manager.Logout(cmd.Context()); err != nil {
				return err
			}
			return printJSON(a.manager.State())
		},
	}
}

func switchAccountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "switch-account",
		Short: "Log out and force a fresh login on next start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.manager.RequestAccountSwitch(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "next start will require a new login")
			return printJSON(a.manager.State())
		},
	}
}

func readPayload(arg string) (json.RawMessage, error) {
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read user info: %w", err)
		}
		return raw, nil
	}
	return json.RawMessage(arg), nil
}
