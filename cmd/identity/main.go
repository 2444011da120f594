// Command identity creates registry identities and mints attestation tokens for them.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/task-registry/internal/auth"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "identity",
		Short:        "Manage task registry identities",
		SilenceUsage: true,
	}
	root.AddCommand(newKeygenCmd(), newTokenCmd())
	return root
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new identity and its private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, key, err := auth.NewIdentity()
			if err != nil {
				return fmt.Errorf("generate identity: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "identity: %s\n", identity)
			fmt.Fprintf(out, "private_key: %s\n", auth.EncodePrivateKey(key))
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		key      string
		audience string
		ttl      time.Duration
	)
	defaults := auth.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token attesting the identity of --key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = os.Getenv("REGISTRY_PRIVATE_KEY")
			}
			if key == "" {
				return errors.New("--key or REGISTRY_PRIVATE_KEY is required")
			}
			priv, err := auth.DecodePrivateKey(key)
			if err != nil {
				return err
			}

			signer := auth.NewSigner(priv, auth.Config{Audience: audience, TokenTTL: ttl})
			token, err := signer.Token()
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Private key printed by keygen")
	cmd.Flags().StringVar(&audience, "audience", defaults.Audience, "Token audience, must match the server's AUTH_AUDIENCE")
	cmd.Flags().DurationVar(&ttl, "ttl", defaults.TokenTTL, "Token lifetime")
	return cmd
}
