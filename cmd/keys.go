package cmd

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/table-bot/internal/auth"
)

func newKeysCmd() *cobra.Command {
	var secret string
	c := &cobra.Command{
		Use:   "keys",
		Short: "Generate COOKIE_HASH_KEY and COOKIE_BLOCK_KEY values (base64), and optionally a channel secret hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := randomKey(32)
			if err != nil {
				return err
			}
			block, err := randomKey(32)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "export COOKIE_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(out, "export COOKIE_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))

			if secret != "" {
				h, err := auth.HashSecret(secret)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "export TABLEBOT_CHANNEL_SECRET_HASH='%s'\n", h)
			}
			return nil
		},
	}
	c.Flags().StringVar(&secret, "secret", "", "channel bearer secret to hash with bcrypt")
	return c
}

func randomKey(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
