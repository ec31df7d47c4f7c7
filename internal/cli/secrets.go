package cli

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dalemusser/folioadmin/internal/app/system/authutil"
	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"
)

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for admin_password_hash",
		Long: `Hash an administrator password for the admin_password_hash setting.
With no argument the password is read from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pw string
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				pw = strings.TrimRight(line, "\r\n")
			}

			if err := authutil.ValidatePassword(pw); err != nil {
				return fmt.Errorf("%w (%s)", err, authutil.PasswordRules())
			}
			hash, err := authutil.HashPassword(pw)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newSessionKeyCommand() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "session-key",
		Short: "Generate a random session_key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if length < 32 {
				return fmt.Errorf("--bytes must be at least 32")
			}
			key := securecookie.GenerateRandomKey(length)
			if key == nil {
				return fmt.Errorf("could not read random bytes")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), base64.RawURLEncoding.EncodeToString(key))
			return nil
		},
	}

	cmd.Flags().IntVar(&length, "bytes", 48, "Number of random bytes before encoding")
	return cmd
}
