package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/infrastructure/remote"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	UserID string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and merge the local cart into the remote cart",
		Long: `Log in and merge the local cart into the remote cart.

With --user a token is requested from the development login endpoint;
otherwise --token (or sync.token) is used. Each local line is added to the
remote cart, after which the local cart is emptied. Lines the remote rejects
are reported and the command exits with status 1.

Example:
  cartctl login --user alice
  cartctl --token "$TOKEN" login`,
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "user id for the development login endpoint")

	return cmd
}

func runLogin(cmd *cobra.Command, opts *LoginOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, opts.RootOptions, false)
	if err != nil {
		return err
	}
	defer s.close()

	token := s.cfg.Sync.Token
	userID := strings.TrimSpace(opts.UserID)
	if userID != "" {
		tok, err := remote.NewAuthClient(s.cfg.Sync.RemoteBaseURL,
			remote.WithTimeout(s.cfg.Sync.RemoteTimeout), remote.WithLogger(s.log)).IssueToken(ctx, userID)
		if err != nil {
			return err
		}
		token = tok.AccessToken
	}
	if token == "" {
		return NewExitError(ExitCommandError, "login needs --user or --token")
	}

	report, err := s.login(ctx, token)
	if err != nil && !errors.Is(err, cart.ErrPartialSyncLoss) {
		return err
	}
	out := newFormatter(cmd, opts.RootOptions)
	if perr := out.Success(newLoginView(userID, token, s.coord.State(), report)); perr != nil {
		return perr
	}
	// partial loss is reported after the merged cart so the caller still sees it
	return err
}
