package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	Token      string
	BaseURL    string
	BuyerState string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for cartctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cartctl",
		Short: "cartctl - inspect and edit a storefront cart",
		Long: `Inspect and edit a storefront cart from the terminal.

Without a token the cart lives in the configured local backend. With --token
(or sync.token) the local cart is merged into the remote cart first and every
change is written through to it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default $CART_CONFIG_FILE or ./config.toml)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "bearer token; authenticates the session")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "remote API base url (overrides sync.remote_base_url)")
	cmd.PersistentFlags().StringVar(&opts.BuyerState, "buyer-state", "", "buyer state code used for GST (overrides sync.buyer_state)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))

	return cmd
}

// Execute runs cartctl with args and returns the process exit code.
// Failures are reported on stdout in the selected format.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{Format: "text"}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	format := opts.Format
	if !slices.Contains(ValidFormats, format) {
		format = "text"
	}
	out := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
	code, details := classify(err)
	_ = out.Error(code, err.Error(), details)
	return GetExitCode(err)
}
