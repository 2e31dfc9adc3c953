package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	appcart "github.com/storefront/cartsync/internal/application/cart"
)

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Show the cart with GST totals",
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) (appcart.MutationResult, error) {
				if !refresh {
					return appcart.MutationResult{Snapshot: s.coord.Snapshot()}, nil
				}
				snap, err := s.coord.Refresh(ctx)
				return appcart.MutationResult{Snapshot: snap}, err
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the remote cart before showing it")

	return cmd
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Quantity int
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a catalog product to the cart",
		Long: `Add a catalog product to the cart.

The product's price, seller and HSN code are read from the catalog. Adding a
product already in the cart increases its quantity, limited to the stock on hand.

Example:
  cartctl add p-shirt --qty 2`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Quantity < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("--qty must be at least 1, got %d", opts.Quantity))
			}
			return withSession(cmd, rootOpts, func(ctx context.Context, s *session) (appcart.MutationResult, error) {
				p, err := s.catalog.GetProduct(ctx, args[0])
				if err != nil {
					return appcart.MutationResult{}, err
				}
				return s.coord.AddItem(ctx, appcart.AddItemInput{
					ProductID:   p.ID,
					Name:        p.Name,
					UnitPrice:   p.Price,
					IsInclusive: p.IsInclusive,
					Quantity:    opts.Quantity,
					SellerID:    p.SellerID,
					SellerState: p.SellerState,
					HSNCode:     p.HSNCode,
				})
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Quantity, "qty", "q", 1, "quantity to add")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <item> <quantity>",
		Short: "Set the quantity of a cart line",
		Long: `Set the quantity of a cart line. A quantity of 0 or less removes it.

<item> is an item id, a remote id or a product id.`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid quantity", err)
			}
			return withSession(cmd, opts, func(ctx context.Context, s *session) (appcart.MutationResult, error) {
				id, err := s.resolveItem(args[0])
				if err != nil {
					return appcart.MutationResult{}, fmt.Errorf("%q: %w", args[0], err)
				}
				return s.coord.UpdateQuantity(ctx, id, qty)
			})
		},
	}
	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "remove <item>",
		Short:         "Remove a cart line",
		Long:          "Remove a cart line. <item> is an item id, a remote id or a product id.",
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) (appcart.MutationResult, error) {
				id, err := s.resolveItem(args[0])
				if err != nil {
					return appcart.MutationResult{}, fmt.Errorf("%q: %w", args[0], err)
				}
				return s.coord.RemoveItem(ctx, id)
			})
		},
	}
	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Remove every line from the cart",
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, s *session) (appcart.MutationResult, error) {
				return s.coord.Clear(ctx)
			})
		},
	}
	return cmd
}

// withSession opens an authenticated-if-possible session, runs fn and prints
// the resulting cart.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(context.Context, *session) (appcart.MutationResult, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, opts, true)
	if err != nil {
		return err
	}
	defer s.close()

	out := newFormatter(cmd, opts)
	out.Verbosef("session %s, cart %s, remote %s", s.coord.State(), s.coord.CartID(), s.cfg.Sync.RemoteBaseURL)

	res, err := fn(ctx, s)
	if err != nil {
		return err
	}
	return out.Success(newCartView(s.coord.State(), res, s.warnings...))
}
