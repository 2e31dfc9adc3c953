package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appcart "github.com/storefront/cartsync/internal/application/cart"
	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/domain/shared"
	"github.com/storefront/cartsync/internal/infrastructure/remote"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The cart operation failed (remote error, partial sync loss, unknown item)
	ExitCommandError = 2 // Command error (bad arguments, unreadable config, local store unavailable)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// exactArgs is cobra.ExactArgs with a command-error exit code
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose and diagnostic output (defaults to Writer)
	Verbose   bool
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// textRenderer is implemented by results with a human-readable layout
type textRenderer interface {
	renderText(w io.Writer)
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	if r, ok := data.(textRenderer); ok {
		r.renderText(f.Writer)
		return nil
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.errWriter(), "Details: %+v\n", details)
	}
	return nil
}

// Verbosef writes a diagnostic line when --verbose is set.
func (f *OutputFormatter) Verbosef(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.errWriter(), format+"\n", args...)
	}
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// classify maps an error to a stable code and optional details
func classify(err error) (string, any) {
	var (
		exitErr *ExitError
		loss    *cart.PartialSyncLoss
		syncErr *cart.RemoteSyncError
		apiErr  *remote.APIError
	)
	switch {
	case errors.As(err, &loss):
		return "PARTIAL_SYNC_LOSS", loss.ProductIDs()
	case errors.Is(err, cart.ErrItemNotFound):
		return "ITEM_NOT_FOUND", nil
	case errors.Is(err, cart.ErrInvalidQuantity):
		return "INVALID_QUANTITY", nil
	case errors.Is(err, cart.ErrOutOfStock):
		return "OUT_OF_STOCK", nil
	case errors.Is(err, cart.ErrInvalidTransition):
		return "INVALID_TRANSITION", nil
	case errors.As(err, &syncErr):
		if errors.As(err, &apiErr) {
			return "REMOTE_SYNC_FAILED", map[string]any{"op": syncErr.Op, "status": apiErr.StatusCode, "code": apiErr.Code}
		}
		return "REMOTE_SYNC_FAILED", map[string]any{"op": syncErr.Op}
	case errors.Is(err, shared.ErrNotFound):
		return "NOT_FOUND", nil
	case errors.As(err, &apiErr):
		return "REMOTE_ERROR", map[string]any{"status": apiErr.StatusCode, "code": apiErr.Code}
	case errors.As(err, &exitErr) && exitErr.Code == ExitCommandError:
		return "COMMAND_ERROR", nil
	}
	return "ERROR", nil
}

// cartView is the result of every cart command
type cartView struct {
	State    appcart.SessionState `json:"state"`
	Snapshot cart.CartSnapshot    `json:"cart"`
	Item     *cart.LineItem       `json:"item,omitempty"`
	Clamped  bool                 `json:"clamped,omitempty"`
	Warnings []cart.Warning       `json:"warnings,omitempty"`
}

func newCartView(state appcart.SessionState, res appcart.MutationResult, warnings ...cart.Warning) cartView {
	v := cartView{
		State:    state,
		Snapshot: res.Snapshot,
		Clamped:  res.Clamped,
		Warnings: append(warnings, res.Warnings...),
	}
	if !res.Removed && res.Item.ProductID != "" {
		item := res.Item
		v.Item = &item
	}
	return v
}

func (v cartView) renderText(w io.Writer) {
	s := v.Snapshot
	fmt.Fprintf(w, "Cart (%s): %d item(s)\n", v.State, s.ItemCount)
	if v.Item != nil && v.Clamped {
		fmt.Fprintf(w, "Quantity of %s limited to %d by stock\n", v.Item.ProductID, v.Item.Quantity)
	}
	if len(s.Items) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ITEM\tPRODUCT\tNAME\tQTY\tUNIT\tSUBTOTAL\tTAX")
		for _, it := range s.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				it.ItemID, it.ProductID, it.Name, it.Quantity,
				it.UnitPrice.StringFixed(2), it.LineSubtotal().StringFixed(2), it.LineTax().StringFixed(2))
		}
		_ = tw.Flush()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Subtotal:\t%s\t\n", s.Subtotal.StringFixed(2))
	if !s.IGSTTotal.IsZero() {
		fmt.Fprintf(tw, "IGST:\t%s\t\n", s.IGSTTotal.StringFixed(2))
	}
	if !s.CGSTTotal.IsZero() || !s.SGSTTotal.IsZero() {
		fmt.Fprintf(tw, "CGST:\t%s\t\n", s.CGSTTotal.StringFixed(2))
		fmt.Fprintf(tw, "SGST:\t%s\t\n", s.SGSTTotal.StringFixed(2))
	}
	if !s.ShippingAmount.IsZero() {
		fmt.Fprintf(tw, "Shipping:\t%s\t\n", s.ShippingAmount.Add(s.ShippingTaxAmount).StringFixed(2))
	}
	if !s.DiscountAmount.IsZero() {
		fmt.Fprintf(tw, "Discount:\t-%s\t\n", s.DiscountAmount.StringFixed(2))
	}
	fmt.Fprintf(tw, "Total tax:\t%s\t\n", s.TaxMoney())
	fmt.Fprintf(tw, "Grand total:\t%s\t\n", s.GrandTotalMoney())
	_ = tw.Flush()

	renderWarnings(w, v.Warnings)
}

// loginView is the result of the login command
type loginView struct {
	UserID      string         `json:"user_id"`
	AccessToken string         `json:"access_token"`
	Pushed      []string       `json:"pushed"`
	Failed      []string       `json:"failed,omitempty"`
	Cart        cartView       `json:"session"`
}

func newLoginView(userID, token string, state appcart.SessionState, report appcart.SyncReport) loginView {
	v := loginView{
		UserID:      userID,
		AccessToken: token,
		Pushed:      make([]string, 0, len(report.Pushed)),
		Cart:        cartView{State: state, Snapshot: report.Snapshot, Warnings: report.Warnings},
	}
	for _, it := range report.Pushed {
		v.Pushed = append(v.Pushed, it.ProductID)
	}
	for _, f := range report.Failed {
		v.Failed = append(v.Failed, f.Item.ProductID)
	}
	return v
}

func (v loginView) renderText(w io.Writer) {
	fmt.Fprintf(w, "Logged in as %s; merged %d local item(s)\n", v.UserID, len(v.Pushed))
	if len(v.Failed) > 0 {
		fmt.Fprintf(w, "Not merged: %v\n", v.Failed)
	}
	fmt.Fprintf(w, "Token: %s\n", v.AccessToken)
	v.Cart.renderText(w)
}

func renderWarnings(w io.Writer, warnings []cart.Warning) {
	for _, wn := range warnings {
		fmt.Fprintf(w, "warning [%s]: %s\n", wn.Code, wn.Message)
	}
}
