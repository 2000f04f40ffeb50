// Package main provides the tabsplit command line client.
//
// Stateless commands (split, shares, settle) work on YAML bill files. The
// others keep a current bill under TABSPLIT_DATA_DIR, saved to the app cache
// and bill files, and backed up to a tabsplit server when
// TABSPLIT_REMOTE_URL is set.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/tabsplit/internal/calculator"
	"github.com/mmynk/tabsplit/internal/config"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/shares"
	"github.com/mmynk/tabsplit/pkg/logging"
)

const appName = "tabsplit"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by every command.
type options struct {
	logLevel string
	locale   string
	pr       printer
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Split a restaurant bill between diners",
		Long: `tabsplit divides a restaurant bill between the people at the table.

Items are shared in whole shares, tax and tip are prorated by what each diner
ordered, and every diner's amount is rounded to the cent so that the amounts
add up to the bill total.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			logging.SetupWithLevel(level)
			opts.pr, err = newPrinter(opts.locale)
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.locale, "locale", "en-US", "Locale for amounts (BCP 47 tag)")

	cmd.AddCommand(
		splitCmd(opts),
		sharesCmd(),
		settleCmd(opts),
		billsCmd(opts),
		importCmd(opts),
		exportCmd(),
		showCmd(opts),
		newCmd(opts),
		watchCmd(),
	)
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitCmd(opts *options) *cobra.Command {
	var cutoff string

	cmd := &cobra.Command{
		Use:   "split FILE",
		Short: "Print each diner's share of a bill file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fairness, err := decimal.NewFromString(cutoff)
			if err != nil || fairness.IsNegative() {
				return fmt.Errorf("invalid --cutoff %q", cutoff)
			}
			b, err := loadBillFile(args[0], time.Now())
			if err != nil {
				return err
			}
			b.SortCosts()
			res := calculator.DistributeCosts(b, calculator.WithFairnessCutoff(fairness))
			return opts.pr.allocation(cmd.OutOrStdout(), b, res)
		},
	}
	cmd.Flags().StringVar(&cutoff, "cutoff", calculator.DefaultFairnessCutoff.String(),
		"Largest per-diner rounding difference settled by preference")
	return cmd
}

func sharesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shares AMOUNT...",
		Short: "Infer whole shares from what each diner paid for an item",
		Long: `shares prints the smallest whole share counts matching the given
amounts, one per diner. For example "shares 7.50 2.50" prints "3 1".`,
		Args: cobra.RangeArgs(1, shares.MaxDiners),
		RunE: func(cmd *cobra.Command, args []string) error {
			var amounts [shares.MaxDiners]decimal.Decimal
			for i, arg := range args {
				d, err := decimal.NewFromString(arg)
				if err != nil {
					return fmt.Errorf("amount %q: %w", arg, err)
				}
				if d.IsNegative() {
					return fmt.Errorf("amount %q is negative", arg)
				}
				amounts[i] = d
			}
			counts := shares.CostsToShares(amounts)

			out := make([]string, len(args))
			for i := range args {
				out[i] = fmt.Sprint(counts[i])
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(out, " "))
			return err
		},
	}
}

func settleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "settle FILE...",
		Short: "Settle up the payers of several bill files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			bills := make([]*models.Bill, 0, len(args))
			for i, path := range args {
				// Distinct creation times keep undated bills apart.
				b, err := loadBillFile(path, now.Add(time.Duration(i)*time.Second))
				if err != nil {
					return err
				}
				bills = append(bills, b)
			}
			balances, debts, err := calculator.SettleUp(bills)
			if err != nil {
				return err
			}
			return opts.pr.settlement(cmd.OutOrStdout(), balances, debts)
		},
	}
}

func parseTier(s string) (models.Tier, error) {
	switch strings.ToLower(s) {
	case "cache":
		return models.TierCache, nil
	case "file":
		return models.TierFile, nil
	case "remote":
		return models.TierRemote, nil
	}
	return 0, fmt.Errorf("unknown tier %q (cache, file, remote)", s)
}

func billsCmd(opts *options) *cobra.Command {
	var tier string

	cmd := &cobra.Command{
		Use:   "bills",
		Short: "List stored bills, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTier(tier)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				infos, err := a.gateway.List(ctx, t)
				if err != nil {
					return err
				}
				return opts.pr.bills(cmd.OutOrStdout(), infos)
			})
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "file", "Tier to list (cache, file, remote)")
	return cmd
}

func importCmd(opts *options) *cobra.Command {
	var startNew bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the current bill's contents with a bill file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadBillFile(args[0], time.Now())
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if startNew {
					if _, err := a.session.StartNew(ctx); err != nil {
						a.logger.Warn("Previous bill not saved yet", "error", err)
					}
				}
				if _, err := a.session.Mutate(func(b *models.Bill) (bool, error) {
					replaceContents(b, in)
					return true, nil
				}); err != nil {
					return err
				}
				b, res := a.session.Allocate()
				if err := opts.pr.allocation(cmd.OutOrStdout(), b, res); err != nil {
					return err
				}
				return a.flush(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&startNew, "new", false, "Start a new bill instead of editing the current one")
	return cmd
}

// replaceContents copies everything but identity and storage state from src.
func replaceContents(dst, src *models.Bill) {
	dst.Venue = src.Venue
	dst.Items = src.Items
	dst.Costs = src.Costs
	dst.TaxRate = src.TaxRate
	dst.TipRate = src.TipRate
	dst.TipOnTax = src.TipOnTax
	dst.CouponAfterTax = src.CouponAfterTax
	dst.TaxDelta = src.TaxDelta
	dst.TipDelta = src.TipDelta
	dst.PayerID = src.PayerID
	dst.SortCosts()
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE",
		Short: "Write the current bill as a bill file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return writeBillFile(args[0], a.session.Current())
			})
		},
	}
}

func showCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current bill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				b, res := a.session.Allocate()
				if err := opts.pr.allocation(cmd.OutOrStdout(), b, res); err != nil {
					return err
				}
				return a.flush(ctx)
			})
		},
	}
}

func newCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Freeze the current bill and start a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				b, err := a.session.StartNew(ctx)
				if err != nil {
					a.logger.Warn("Previous bill not saved yet", "error", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Started %s\n", b.ID())
				return a.flush(ctx)
			})
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the current bill saved and backed up until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, func(ctx context.Context, a *app) error {
				return a.watch(ctx)
			})
		},
	}
}

// withApp opens the stored-bill app from the environment for fn.
func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(ctx, a)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
