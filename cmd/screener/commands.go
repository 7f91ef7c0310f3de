package main

import (
	"fmt"
	"os"

	"PivotScreener/internal/presenter"
	"PivotScreener/pkg/util"

	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	var symbols string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the sentiment summary for a set of symbols",
		Example: `  screener report
  screener report --symbols BTC/USDT,ETH/USDT,SOL/USDT --tf 1w`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			list := s.cfg.Screener.Symbols
			if symbols != "" {
				list = util.SplitList(symbols)
			}
			ctx, cancel := signalContext()
			defer cancel()

			r := s.screener.BuildReport(ctx, list, s.tf, s.limit)
			return presenter.WriteSummaryTable(os.Stdout, r)
		},
	}
	cmd.Flags().StringVar(&symbols, "symbols", "", "comma separated symbols (default from config)")
	return cmd
}

func detailCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "detail <symbol>",
		Short:   "Print every bar of one symbol with its pivot levels and signals",
		Example: "  screener detail BTC/USDT --limit 30",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := signalContext()
			defer cancel()

			a, err := s.screener.Detail(ctx, args[0], s.tf, s.limit)
			if err != nil {
				return err
			}
			return presenter.WriteDetailTable(os.Stdout, a)
		},
	}
}

func symbolsCmd() *cobra.Command {
	var quote string
	cmd := &cobra.Command{
		Use:   "symbols",
		Short: "List tradable symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, cancel := signalContext()
			defer cancel()

			list, err := s.screener.Symbols(ctx, quote)
			if err != nil {
				return err
			}
			for _, sym := range list {
				fmt.Fprintln(os.Stdout, sym)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&quote, "quote", "", "only symbols quoted in this asset, e.g. USDT")
	return cmd
}
