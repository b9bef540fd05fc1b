package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show income summaries and recent transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		loc := a.reports.Location
		now := a.shop.Now()
		if raw, _ := cmd.Flags().GetString("date"); raw != "" {
			day, err := time.ParseInLocation("2006-01-02", raw, loc)
			if err != nil {
				return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
			}
			now = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}

		recent, _ := cmd.Flags().GetInt("recent")
		if recent < 0 {
			recent = a.cfg.Shop.RecentTransactions
		}

		s := a.reports.Summarize(a.shop.Ledger(), now, recent)

		out := cmd.OutOrStdout()
		heading(out, "Income")
		fmt.Fprintf(out, "  Date:        %s\n", s.Today.Date.Format("Mon 2006-01-02"))
		fmt.Fprintf(out, "  Today:       %s (%d sessions)\n", green.Sprint(s.Today.Income.StringFixed(2)), s.Today.Sessions)
		fmt.Fprintf(out, "  This week:   %s\n", s.Week.StringFixed(2))
		fmt.Fprintf(out, "  This month:  %s\n", s.Month.StringFixed(2))
		fmt.Fprintf(out, "  This year:   %s\n", s.Year.StringFixed(2))
		fmt.Fprintf(out, "  All time:    %s\n", s.AllTime.StringFixed(2))

		if len(s.Recent) == 0 {
			return nil
		}

		fmt.Fprintln(out)
		heading(out, "Recent transactions")
		tw := newTable(out)
		fmt.Fprintln(tw, "TIME\tKIND\tAMOUNT\tDETAILS")
		for _, t := range s.Recent {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				t.Timestamp.In(loc).Format("2006-01-02 15:04"), t.Kind, t.Amount.StringFixed(2), t.Details)
		}
		return tw.Flush()
	},
}

func init() {
	reportCmd.Flags().String("date", "", "Report as of the end of this date (YYYY-MM-DD)")
	reportCmd.Flags().Int("recent", -1, "Number of recent transactions to list (defaults to shop.recent_transactions)")
	rootCmd.AddCommand(reportCmd)
}
