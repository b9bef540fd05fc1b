package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start, stop and list station sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		sessions := a.shop.ActiveSessions()
		if all, _ := cmd.Flags().GetBool("all"); all {
			sessions = a.shop.Sessions()
		}

		now := a.shop.Now()
		loc := a.reports.Location

		out := cmd.OutOrStdout()
		heading(out, "Sessions")
		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tSTATION\tCUSTOMER\tSTARTED\tELAPSED\tDUE")
		for _, s := range sessions {
			elapsed := formatElapsed(s.Duration(now))
			if s.Active() {
				elapsed = yellow.Sprint(elapsed)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
				s.ID, s.StationID, s.Customer,
				s.StartedAt.In(loc).Format("2006-01-02 15:04"),
				elapsed, s.Due(now).StringFixed(2))
		}
		return tw.Flush()
	},
}

var sessionStartCmd = &cobra.Command{
	Use:   "start STATION_ID",
	Short: "Start a session on a free station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		customer, _ := cmd.Flags().GetString("customer")
		s, err := a.shop.StartSession(cmd.Context(), id, customer)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Started session %s on station %d for %s at %s/hr",
			s.ID, s.StationID, s.Customer, s.RatePerHour.StringFixed(2))
		return nil
	},
}

var sessionStopCmd = &cobra.Command{
	Use:   "stop SESSION_ID",
	Short: "Stop a session and record its charge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		receipt, err := a.shop.StopSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		s := receipt.Session
		success(out, "Stopped session %s on station %d", s.ID, s.StationID)
		fmt.Fprintf(out, "  Duration: %s\n", formatElapsed(s.Duration(*s.EndedAt)))
		fmt.Fprintf(out, "  Amount:   %s\n", cyan.Sprint(receipt.Amount().StringFixed(2)))
		return nil
	},
}

func init() {
	sessionListCmd.Flags().Bool("all", false, "Include stopped sessions")
	sessionStartCmd.Flags().String("customer", "", "Customer name (defaults to Walk-in)")

	sessionCmd.AddCommand(sessionListCmd, sessionStartCmd, sessionStopCmd)
	rootCmd.AddCommand(sessionCmd)
}
