package main

import (
	"fmt"
	"strconv"

	"github.com/goodtune/pesonet/internal/shop"
	"github.com/spf13/cobra"
)

var stationCmd = &cobra.Command{
	Use:   "station",
	Short: "Manage stations",
}

var stationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		stations := a.shop.Stations()
		if freeOnly, _ := cmd.Flags().GetBool("free"); freeOnly {
			stations = a.shop.FreeStations()
		}

		out := cmd.OutOrStdout()
		heading(out, "Stations")
		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tNAME\tRATE/HR\tSTATUS")
		for _, st := range stations {
			status := green.Sprint("free")
			if st.Occupied {
				status = yellow.Sprint("occupied")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.ID, st.Name, st.RatePerHour.StringFixed(2), status)
		}
		return tw.Flush()
	},
}

var stationAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a new station",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		rate, _ := cmd.Flags().GetString("rate")
		if rate == "" {
			rate = a.cfg.Shop.DefaultRate
		}

		st, err := a.shop.AddStation(cmd.Context(), args[0], rate)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Added station %d %s at %s/hr", st.ID, st.Name, st.RatePerHour.StringFixed(2))
		return nil
	},
}

var stationEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Rename a station or change its hourly rate",
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

		var edit shop.StationEdit
		edit.Name, _ = cmd.Flags().GetString("name")
		edit.Rate, _ = cmd.Flags().GetString("rate")

		st, err := a.shop.EditStation(cmd.Context(), id, edit)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Updated station %d %s at %s/hr", st.ID, st.Name, st.RatePerHour.StringFixed(2))
		return nil
	},
}

var stationRemoveCmd = &cobra.Command{
	Use:     "remove ID",
	Aliases: []string{"rm"},
	Short:   "Remove a free station",
	Args:    cobra.ExactArgs(1),
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

		if err := a.shop.RemoveStation(cmd.Context(), id); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Removed station %d", id)
		return nil
	},
}

func init() {
	stationListCmd.Flags().Bool("free", false, "Only list stations without an active session")
	stationAddCmd.Flags().String("rate", "", "Hourly rate (defaults to shop.default_rate)")
	stationEditCmd.Flags().String("name", "", "New station name")
	stationEditCmd.Flags().String("rate", "", "New hourly rate")

	stationCmd.AddCommand(stationListCmd, stationAddCmd, stationEditCmd, stationRemoveCmd)
	rootCmd.AddCommand(stationCmd)
}

func parseIDArg(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be an integer", raw)
	}
	return id, nil
}
