package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var sellCmd = &cobra.Command{
	Use:   "sell PRODUCT_ID [QUANTITY]",
	Short: "Sell units of a product",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}

		quantity := 1
		if len(args) == 2 {
			quantity, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: must be an integer", args[1])
			}
		}

		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		receipt, err := a.shop.Sell(cmd.Context(), id, quantity)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		success(out, "%s", receipt.Transaction.Details)
		fmt.Fprintf(out, "  Amount: %s\n", cyan.Sprint(receipt.Amount().StringFixed(2)))
		if receipt.Product != nil {
			fmt.Fprintf(out, "  Stock:  %d left\n", receipt.Product.Stock)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sellCmd)
}
