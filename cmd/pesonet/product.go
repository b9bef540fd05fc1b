package main

import (
	"fmt"

	"github.com/goodtune/pesonet/internal/shop"
	"github.com/spf13/cobra"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Manage the product catalog",
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products with price and stock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		heading(out, "Products")
		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
		for _, p := range a.shop.Products() {
			stock := fmt.Sprint(p.Stock)
			if p.Stock == 0 {
				stock = red.Sprint("out")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), stock)
		}
		return tw.Flush()
	},
}

var productAddCmd = &cobra.Command{
	Use:   "add NAME PRICE STOCK",
	Short: "Add a product to the catalog",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.shop.AddProduct(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Added product %d %s at %s (%d in stock)", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
		return nil
	},
}

var productEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change a product's name, price or stock",
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

		var edit shop.ProductEdit
		edit.Name, _ = cmd.Flags().GetString("name")
		edit.Price, _ = cmd.Flags().GetString("price")
		edit.Stock, _ = cmd.Flags().GetString("stock")

		p, err := a.shop.EditProduct(cmd.Context(), id, edit)
		if err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Updated product %d %s at %s (%d in stock)", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
		return nil
	},
}

var productRemoveCmd = &cobra.Command{
	Use:     "remove ID",
	Aliases: []string{"rm"},
	Short:   "Remove a product",
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

		if err := a.shop.RemoveProduct(cmd.Context(), id); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Removed product %d", id)
		return nil
	},
}

func init() {
	productEditCmd.Flags().String("name", "", "New product name")
	productEditCmd.Flags().String("price", "", "New unit price")
	productEditCmd.Flags().String("stock", "", "New stock count")

	productCmd.AddCommand(productListCmd, productAddCmd, productEditCmd, productRemoveCmd)
	rootCmd.AddCommand(productCmd)
}
