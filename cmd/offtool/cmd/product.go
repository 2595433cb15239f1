package cmd

import (
	"github.com/spf13/cobra"
)

var productCmd = &cobra.Command{
	Use:   "product <barcode>",
	Short: "Look up a product by barcode",
	Args:  cobra.ExactArgs(1),
	RunE:  runProduct,
}

func init() {
	rootCmd.AddCommand(productCmd)
}

func runProduct(cmd *cobra.Command, args []string) error {
	service, err := newService()
	if err != nil {
		return err
	}

	product, err := service.GetProduct(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(product)
}
