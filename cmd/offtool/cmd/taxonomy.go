package cmd

import (
	"github.com/spf13/cobra"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy <type>",
	Short: "Fetch a taxonomy dataset (additives, allergens, brands, ...)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaxonomy,
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
}

func runTaxonomy(cmd *cobra.Command, args []string) error {
	service, err := newService()
	if err != nil {
		return err
	}

	taxonomy, err := service.GetTaxonomy(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(taxonomy)
}
