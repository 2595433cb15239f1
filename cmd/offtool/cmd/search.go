package cmd

import (
	"github.com/spf13/cobra"

	"github.com/democratize-technology/open-food-facts/internal/domain"
)

var (
	searchTerms    string
	searchBarcode  string
	searchMode     string
	searchPage     int
	searchPageSize int
	searchFields   []string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search products by text, barcode prefix, or tags",
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchTerms, "terms", "", "free text search terms")
	searchCmd.Flags().StringVar(&searchBarcode, "barcode", "", "barcode or barcode fragment (digits only)")
	searchCmd.Flags().StringVar(&searchMode, "match", "exact", "barcode match mode: contains, starts, ends, exact")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "result page")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 0, "results per page")
	searchCmd.Flags().StringSliceVar(&searchFields, "fields", nil, "restrict result objects to these fields")
}

func runSearch(cmd *cobra.Command, args []string) error {
	service, err := newService()
	if err != nil {
		return err
	}

	result, err := service.SearchProducts(cmd.Context(), &domain.SearchCriteria{
		Terms:     searchTerms,
		Barcode:   searchBarcode,
		MatchMode: searchMode,
		Page:      searchPage,
		PageSize:  searchPageSize,
		Fields:    searchFields,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}
