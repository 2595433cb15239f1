package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/democratize-technology/open-food-facts/internal/infrastructure/off"
	"github.com/democratize-technology/open-food-facts/internal/usecase"
)

var (
	endpoint        string
	insightEndpoint string
	debug           bool
)

var rootCmd = &cobra.Command{
	Use:   "offtool",
	Short: "Query the Open Food Facts API from the command line",
	Long: `offtool looks up products, runs searches, and fetches taxonomies
and annotation questions from the Open Food Facts API.

Examples:
  offtool product 3017620422003
  offtool search --terms "dark chocolate" --page-size 5
  offtool search --terms milk --fields code,product_name
  offtool taxonomy additives
  offtool insight --count 3 --lang fr`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "https://world.openfoodfacts.org", "API base endpoint (HTTPS only)")
	rootCmd.PersistentFlags().StringVar(&insightEndpoint, "insight-endpoint", "https://robotoff.openfoodfacts.org", "Robotoff endpoint (HTTPS only)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable request logging")
}

// newService builds the retrying service the subcommands share.
func newService() (*usecase.ProductService, error) {
	client, err := off.NewClient(endpoint, insightEndpoint)
	if err != nil {
		return nil, err
	}
	client.SetDebug(debug)
	return usecase.NewProductService(client, usecase.ProductServiceConfig{
		EnableDebugLogging: debug,
	}), nil
}

// newCredentialedService is newService plus the write credentials the
// upload command needs.
func newCredentialedService(userID, password string) (*usecase.ProductService, error) {
	client, err := off.NewClient(endpoint, insightEndpoint)
	if err != nil {
		return nil, err
	}
	client.SetDebug(debug)
	if err := client.SetCredentials(userID, password); err != nil {
		return nil, err
	}
	return usecase.NewProductService(client, usecase.ProductServiceConfig{
		EnableDebugLogging: debug,
	}), nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
