package cmd

import (
	"github.com/spf13/cobra"
)

var (
	insightCount int
	insightLang  string
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Fetch random annotation questions from Robotoff",
	RunE:  runInsight,
}

func init() {
	rootCmd.AddCommand(insightCmd)

	insightCmd.Flags().IntVar(&insightCount, "count", 1, "number of questions")
	insightCmd.Flags().StringVar(&insightLang, "lang", "", "question language code")
}

func runInsight(cmd *cobra.Command, args []string) error {
	service, err := newService()
	if err != nil {
		return err
	}

	insights, err := service.GetRandomInsight(cmd.Context(), insightCount, insightLang)
	if err != nil {
		return err
	}
	return printJSON(insights)
}
