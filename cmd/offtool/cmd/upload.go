package cmd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/democratize-technology/open-food-facts/internal/domain"
	"github.com/democratize-technology/open-food-facts/internal/validate"
)

var (
	uploadField    string
	uploadLanguage string
	uploadUserID   string
	uploadPassword string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <barcode> <image-path>",
	Short: "Upload a product photo",
	Long: `upload attaches an image from disk to a product. The photo slot is
selected with --field and --lang, and the write requires an Open Food
Facts account.

Example:
  offtool upload 3017620422003 front.jpg --field front --lang en --user me --password secret`,
	Args: cobra.ExactArgs(2),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadField, "field", "front", "photo slot: front, ingredients, or nutrition")
	uploadCmd.Flags().StringVar(&uploadLanguage, "lang", "en", "language code for the photo slot")
	uploadCmd.Flags().StringVar(&uploadUserID, "user", "", "Open Food Facts user ID")
	uploadCmd.Flags().StringVar(&uploadPassword, "password", "", "Open Food Facts password")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	service, err := newCredentialedService(uploadUserID, uploadPassword)
	if err != nil {
		return err
	}

	file, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	asset := &validate.FileAsset{
		File: file,
		Type: mime.TypeByExtension(filepath.Ext(args[1])),
	}
	target := &domain.PhotoTarget{Field: uploadField, LanguageCode: uploadLanguage}

	result, err := service.UploadPhoto(cmd.Context(), args[0], asset, target)
	if err != nil {
		return err
	}
	return printJSON(result)
}
