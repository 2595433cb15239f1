package request

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
	"github.com/democratize-technology/open-food-facts/internal/domain"
	"github.com/democratize-technology/open-food-facts/internal/validate"
)

// photoFields are the product facets a photo can document.
var photoFields = map[string]bool{
	"front":       true,
	"ingredients": true,
	"nutrition":   true,
}

// ValidatePhotoTarget checks the {field, languageCode} pair before any
// body is built or any byte of the image is touched.
func ValidatePhotoTarget(target *domain.PhotoTarget) error {
	if target == nil || target.Field == "" || target.LanguageCode == "" {
		return apierr.New(apierr.MissingInput, "Type with field and languageCode is required")
	}
	if !photoFields[target.Field] {
		return apierr.New(apierr.FormatInvalid, "Invalid field type. Must be front, ingredients, or nutrition.")
	}
	return nil
}

// ProductForm builds the multipart body for product creation. The
// barcode and credentials are already validated by the caller; brands
// and labels are sanitized here because they are free text.
func ProductForm(data *domain.NewProductData, creds domain.Credentials) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fields := []formField{
		{"code", data.Code},
		{"user_id", creds.UserID},
		{"password", creds.Password},
	}
	if data.Brands != "" {
		fields = append(fields, formField{"brands", validate.SearchInput(data.Brands)})
	}
	if data.Labels != "" {
		fields = append(fields, formField{"labels", validate.SearchInput(data.Labels)})
	}
	if err := writeFields(w, fields); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// PhotoForm builds the multipart body for a photo upload: the barcode,
// credentials, the imagefield selector "{field}_{lang}", and the image
// content bound under "imgupload_{field}_{lang}".
func PhotoForm(barcode string, image validate.Asset, target *domain.PhotoTarget, creds domain.Credentials) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	imageField := fmt.Sprintf("%s_%s", target.Field, target.LanguageCode)
	fields := []formField{
		{"code", barcode},
		{"user_id", creds.UserID},
		{"password", creds.Password},
		{"imagefield", imageField},
	}
	if err := writeFields(w, fields); err != nil {
		return nil, "", err
	}

	content, err := assetReader(image)
	if err != nil {
		return nil, "", err
	}
	part, err := w.CreateFormFile(fmt.Sprintf("imgupload_%s", imageField), fmt.Sprintf("%s.jpg", imageField))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("failed to copy image content: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

// formField is one ordered key/value pair of a multipart body. Fields
// are written as a slice so identical inputs produce identical bodies.
type formField struct {
	key   string
	value string
}

func writeFields(w *multipart.Writer, fields []formField) error {
	for _, f := range fields {
		if err := w.WriteField(f.key, f.value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", f.key, err)
		}
	}
	return nil
}

// assetReader turns an Asset into a full-content reader for the upload
// body. Random access is preferred over a plain reader: a ReaderAt
// always yields the content from offset zero, while a bare io.Reader
// hands over whatever stream position its owner left it at. Callers
// with stream-only assets go through validate.Materialize first.
func assetReader(image validate.Asset) (io.Reader, error) {
	switch a := image.(type) {
	case *validate.BytesAsset:
		return a.Open(), nil
	case io.ReaderAt:
		size := image.Size()
		if size < 0 {
			return nil, apierr.New(apierr.MissingInput, "Image file is required")
		}
		return io.NewSectionReader(a, 0, size), nil
	case io.Reader:
		return a, nil
	default:
		return nil, apierr.New(apierr.MissingInput, "Image file is required")
	}
}
