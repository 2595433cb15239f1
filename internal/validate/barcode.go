// Package validate holds the input validation and sanitization stages
// that run before any request is built or sent. Every check is a pure
// predicate: no trimming, no normalization, no side effects.
package validate

import (
	"regexp"

	"github.com/democratize-technology/open-food-facts/internal/apierr"
)

// Compiled once at package init, like the other pattern sets in this repo
var (
	fullBarcodePattern    = regexp.MustCompile(`^\d{8,13}$`)
	partialBarcodePattern = regexp.MustCompile(`^\d+$`)
)

// Barcode validates a barcode string. With allowPartial false the value
// must be exactly 8-13 decimal digits (EAN-8 through EAN-13/GTIN); with
// allowPartial true any non-empty all-digit string passes, which is what
// search contexts accept.
func Barcode(value string, allowPartial bool) error {
	if allowPartial {
		if !partialBarcodePattern.MatchString(value) {
			return apierr.New(apierr.FormatInvalid, "Invalid barcode format. Must contain only digits.")
		}
		return nil
	}
	if !fullBarcodePattern.MatchString(value) {
		return apierr.New(apierr.FormatInvalid, "Invalid barcode format. Must be 8-13 digits.")
	}
	return nil
}
