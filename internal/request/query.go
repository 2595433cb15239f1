// Package request assembles outgoing query strings and multipart bodies
// from validated inputs, and projects responses down to caller-chosen
// field allow-lists.
package request

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/democratize-technology/open-food-facts/internal/domain"
	"github.com/democratize-technology/open-food-facts/internal/validate"
)

// matchModes are the code_type values the search endpoint understands.
// Anything else falls back to exact.
var matchModes = map[string]bool{
	"contains": true,
	"starts":   true,
	"ends":     true,
	"exact":    true,
}

// SearchQuery builds the query parameter set for the search endpoint
// from already-typed criteria. Free text is sanitized here; the barcode
// is validated in its partial form because search accepts prefixes.
func SearchQuery(criteria *domain.SearchCriteria) (url.Values, error) {
	params := url.Values{}
	params.Set("json", "true")
	params.Set("action", "process")

	if criteria == nil {
		return params, nil
	}

	if criteria.Terms != "" {
		params.Set("search_terms", validate.SearchInput(criteria.Terms))
	}

	if criteria.Barcode != "" {
		if err := validate.Barcode(criteria.Barcode, true); err != nil {
			return nil, err
		}
		params.Set("code", criteria.Barcode)
		mode := criteria.MatchMode
		if !matchModes[mode] {
			mode = "exact"
		}
		params.Set("code_type", mode)
	}

	addTagFilters(params, criteria)

	if criteria.Additives != "" {
		params.Set("additives", criteria.Additives)
	}
	if criteria.PalmOil != "" {
		params.Set("ingredients_from_palm_oil", criteria.PalmOil)
	}

	if criteria.Page > 0 {
		params.Set("page", strconv.Itoa(criteria.Page))
	}
	if criteria.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(criteria.PageSize))
	}

	return params, nil
}

// addTagFilters zips the parallel tag arrays by position into
// index-suffixed tagtype_i / tag_i / tag_contains_i triples. Unpaired
// tails beyond the shorter of types/values are dropped; a missing
// contains entry defaults to "contains".
func addTagFilters(params url.Values, criteria *domain.SearchCriteria) {
	n := len(criteria.TagTypes)
	if len(criteria.TagValues) < n {
		n = len(criteria.TagValues)
	}
	for i := 0; i < n; i++ {
		contains := "contains"
		if i < len(criteria.TagContains) && criteria.TagContains[i] != "" {
			contains = criteria.TagContains[i]
		}
		params.Set(fmt.Sprintf("tagtype_%d", i), criteria.TagTypes[i])
		params.Set(fmt.Sprintf("tag_%d", i), criteria.TagValues[i])
		params.Set(fmt.Sprintf("tag_contains_%d", i), contains)
	}
}
