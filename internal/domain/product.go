package domain

// Product is the fixed field subset returned by a product lookup. These
// are the keys projected out of the upstream "product" object.
type Product struct {
	Code                   string `json:"code"`
	ProductName            string `json:"product_name"`
	Brands                 string `json:"brands"`
	Quantity               string `json:"quantity"`
	ServingSize            string `json:"serving_size"`
	Packaging              string `json:"packaging"`
	StorageConditions      string `json:"storage_conditions"`
	ConservationConditions string `json:"conservation_conditions"`
	ExpirationDateFormat   string `json:"expiration_date_format"`
	Categories             string `json:"categories"`
	Labels                 string `json:"labels"`
	FoodGroups             string `json:"food_groups"`
}

// Credentials is the {user id, password} pair attached to authenticated
// write requests. It belongs to exactly one client instance: sharing a
// credential-bearing client across principals leaks the pair to every
// holder, so construct one client per principal and never pool them.
type Credentials struct {
	UserID   string
	Password string
}

// TagFilter is one entry of the index-aligned tag filter set sent as
// tagtype_i / tag_i / tag_contains_i query triples.
type TagFilter struct {
	Type     string // e.g. "categories", "labels", "brands"
	Value    string
	Contains string // "contains" or "does_not_contain"
}

// SearchCriteria carries every supported search parameter. Zero values
// mean "not supplied"; the tag arrays are parallel and index-aligned.
type SearchCriteria struct {
	Terms       string   `json:"terms"`
	Barcode     string   `json:"barcode"`
	MatchMode   string   `json:"match_mode"` // contains, starts, ends; anything else means exact
	TagTypes    []string `json:"tag_types"`  // parallel with TagValues and TagContains
	TagValues   []string `json:"tag_values"`
	TagContains []string `json:"tag_contains"`
	Additives   string   `json:"additives"` // "with", "without", "indifferent"
	PalmOil     string   `json:"palm_oil"`  // ingredients_from_palm_oil filter, same values
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	Fields      []string `json:"fields"` // response field allow-list; nil means no projection
}

// NewProductData is the payload for creating a product.
type NewProductData struct {
	Code   string `json:"code"`
	Brands string `json:"brands"`
	Labels string `json:"labels"`
}

// PhotoTarget names the slot a photo upload fills: which product facet
// and which language edition.
type PhotoTarget struct {
	Field        string `json:"field"`         // front, ingredients, or nutrition
	LanguageCode string `json:"language_code"` // e.g. "en", "fr"
}

// Insight is one Robotoff question returned by the random-insight
// endpoint.
type Insight struct {
	Barcode   string `json:"barcode"`
	Type      string `json:"type"`
	Question  string `json:"question"`
	Value     string `json:"value"`
	InsightID string `json:"insight_id"`
	SourceURL string `json:"source_image_url"`
}

// InsightResponse is the random-insight envelope.
type InsightResponse struct {
	Status    string    `json:"status"`
	Questions []Insight `json:"questions"`
}

// WriteResult is the upstream acknowledgement for product creation and
// photo upload.
type WriteResult struct {
	Status        int    `json:"status"`
	StatusVerbose string `json:"status_verbose"`
}
